package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	followsvc "sanchari/pkg/core/follow/service"
)

type FollowHandler struct {
	follows *followsvc.FollowService
}

func NewFollowHandler(follows *followsvc.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

func (h *FollowHandler) Follow(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.follows.Follow(ctx, id.UID, c.Param("uid")); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, map[string]bool{"following": true})
}

func (h *FollowHandler) Unfollow(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.follows.Unfollow(ctx, id.UID, c.Param("uid")); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, map[string]bool{"following": false})
}

// Sections 粉丝回关列表与推荐列表，两者互斥
func (h *FollowHandler) Sections(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	sections, err := h.follows.Sections(ctx, id.UID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, sections)
}
