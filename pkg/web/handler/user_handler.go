package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	usersvc "sanchari/pkg/core/user/service"
	"sanchari/pkg/web/model"
)

type UserHandler struct {
	users *usersvc.UserService
}

func NewUserHandler(users *usersvc.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req model.RegisterReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "参数校验失败: "+err.Error())
		return
	}

	profile, err := h.users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 201, profile)
}

func (h *UserHandler) Login(ctx context.Context, c *app.RequestContext) {
	var req model.LoginReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "参数错误")
		return
	}

	token, err := h.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.LoginRes{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      token.Profile,
	})
}

// Me 当前登录用户的资料；角色已变更（审核通过）时附带携带新角色的 token
func (h *UserHandler) Me(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	profile, err := h.users.Profile(ctx, id.UID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	res := model.MeRes{User: profile}
	if profile.Role != id.Role {
		token, expiresAt, err := h.users.IssueToken(profile.UID, profile.Role)
		if err != nil {
			respondError(ctx, c, err)
			return
		}
		hlog.CtxInfof(ctx, "[AUTH] role changed, token reissued: uid=%s role=%s->%s", profile.UID, id.Role, profile.Role)
		res.Token = token
		res.ExpiresAt = &expiresAt
	}
	respondOK(c, 200, res)
}

func (h *UserHandler) Profile(ctx context.Context, c *app.RequestContext) {
	profile, err := h.users.Profile(ctx, c.Param("uid"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, profile)
}

func (h *UserHandler) ChangePassword(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req model.ChangePwdReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "参数错误")
		return
	}

	if err := h.users.ChangePassword(ctx, id.UID, req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, map[string]string{"message": "密码已更新"})
}
