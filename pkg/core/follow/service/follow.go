package service

import (
	"context"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"golang.org/x/sync/errgroup"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/follow/repository/dao"
	usermodel "sanchari/pkg/core/user/model"
	userdao "sanchari/pkg/core/user/repository/dao"
)

type Options struct {
	SuggestionLimit int
	// Diagnostics enables the section overlap self-check (non-production builds).
	Diagnostics bool
}

type FollowService struct {
	follows dao.FollowRepository
	users   userdao.UserRepository
	opts    Options
}

func NewFollowService(follows dao.FollowRepository, users userdao.UserRepository, opts Options) *FollowService {
	return &FollowService{follows: follows, users: users, opts: opts}
}

func (s *FollowService) Follow(ctx context.Context, followerUID, targetUID string) error {
	if followerUID == targetUID {
		return errs.ErrSelfFollow
	}
	_, err := s.follows.Follow(ctx, followerUID, targetUID)
	return err
}

func (s *FollowService) Unfollow(ctx context.Context, followerUID, targetUID string) error {
	if followerUID == targetUID {
		return errs.ErrSelfFollow
	}
	_, err := s.follows.Unfollow(ctx, followerUID, targetUID)
	return err
}

// Sections loads the logged user's followers and following ids concurrently,
// then fetches suggestions that skip everyone already placed, and segments them.
func (s *FollowService) Sections(ctx context.Context, loggedUID string) (Sections, error) {
	var (
		followerIDs  []string
		followers    []Candidate
		followingIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		uids, err := s.follows.FollowerUIDs(gctx, loggedUID)
		if err != nil {
			return err
		}
		users, err := s.users.QueryByUIDs(gctx, uids)
		if err != nil {
			return err
		}
		// 保持关注时间顺序
		byUID := make(map[string]usermodel.User, len(users))
		for _, u := range users {
			byUID[u.UID] = u
		}
		followerIDs = uids
		followers = make([]Candidate, 0, len(uids))
		for _, uid := range uids {
			if u, ok := byUID[uid]; ok {
				followers = append(followers, toCandidate(u))
			}
		}
		return nil
	})

	g.Go(func() error {
		ids, err := s.follows.FollowingUIDs(gctx, loggedUID)
		followingIDs = ids
		return err
	})

	if err := g.Wait(); err != nil {
		return Sections{}, err
	}

	// 先排除再 Limit，否则关注了热门用户的人拿不到推荐
	exclude := make([]string, 0, 1+len(followingIDs)+len(followerIDs))
	exclude = append(exclude, loggedUID)
	exclude = append(exclude, followingIDs...)
	exclude = append(exclude, followerIDs...)
	users, err := s.users.ListPopular(ctx, s.opts.SuggestionLimit, exclude)
	if err != nil {
		return Sections{}, err
	}
	suggested := make([]Candidate, 0, len(users))
	for _, u := range users {
		suggested = append(suggested, toCandidate(u))
	}

	sections := Segment(followers, followingIDs, suggested, loggedUID)
	if s.opts.Diagnostics {
		if dup := Overlap(sections); len(dup) > 0 {
			hlog.CtxWarnf(ctx, "[SEGMENT] followers and suggestions overlap for user=%s ids=%v", loggedUID, dup)
		}
	}
	return sections, nil
}

func toCandidate(u usermodel.User) Candidate {
	p := usermodel.NormalizeProfile(u)
	return Candidate{UID: u.UID, Profile: &p}
}
