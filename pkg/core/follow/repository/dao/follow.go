package dao

import "context"

type FollowRepository interface {
	// Follow records the edge and bumps both users' counters together.
	// It reports false when the edge already existed.
	Follow(ctx context.Context, followerUID, followeeUID string) (bool, error)
	// Unfollow removes the edge and decrements both counters together.
	// It reports false when there was no edge.
	Unfollow(ctx context.Context, followerUID, followeeUID string) (bool, error)
	IsFollowing(ctx context.Context, followerUID, followeeUID string) (bool, error)
	FollowerUIDs(ctx context.Context, uid string) ([]string, error)
	FollowingUIDs(ctx context.Context, uid string) ([]string, error)
}
