package dao

import (
	"context"

	"sanchari/pkg/core/user/model"
)

type UserRepository interface {
	QueryByUID(ctx context.Context, uid string) (model.User, error)
	QueryByUIDs(ctx context.Context, uids []string) ([]model.User, error)
	QueryByUsername(ctx context.Context, username string) (model.User, error)
	IsUsernameExists(ctx context.Context, username string) (bool, error)
	IsEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, uid string, newPwdHash string) error
	ListPopular(ctx context.Context, limit int, exclude []string) ([]model.User, error)
}
