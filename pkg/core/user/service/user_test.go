package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanchari/pkg/common/dbtest"
	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/user/model"
	daoimpl "sanchari/pkg/core/user/repository/dao/impl"
)

const testSecret = "test-secret"

func newService(t *testing.T) *UserService {
	repo := daoimpl.NewGormUserRepository(dbtest.Open(t, &model.User{}))
	return NewUserService(repo, TokenConfig{
		Secret:        testSecret,
		Issuer:        "sanchari-test",
		SigningMethod: "HS256",
		TTL:           time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	profile, err := s.Register(ctx, " asha ", "Asha@Example.com", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, "asha", profile.Username)
	assert.Equal(t, model.RoleTraveler, profile.Role)
	assert.NotEmpty(t, profile.UID)

	tok, err := s.Login(ctx, "asha", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, profile.UID, tok.Profile.UID)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, profile.UID, claims[ClaimUserID])
	assert.Equal(t, model.RoleTraveler, claims[ClaimRole])
	assert.Equal(t, "sanchari-test", claims["iss"])
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	_, err := s.Register(ctx, "asha", "asha@example.com", "s3cret!pass")
	require.NoError(t, err)

	_, err = s.Register(ctx, "asha", "other@example.com", "s3cret!pass")
	assert.ErrorIs(t, err, errs.ErrDuplicateEntry)

	_, err = s.Register(ctx, "other", "ASHA@example.com", "s3cret!pass")
	assert.ErrorIs(t, err, errs.ErrDuplicateEntry, "emails compare case-insensitively")

	_, err = s.Register(ctx, "weak", "weak@example.com", "password")
	assert.ErrorIs(t, err, errs.ErrWeakPassword)
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	_, err := s.Register(ctx, "asha", "asha@example.com", "s3cret!pass")
	require.NoError(t, err)

	_, err = s.Login(ctx, "asha", "wrong!pass1")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "s3cret!pass")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	p, err := s.Register(ctx, "asha", "asha@example.com", "s3cret!pass")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, p.UID, "nope", "n3w!password"), errs.ErrInvalidCredentials)
	assert.ErrorIs(t, s.ChangePassword(ctx, p.UID, "s3cret!pass", "short"), errs.ErrWeakPassword)
	require.NoError(t, s.ChangePassword(ctx, p.UID, "s3cret!pass", "n3w!password"))

	_, err = s.Login(ctx, "asha", "n3w!password")
	assert.NoError(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("abc123!@"))
	assert.Error(t, ValidatePasswordStrength("abc12!"))
	assert.Error(t, ValidatePasswordStrength("abcdefgh1"))
	assert.Error(t, ValidatePasswordStrength("!!!!2222"))
}
