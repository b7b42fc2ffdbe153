package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/user/model"
	"sanchari/pkg/core/user/repository/dao"
)

// TokenConfig 签发 JWT 所需参数，与 middleware 校验保持一致
type TokenConfig struct {
	Secret        string
	Issuer        string
	SigningMethod string
	TTL           time.Duration
}

// Claim keys shared with the auth middleware.
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
)

type UserService struct {
	repo  dao.UserRepository
	token TokenConfig
	now   func() time.Time
}

func NewUserService(repo dao.UserRepository, token TokenConfig) *UserService {
	return &UserService{repo: repo, token: token, now: time.Now}
}

// Token is the result of a successful login.
type Token struct {
	Token     string
	ExpiresAt time.Time
	Profile   model.Profile
}

// Register creates a traveler account.
func (s *UserService) Register(ctx context.Context, username, email, password string) (model.Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidatePasswordStrength(password); err != nil {
		return model.Profile{}, err
	}

	if exists, err := s.repo.IsUsernameExists(ctx, username); err != nil {
		return model.Profile{}, err
	} else if exists {
		return model.Profile{}, fmt.Errorf("username %q: %w", username, errs.ErrDuplicateEntry)
	}

	if exists, err := s.repo.IsEmailExists(ctx, email); err != nil {
		return model.Profile{}, err
	} else if exists {
		return model.Profile{}, fmt.Errorf("email %q: %w", email, errs.ErrDuplicateEntry)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		UID:          uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPwd),
		Role:         model.RoleTraveler,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return model.Profile{}, err
	}
	return model.NormalizeProfile(user), nil
}

// Login checks credentials and mints a bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.repo.QueryByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, errs.ErrUserNotFound) {
		return Token{}, errs.ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, errs.ErrInvalidCredentials
	}

	signed, expiresAt, err := s.IssueToken(user.UID, user.Role)
	if err != nil {
		return Token{}, err
	}
	return Token{Token: signed, ExpiresAt: expiresAt, Profile: model.NormalizeProfile(user)}, nil
}

// IssueToken signs a token for uid carrying its role.
func (s *UserService) IssueToken(uid, role string) (string, time.Time, error) {
	method := jwt.GetSigningMethod(s.token.SigningMethod)
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	now := s.now()
	expiresAt := now.Add(s.token.TTL)
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		ClaimUserID: uid,
		ClaimRole:   role,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"iss":       s.token.Issuer,
	})

	signed, err := token.SignedString([]byte(s.token.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *UserService) ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error {
	user, err := s.repo.QueryByUID(ctx, uid)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errs.ErrInvalidCredentials
	}

	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, uid, string(newHash))
}

func (s *UserService) Profile(ctx context.Context, uid string) (model.Profile, error) {
	user, err := s.repo.QueryByUID(ctx, uid)
	if err != nil {
		return model.Profile{}, err
	}
	return model.NormalizeProfile(user), nil
}

// ValidatePasswordStrength 密码规则：同时包含数字、字母和特殊字符，最少8位
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errs.ErrWeakPassword
	}

	hasNumber := false
	hasLetter := false
	hasSpecial := false

	for _, c := range password {
		switch {
		case unicode.IsNumber(c):
			hasNumber = true
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsSymbol(c) || unicode.IsPunct(c):
			hasSpecial = true
		}
	}

	if !(hasNumber && hasLetter && hasSpecial) {
		return errs.ErrWeakPassword
	}
	return nil
}
