package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProfile_DisplayNameFallbacks(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"explicit display name", User{DisplayName: " Asha ", Username: "asha_k"}, "Asha"},
		{"extra document name", User{Username: "asha_k", Extra: `{"displayName":"Asha K"}`}, "Asha K"},
		{"username", User{Username: "asha_k", Email: "asha@example.com"}, "asha_k"},
		{"email local part", User{Email: "wanderer@example.com"}, "wanderer"},
		{"default", User{}, "Traveler"},
		{"malformed email", User{Email: "no-at-sign"}, "Traveler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProfile(tt.user).DisplayName)
		})
	}
}

func TestNormalizeProfile_Extra(t *testing.T) {
	joined := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	u := User{
		UID:            "u-1",
		Username:       "ravi",
		FollowersCount: -2,
		FollowingCount: 7,
		CreatedAt:      joined,
		Extra:          `{"photoURL":"https://cdn/x.jpg","bio":"  hills  ","location":{"city":"Kochi"},"avatarUrl":""}`,
	}

	p := NormalizeProfile(u)

	assert.Equal(t, "https://cdn/x.jpg", p.AvatarURL, "empty avatarUrl falls through to photoURL")
	assert.Equal(t, "hills", p.Bio)
	assert.Equal(t, "Kochi", p.HomeTown)
	assert.Equal(t, int64(0), p.FollowersCount)
	assert.Equal(t, int64(7), p.FollowingCount)
	assert.Equal(t, RoleTraveler, p.Role)
	assert.Equal(t, time.UTC, p.JoinedAt.Location())
}

func TestNormalizeProfile_IgnoresInvalidExtra(t *testing.T) {
	p := NormalizeProfile(User{Username: "x", Extra: `{"bio":`})
	assert.Empty(t, p.Bio)
	assert.Empty(t, p.AvatarURL)
}

func TestNormalizeProfile_NonStringExtraValues(t *testing.T) {
	p := NormalizeProfile(User{Username: "x", Extra: `{"bio":42,"about":"real"}`})
	assert.Equal(t, "real", p.Bio)
}
