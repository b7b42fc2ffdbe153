package model

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultDisplayName = "Traveler"

// Profile is the fully-defaulted public view of a user. Every field is always
// populated; callers never need their own fallbacks.
type Profile struct {
	UID            string    `json:"uid"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Role           string    `json:"role"`
	AvatarURL      string    `json:"avatarUrl"`
	Bio            string    `json:"bio"`
	HomeTown       string    `json:"homeTown"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// NormalizeProfile is the single place where stored user records, including the
// free-form Extra document, are turned into a Profile.
func NormalizeProfile(u User) Profile {
	extra := gjson.Parse(u.Extra)
	if !gjson.Valid(u.Extra) {
		extra = gjson.Result{}
	}

	p := Profile{
		UID:            u.UID,
		Username:       u.Username,
		Role:           u.Role,
		FollowersCount: nonNegative(u.FollowersCount),
		FollowingCount: nonNegative(u.FollowingCount),
		JoinedAt:       u.CreatedAt.UTC(),
		AvatarURL:      firstString(extra, "avatarUrl", "photoURL", "avatar"),
		Bio:            firstString(extra, "bio", "about"),
		HomeTown:       firstString(extra, "homeTown", "location.city"),
	}

	p.DisplayName = firstNonEmpty(
		strings.TrimSpace(u.DisplayName),
		firstString(extra, "displayName", "name"),
		strings.TrimSpace(u.Username),
		emailLocalPart(u.Email),
		defaultDisplayName,
	)
	if p.Role == "" {
		p.Role = RoleTraveler
	}
	return p
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := doc.Get(path); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func emailLocalPart(email string) string {
	local, _, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return ""
	}
	return local
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
