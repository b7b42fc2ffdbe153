package service

import (
	usermodel "sanchari/pkg/core/user/model"
)

// Candidate is a user that may be shown in the followers or suggestions
// section. Its identity is UID, or ID when UID is empty.
type Candidate struct {
	UID     string             `json:"uid,omitempty"`
	ID      string             `json:"id,omitempty"`
	Profile *usermodel.Profile `json:"profile,omitempty"`
}

// Key returns the candidate's identity, "" when it has none.
func (c Candidate) Key() string {
	if c.UID != "" {
		return c.UID
	}
	return c.ID
}

// Sections holds two disjoint, ordered lists of candidates.
type Sections struct {
	Followers        []Candidate `json:"followers"`
	Suggested        []Candidate `json:"suggested"`
	FollowersCount   int         `json:"followersCount"`
	SuggestionsCount int         `json:"suggestionsCount"`
}

// Segment splits candidates into "followers to follow back" and "suggested".
//
// A follower the logged user already follows is left out of both sections.
// A suggestion that is also a follower only shows up as a follower. Entries
// without an id, the logged user, and repeats are skipped; order follows the
// first occurrence in each input.
func Segment(followers []Candidate, followingIDs []string, suggested []Candidate, loggedUserID string) Sections {
	following := make(map[string]struct{}, len(followingIDs))
	for _, id := range followingIDs {
		if id != "" {
			following[id] = struct{}{}
		}
	}

	out := Sections{
		Followers: make([]Candidate, 0, len(followers)),
		Suggested: make([]Candidate, 0, len(suggested)),
	}

	placedFollowers := make(map[string]struct{}, len(followers))
	for _, c := range followers {
		id := c.Key()
		if id == "" || id == loggedUserID {
			continue
		}
		if _, ok := following[id]; ok {
			continue
		}
		if _, ok := placedFollowers[id]; ok {
			continue
		}
		placedFollowers[id] = struct{}{}
		out.Followers = append(out.Followers, c)
	}

	placedSuggested := make(map[string]struct{}, len(suggested))
	for _, c := range suggested {
		id := c.Key()
		if id == "" || id == loggedUserID {
			continue
		}
		if _, ok := placedFollowers[id]; ok {
			continue
		}
		if _, ok := following[id]; ok {
			continue
		}
		if _, ok := placedSuggested[id]; ok {
			continue
		}
		placedSuggested[id] = struct{}{}
		out.Suggested = append(out.Suggested, c)
	}

	out.FollowersCount = len(out.Followers)
	out.SuggestionsCount = len(out.Suggested)
	return out
}

// Overlap returns the ids present in both sections. It is empty for any
// output of Segment.
func Overlap(s Sections) []string {
	seen := make(map[string]struct{}, len(s.Followers))
	for _, c := range s.Followers {
		seen[c.Key()] = struct{}{}
	}
	var dup []string
	for _, c := range s.Suggested {
		if _, ok := seen[c.Key()]; ok {
			dup = append(dup, c.Key())
		}
	}
	return dup
}
