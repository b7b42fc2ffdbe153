package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uids(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Key())
	}
	return out
}

func c(uid string) Candidate { return Candidate{UID: uid} }

func TestSegment_Example(t *testing.T) {
	got := Segment(
		[]Candidate{c("a"), c("b")},
		[]string{"b"},
		[]Candidate{c("a"), c("c")},
		"z",
	)

	assert.Equal(t, []string{"a"}, uids(got.Followers))
	assert.Equal(t, []string{"c"}, uids(got.Suggested))
	assert.Equal(t, 1, got.FollowersCount)
	assert.Equal(t, 1, got.SuggestionsCount)
}

func TestSegment_MutualFollowerExcludedFromBothSections(t *testing.T) {
	got := Segment([]Candidate{c("m")}, []string{"m"}, []Candidate{c("m")}, "me")

	assert.Empty(t, got.Followers)
	assert.Empty(t, got.Suggested)
}

func TestSegment_SkipsSelfAndMissingIDs(t *testing.T) {
	got := Segment(
		[]Candidate{{}, c("me"), {ID: "legacy"}},
		nil,
		[]Candidate{c("me"), {}, c("s")},
		"me",
	)

	assert.Equal(t, []string{"legacy"}, uids(got.Followers), "id is used when uid is missing")
	assert.Equal(t, []string{"s"}, uids(got.Suggested))
}

func TestSegment_UIDPreferredOverID(t *testing.T) {
	got := Segment([]Candidate{{UID: "u", ID: "other"}}, []string{"other"}, nil, "me")
	assert.Equal(t, []string{"u"}, uids(got.Followers))
}

func TestSegment_FirstSeenWinsAndOrderIsStable(t *testing.T) {
	first := Candidate{UID: "a", ID: "first"}
	second := Candidate{UID: "a", ID: "second"}
	got := Segment(
		[]Candidate{c("c"), first, c("b"), second},
		nil,
		[]Candidate{c("y"), c("x"), c("y"), c("b")},
		"me",
	)

	assert.Equal(t, []string{"c", "a", "b"}, uids(got.Followers))
	assert.Equal(t, "first", got.Followers[1].ID)
	assert.Equal(t, []string{"y", "x"}, uids(got.Suggested))
}

func TestSegment_EmptyInputs(t *testing.T) {
	got := Segment(nil, nil, nil, "")
	assert.NotNil(t, got.Followers)
	assert.NotNil(t, got.Suggested)
	assert.Zero(t, got.FollowersCount+got.SuggestionsCount)
}

func TestSegment_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{"", "me", "a", "b", "c", "d", "e", "f"}
	pick := func(n int) []Candidate {
		out := make([]Candidate, n)
		for i := range out {
			out[i] = Candidate{UID: pool[rng.Intn(len(pool))]}
		}
		return out
	}

	for i := 0; i < 500; i++ {
		followers := pick(rng.Intn(8))
		suggested := pick(rng.Intn(8))
		var following []string
		for _, f := range pick(rng.Intn(4)) {
			following = append(following, f.UID)
		}

		got := Segment(followers, following, suggested, "me")

		// disjointness
		assert.Empty(t, Overlap(got))

		// self-exclusion
		assert.NotContains(t, uids(got.Followers), "me")
		assert.NotContains(t, uids(got.Suggested), "me")

		// already-followed never appear
		for _, id := range following {
			assert.NotContains(t, uids(got.Followers), id)
			assert.NotContains(t, uids(got.Suggested), id)
		}

		// idempotence
		assert.Equal(t, got, Segment(followers, following, suggested, "me"))

		// order preservation: outputs are a subsequence of first occurrences
		assertSubsequence(t, uids(got.Followers), firstOccurrences(followers))
		assertSubsequence(t, uids(got.Suggested), firstOccurrences(suggested))
	}
}

func firstOccurrences(cs []Candidate) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range cs {
		if !seen[c.Key()] {
			seen[c.Key()] = true
			out = append(out, c.Key())
		}
	}
	return out
}

func assertSubsequence(t *testing.T, sub, seq []string) {
	t.Helper()
	i := 0
	for _, s := range seq {
		if i < len(sub) && sub[i] == s {
			i++
		}
	}
	assert.Equal(t, len(sub), i, "%v is not an ordered subsequence of %v", sub, seq)
}

func TestOverlap(t *testing.T) {
	s := Sections{
		Followers: []Candidate{c("a"), c("b")},
		Suggested: []Candidate{c("b"), c("c")},
	}
	assert.Equal(t, []string{"b"}, Overlap(s))
}
