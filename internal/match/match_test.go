package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/catalog"
	"backlog/internal/hltb"
	"backlog/internal/match"
)

func game(title string, year int, family string) catalog.Game {
	return catalog.Game{Title: title, TitleNorm: title, Year: year, PlatformFamily: family}
}

func TestDecideNoCandidates(t *testing.T) {
	decision := match.Decide(match.DefaultPolicy(), game("hollow knight", 2017, "pc"), nil)
	assert.Equal(t, match.OutcomeNone, decision.Outcome)
	assert.Nil(t, decision.Best)
}

func TestDecideExactMatch(t *testing.T) {
	candidates := []hltb.Candidate{{
		Title: "Hollow Knight", Platforms: []string{"PC", "Nintendo Switch"},
		Year: 2017, Main: 26.5, Votes: 5200,
	}}
	decision := match.Decide(match.DefaultPolicy(), game("hollow knight", 2017, "pc"), candidates)

	require.Equal(t, match.OutcomeMatch, decision.Outcome)
	assert.Equal(t, catalog.MethodExact, decision.Best.Method)
	assert.Equal(t, 1.0, decision.Best.Confidence)
}

func TestDecideSingleStrongCandidateAutoAccepts(t *testing.T) {
	// An exact title a year off still clears auto-accept on its own.
	candidates := []hltb.Candidate{{
		Title: "Celeste", Platforms: []string{"PC"}, Year: 2019, Votes: 900,
	}}
	decision := match.Decide(match.DefaultPolicy(), game("celeste", 2018, "pc"), candidates)

	require.Equal(t, match.OutcomeMatch, decision.Outcome)
	assert.Equal(t, catalog.MethodExactRelaxed, decision.Best.Method)
	assert.Equal(t, 0.95, decision.Best.Confidence)
}

func TestDecideThinMarginQueuesForReview(t *testing.T) {
	// Two exact-title candidates bracket the game's year, both scoring
	// 0.95: the top clears auto-accept but has no lead over the
	// runner-up, so the decision goes to a human.
	policy := match.DefaultPolicy()
	candidates := []hltb.Candidate{
		{Title: "Doom", Platforms: []string{"PC"}, Year: 2016, Votes: 2500},
		{Title: "Doom", Platforms: []string{"PC"}, Year: 2018, Votes: 1100},
	}
	decision := match.Decide(policy, game("doom", 2017, "pc"), candidates)

	require.Len(t, decision.Candidates, 2)
	assert.GreaterOrEqual(t, decision.Candidates[0].Confidence, policy.AutoAccept)
	margin := decision.Candidates[0].Confidence - decision.Candidates[1].Confidence
	assert.Less(t, margin, policy.MinMargin)
	assert.Equal(t, match.OutcomeReview, decision.Outcome)
}

func TestDecideReviewBandQueues(t *testing.T) {
	policy := match.Policy{AutoAccept: 0.95, ReviewFloor: 0.90, MinMargin: 0.05, YearTolerance: 1}
	candidates := []hltb.Candidate{
		// Exact title, year outside tolerance: fuzzy score lands in the
		// review band.
		{Title: "Chrono Trigger", Platforms: []string{"Super Nintendo"}, Year: 1999, Votes: 3000},
	}
	decision := match.Decide(policy, game("chrono trigger", 1995, "nintendo"), candidates)

	require.Equal(t, match.OutcomeReview, decision.Outcome)
	assert.GreaterOrEqual(t, decision.Best.Confidence, policy.ReviewFloor)
	assert.Less(t, decision.Best.Confidence, policy.AutoAccept)
}

func TestDecideBelowFloorIsNoMatch(t *testing.T) {
	candidates := []hltb.Candidate{{
		Title: "Completely Different Game", Platforms: []string{"PC"}, Year: 2001, Votes: 10,
	}}
	decision := match.Decide(match.DefaultPolicy(), game("hollow knight", 2017, "pc"), candidates)
	assert.Equal(t, match.OutcomeNone, decision.Outcome)
}

func TestDecidePlatformMismatchBlocksAutoAccept(t *testing.T) {
	candidates := []hltb.Candidate{{
		Title: "Bloodborne", Platforms: []string{"PlayStation 4"}, Year: 2015, Votes: 4000,
	}}
	decision := match.Decide(match.DefaultPolicy(), game("bloodborne", 2015, "pc"), candidates)
	assert.NotEqual(t, match.OutcomeMatch, decision.Outcome,
		"a candidate on a foreign platform family must not auto-accept")
}

func TestDecideSameTitleAcrossYearsQueues(t *testing.T) {
	// Game year unknown, source offers two releases under one name.
	candidates := []hltb.Candidate{
		{Title: "Doom", Platforms: []string{"PC"}, Year: 1993, Votes: 2500},
		{Title: "Doom", Platforms: []string{"PC"}, Year: 2016, Votes: 4100},
	}
	decision := match.Decide(match.DefaultPolicy(), game("doom", 0, "pc"), candidates)
	assert.Equal(t, match.OutcomeReview, decision.Outcome)
}

func TestDecideKnownYearResolvesCollision(t *testing.T) {
	candidates := []hltb.Candidate{
		{Title: "Doom", Platforms: []string{"PC"}, Year: 1993, Votes: 2500},
		{Title: "Doom", Platforms: []string{"PC"}, Year: 2016, Votes: 4100},
	}
	decision := match.Decide(match.DefaultPolicy(), game("doom", 2016, "pc"), candidates)

	require.Equal(t, match.OutcomeMatch, decision.Outcome)
	assert.Equal(t, 2016, decision.Best.Candidate.Year)
}

func TestDecideRankingIsDeterministic(t *testing.T) {
	candidates := []hltb.Candidate{
		{Title: "Tetris", Platforms: []string{"PC"}, Year: 1989, Votes: 100},
		{Title: "Tetris", Platforms: []string{"PC"}, Year: 1989, Votes: 900},
	}
	first := match.Decide(match.DefaultPolicy(), game("tetris", 1989, "pc"), candidates)
	second := match.Decide(match.DefaultPolicy(), game("tetris", 1989, "pc"), candidates)

	require.NotNil(t, first.Best)
	assert.Equal(t, 900, first.Best.Candidate.Votes, "ties break on vote count")
	assert.Equal(t, first.Best.Candidate.Votes, second.Best.Candidate.Votes)
	assert.Equal(t, first.Outcome, second.Outcome)
}

func TestReviewCandidatesCapped(t *testing.T) {
	candidates := make([]hltb.Candidate, 8)
	for i := range candidates {
		candidates[i] = hltb.Candidate{Title: "Shadow of the Colossus", Year: 2005 + i, Votes: i}
	}
	decision := match.Decide(match.DefaultPolicy(), game("shadow of the colossus", 0, ""), candidates)

	payload := match.ReviewCandidates(decision.Candidates)
	assert.Len(t, payload, 5)
	assert.GreaterOrEqual(t, payload[0].Confidence, payload[4].Confidence)
}
