package match

import (
	"fmt"

	"backlog/internal/catalog"
	"backlog/internal/hltb"
)

// Outcome is the result of the decision ladder for one game.
type Outcome string

const (
	OutcomeMatch  Outcome = "match"
	OutcomeReview Outcome = "review"
	OutcomeNone   Outcome = "none"
)

// maxReviewCandidates caps how many ranked candidates are stored for
// an operator to inspect.
const maxReviewCandidates = 5

// Decision is the outcome for one game along with the ranked
// candidates that produced it.
type Decision struct {
	Outcome    Outcome
	Best       *Scored
	Candidates []Scored
	Reason     string
}

// Decide runs the decision ladder: score and rank the candidates,
// then confirm automatically only when the best candidate clears the
// auto-accept threshold with a sufficient lead and no identity doubts.
// Candidates in the review band go to a human; everything else is no
// match.
func Decide(policy Policy, game catalog.Game, candidates []hltb.Candidate) Decision {
	policy = policy.normalized()

	if len(candidates) == 0 {
		return Decision{Outcome: OutcomeNone, Reason: "no candidates returned"}
	}

	scored := score(policy, game, candidates)
	best := &scored[0]
	decision := Decision{Best: best, Candidates: scored}

	if best.Confidence < policy.ReviewFloor {
		decision.Outcome = OutcomeNone
		decision.Reason = fmt.Sprintf("best confidence %.2f below review floor %.2f",
			best.Confidence, policy.ReviewFloor)
		return decision
	}

	if reason := autoAcceptBlock(policy, scored); reason != "" {
		decision.Outcome = OutcomeReview
		decision.Reason = reason
		return decision
	}

	decision.Outcome = OutcomeMatch
	decision.Reason = fmt.Sprintf("confidence %.2f via %s", best.Confidence, best.Method)
	return decision
}

// autoAcceptBlock returns a human-readable reason the best candidate
// cannot be accepted automatically, or "" when it can.
func autoAcceptBlock(policy Policy, scored []Scored) string {
	best := &scored[0]

	if best.Confidence < policy.AutoAccept {
		return fmt.Sprintf("best confidence %.2f below auto-accept %.2f",
			best.Confidence, policy.AutoAccept)
	}
	if len(scored) > 1 {
		margin := best.Confidence - scored[1].Confidence
		if margin < policy.MinMargin {
			return fmt.Sprintf("margin %.2f over runner-up below minimum %.2f",
				margin, policy.MinMargin)
		}
	}
	if policy.RequirePlatformOverlap && best.platformKnown && !best.platformOverlap {
		return "candidate platforms share no family with the game"
	}
	if best.yearDistance > policy.YearTolerance {
		return fmt.Sprintf("release year differs by %d, tolerance is %d",
			best.yearDistance, policy.YearTolerance)
	}
	if reason := titleCollision(best, scored); reason != "" {
		return reason
	}
	return ""
}

// titleCollision detects same-name releases that differ in year, the
// classic remake/remaster trap: identical normalized titles across
// different release years cannot be told apart automatically. An exact
// year agreement between game and candidate anchors identity and
// overrides the collision.
func titleCollision(best *Scored, scored []Scored) string {
	if best.yearDistance == 0 {
		return ""
	}
	for i := range scored {
		other := &scored[i]
		if other == best || other.TitleNorm != best.TitleNorm {
			continue
		}
		if other.Candidate.Year != 0 && best.Candidate.Year != 0 &&
			other.Candidate.Year != best.Candidate.Year {
			return fmt.Sprintf("multiple releases named %q across years %d and %d",
				best.TitleNorm, best.Candidate.Year, other.Candidate.Year)
		}
	}
	return ""
}

// ReviewCandidates converts the ranked list into the payload stored in
// the review queue, capped to the top entries.
func ReviewCandidates(scored []Scored) []catalog.ReviewCandidate {
	limit := len(scored)
	if limit > maxReviewCandidates {
		limit = maxReviewCandidates
	}
	out := make([]catalog.ReviewCandidate, 0, limit)
	for _, s := range scored[:limit] {
		out = append(out, catalog.ReviewCandidate{
			Title:      s.Candidate.Title,
			TitleNorm:  s.TitleNorm,
			Platforms:  s.Candidate.Platforms,
			Year:       s.Candidate.Year,
			Main:       s.Candidate.Main,
			MainExtra:  s.Candidate.MainExtra,
			Complete:   s.Candidate.Complete,
			Votes:      s.Candidate.Votes,
			SourceURL:  s.Candidate.URL,
			Confidence: s.Confidence,
			Method:     s.Method,
		})
	}
	return out
}
