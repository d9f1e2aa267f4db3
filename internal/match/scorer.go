package match

import (
	"sort"
	"strings"

	"backlog/internal/catalog"
	"backlog/internal/hltb"
	"backlog/internal/normalize"
)

// Scored is one candidate annotated with its normalized title and the
// confidence the scorer assigned.
type Scored struct {
	Candidate  hltb.Candidate
	TitleNorm  string
	Confidence float64
	Method     catalog.Method

	// yearDistance is -1 when either side's year is unknown.
	yearDistance int
	// platformKnown reports whether both sides carried recognizable
	// platform information; platformOverlap is only meaningful then.
	platformKnown   bool
	platformOverlap bool
}

// score ranks every candidate against the game, best first. Ordering
// is by confidence, then vote count, then input order, so ties resolve
// deterministically.
func score(policy Policy, game catalog.Game, candidates []hltb.Candidate) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, scoreOne(policy, game, candidate))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Confidence != scored[j].Confidence {
			return scored[i].Confidence > scored[j].Confidence
		}
		return scored[i].Candidate.Votes > scored[j].Candidate.Votes
	})
	return scored
}

func scoreOne(policy Policy, game catalog.Game, candidate hltb.Candidate) Scored {
	s := Scored{
		Candidate:    candidate,
		TitleNorm:    normalize.Title(candidate.Title),
		yearDistance: -1,
	}

	if game.Year != 0 && candidate.Year != 0 {
		s.yearDistance = game.Year - candidate.Year
		if s.yearDistance < 0 {
			s.yearDistance = -s.yearDistance
		}
	}

	families := normalize.Families(candidate.Platforms)
	if game.PlatformFamily != "" && len(families) > 0 {
		s.platformKnown = true
		_, s.platformOverlap = families[game.PlatformFamily]
	}

	exactTitle := s.TitleNorm != "" && s.TitleNorm == game.TitleNorm
	yearExact := s.yearDistance == 0
	yearClose := s.yearDistance < 0 || s.yearDistance <= policy.YearTolerance
	platformOK := !s.platformKnown || s.platformOverlap

	switch {
	case exactTitle && yearExact && platformOK:
		s.Method = catalog.MethodExact
		s.Confidence = 1.0
	case exactTitle && yearClose:
		s.Method = catalog.MethodExactRelaxed
		s.Confidence = 0.95
	default:
		s.Method = catalog.MethodFuzzy
		s.Confidence = fuzzyConfidence(game.TitleNorm, s, policy)
	}
	return s
}

// fuzzyConfidence blends title similarity with platform and year
// agreement. Platform disagreement and large year gaps pull a
// candidate down hard enough that it cannot clear the auto-accept
// threshold on title similarity alone.
func fuzzyConfidence(gameTitle string, s Scored, policy Policy) float64 {
	confidence := titleSimilarity(gameTitle, s.TitleNorm)

	if s.platformKnown {
		if s.platformOverlap {
			confidence += 0.03
		} else {
			confidence -= 0.15
		}
	}
	if s.yearDistance >= 0 {
		if s.yearDistance <= policy.YearTolerance {
			confidence += 0.02
		} else {
			confidence -= 0.10
		}
	}

	return clamp01(confidence)
}

// titleSimilarity is a Dice coefficient over word tokens, falling back
// to character bigrams when either title is a single token so that
// near-identical one-word titles still compare gradually.
func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) > 1 && len(tokensB) > 1 {
		return diceCoefficient(tokenSet(tokensA), tokenSet(tokensB))
	}
	return diceCoefficient(bigramSet(a), bigramSet(b))
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func bigramSet(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 2 {
		return map[string]struct{}{string(runes): {}}
	}
	set := make(map[string]struct{}, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

func diceCoefficient(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for token := range a {
		if _, ok := b[token]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

func clamp01(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	}
	return value
}
