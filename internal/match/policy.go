// Package match scores candidate play-time entries against catalog
// games and decides whether to confirm a match automatically, queue it
// for human review, or record no match.
package match

import "backlog/internal/config"

// Policy holds the thresholds driving match decisions.
type Policy struct {
	// AutoAccept is the minimum confidence for an automatic match.
	AutoAccept float64
	// ReviewFloor is the minimum confidence to queue for review.
	// Anything below it is treated as no match.
	ReviewFloor float64
	// MinMargin is the lead the best candidate needs over the runner-up
	// before it can be accepted automatically.
	MinMargin float64
	// YearTolerance is the maximum release-year distance still
	// considered the same game.
	YearTolerance int
	// RequirePlatformOverlap withholds automatic acceptance when the
	// candidate's platforms share no family with the game's.
	RequirePlatformOverlap bool
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AutoAccept:             0.95,
		ReviewFloor:            0.90,
		MinMargin:              0.05,
		YearTolerance:          1,
		RequirePlatformOverlap: true,
	}
}

// PolicyFromConfig maps the match config section onto a Policy.
func PolicyFromConfig(cfg config.Match) Policy {
	return Policy{
		AutoAccept:             cfg.AutoAccept,
		ReviewFloor:            cfg.ReviewFloor,
		MinMargin:              cfg.MinMargin,
		YearTolerance:          cfg.YearTolerance,
		RequirePlatformOverlap: cfg.RequirePlatformOverlap,
	}.normalized()
}

// normalized fills zero-valued thresholds with defaults so a partially
// specified policy still behaves sanely.
func (p Policy) normalized() Policy {
	defaults := DefaultPolicy()
	if p.AutoAccept <= 0 {
		p.AutoAccept = defaults.AutoAccept
	}
	if p.ReviewFloor <= 0 {
		p.ReviewFloor = defaults.ReviewFloor
	}
	if p.MinMargin < 0 {
		p.MinMargin = defaults.MinMargin
	}
	if p.YearTolerance < 0 {
		p.YearTolerance = defaults.YearTolerance
	}
	if p.ReviewFloor > p.AutoAccept {
		p.ReviewFloor = p.AutoAccept
	}
	return p
}
