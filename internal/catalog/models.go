package catalog

import (
	"strings"
	"time"
)

// Method identifies the scoring strategy that produced a match.
type Method string

const (
	MethodExact        Method = "exact"
	MethodExactRelaxed Method = "exact_relaxed"
	MethodFuzzy        Method = "fuzzy"
	MethodManual       Method = "manual"
)

// DecidedBy records whether a match was confirmed automatically or by
// an operator.
type DecidedBy string

const (
	DecidedAuto   DecidedBy = "auto"
	DecidedManual DecidedBy = "manual"
)

// ParseMethod converts a string into a known Method.
func ParseMethod(value string) (Method, bool) {
	normalized := Method(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case MethodExact, MethodExactRelaxed, MethodFuzzy, MethodManual:
		return normalized, true
	}
	return "", false
}

// Game is a catalog entry. Zero values stand in for unknown optional
// fields: Year 0 and empty Platform* strings mean "not recorded" and
// map to SQL NULL.
type Game struct {
	ID             int64
	Title          string
	TitleNorm      string
	Platform       string
	PlatformNorm   string
	PlatformFamily string
	Year           int
	Status         string
	Rating         float64
	SourceID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Result is a cached candidate-source response keyed by the query that
// produced it. The typed columns summarize the top candidate; RawJSON
// preserves the full candidate list for rescoring and audit.
type Result struct {
	ID        int64
	QueryKey  string
	Title     string
	Platforms []string
	Year      int
	Main      float64
	MainExtra float64
	Complete  float64
	Votes     int
	RawJSON   string
	FetchedAt time.Time
}

// Match is a confirmed game-to-result linkage. A game holds at most
// one match; re-matching overwrites it.
type Match struct {
	GameID     int64
	HLTBID     int64
	Confidence float64
	Method     Method
	DecidedBy  DecidedBy
	MatchedAt  time.Time
}

// ReviewCandidate is one entry of the ranked list serialized into a
// review queue row for an operator to inspect.
type ReviewCandidate struct {
	Title      string   `json:"title"`
	TitleNorm  string   `json:"title_norm"`
	Platforms  []string `json:"platforms,omitempty"`
	Year       int      `json:"year,omitempty"`
	Main       float64  `json:"main,omitempty"`
	MainExtra  float64  `json:"main_extra,omitempty"`
	Complete   float64  `json:"complete,omitempty"`
	Votes      int      `json:"votes,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
	Confidence float64  `json:"confidence"`
	Method     Method   `json:"method"`
}

// ReviewEntry is a pending human decision for one game.
type ReviewEntry struct {
	GameID     int64
	Candidates []ReviewCandidate
	CreatedAt  time.Time
}

// ReviewView joins a review entry with the game it belongs to for
// operator-facing listings.
type ReviewView struct {
	Entry ReviewEntry
	Game  Game
}

// Run is one pipeline execution record. FinishedAt is nil while the
// run is in flight and stays nil forever if the run failed.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      RunStats
}

// RunStats aggregates per-outcome counts for a run.
type RunStats struct {
	Matched    int            `json:"matched"`
	Queued     int            `json:"queued"`
	NoMatch    int            `json:"no_match"`
	Errored    int            `json:"errored"`
	Fetched    int            `json:"fetched"`
	Cached     int            `json:"cached"`
	ErrorKinds map[string]int `json:"error_kinds,omitempty"`
}

// Total returns the number of games the run touched.
func (s RunStats) Total() int {
	return s.Matched + s.Queued + s.NoMatch + s.Errored
}

// Stats aggregates catalog-wide counts for reporting.
type Stats struct {
	Games        int
	Matches      int
	Queue        int
	Unresolved   int
	CacheEntries int
	Methods      map[string]int
}

// ExportRow is one line of the enriched catalog export: a game joined
// with its match and cached durations, when present.
type ExportRow struct {
	Title      string
	Platform   string
	Year       int
	Status     string
	Rating     float64
	Main       float64
	MainExtra  float64
	Complete   float64
	Votes      int
	Confidence float64
	Method     string
	DecidedBy  string
}
