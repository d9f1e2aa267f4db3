// Package hltb fetches play-time candidates from the HowLongToBeat
// search endpoint and shapes them for matching.
package hltb

import (
	"strconv"
	"strings"
)

// Query identifies one candidate-source lookup. Its Key is the cache
// identity: two games producing the same key share one fetched result.
type Query struct {
	TitleNorm string
	Year      int
	Family    string
}

// Key renders the query as "title|year|family". An unknown year
// renders as 0 and an unknown family as an empty segment, so the key
// stays stable and unambiguous.
func (q Query) Key() string {
	return strings.Join([]string{q.TitleNorm, strconv.Itoa(q.Year), q.Family}, "|")
}
