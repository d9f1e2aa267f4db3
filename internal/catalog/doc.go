// Package catalog owns all persisted state: the games catalog, the
// HowLongToBeat result cache, confirmed matches, the manual review
// queue, and pipeline run records, all backed by SQLite.
//
// Invariants enforced here rather than by schema triggers:
//   - tiered game uniqueness (the most specific available
//     title/platform/year key must be unique),
//   - match/review mutual exclusion per game,
//   - monotonically non-decreasing row timestamps.
//
// Every multi-row effect happens inside a single transaction.
package catalog
