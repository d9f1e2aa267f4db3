// Command backlog reconciles a personal game catalog against
// HowLongToBeat play-time data: import the catalog, run enrichment,
// review uncertain matches, and export the enriched result.
package main
