package main

import (
	"fmt"
	"strconv"

	"backlog/internal/catalog"
	"backlog/internal/hltb"
)

func queryKeyFor(game *catalog.Game) string {
	return hltb.Query{
		TitleNorm: game.TitleNorm,
		Year:      game.Year,
		Family:    game.PlatformFamily,
	}.Key()
}

func formatYear(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func formatHours(hours float64) string {
	if hours == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fh", hours)
}
