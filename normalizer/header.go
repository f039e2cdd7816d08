package normalizer

import (
	"fmt"
	"strings"

	"github.com/giygas/nitrosamine-monitor/entities"
)

// DefaultScanRows bounds how many leading rows are scored as header candidates.
const DefaultScanRows = 30

// HeaderKeywords is the vocabulary that marks a header row.
var HeaderKeywords = []string{
	"nitrosamine", "limit", "intake", "substance", "ng/day", "iupac",
	"impurity", "structure", "cas", "source", "ai (ng/day)",
}

// ScoreRow counts the keywords found in the row's non-empty cells.
func ScoreRow(row []entities.Cell, keywords []string) int {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c.Valid && strings.TrimSpace(c.Value) != "" {
			parts = append(parts, strings.ToLower(c.Value))
		}
	}
	text := strings.Join(parts, " ")

	score := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			score++
		}
	}
	return score
}

// FindHeaderRow returns the index and score of the best-scoring row among the
// first scanRows rows. Ties keep the lowest index; with no hit it returns 0.
func FindHeaderRow(grid [][]entities.Cell, keywords []string, scanRows int) (index, score int) {
	if scanRows <= 0 || scanRows > len(grid) {
		scanRows = len(grid)
	}
	for i := 0; i < scanRows; i++ {
		if s := ScoreRow(grid[i], keywords); s > score {
			index, score = i, s
		}
	}
	return index, score
}

// CleanHeader trims a column name and flattens embedded newlines.
func CleanHeader(name string) string {
	name = strings.ReplaceAll(name, "\r\n", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	return strings.TrimSpace(name)
}

// DedupeHeaders cleans names, defaults blanks to Unnamed_<index> and
// suffixes repeats with _1, _2, ... so every name is unique.
func DedupeHeaders(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		base := CleanHeader(n)
		if base == "" {
			base = fmt.Sprintf("Unnamed_%d", i)
		}
		candidate := base
		for count := 1; seen[candidate]; count++ {
			candidate = fmt.Sprintf("%s_%d", base, count)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

// HeaderFromCells turns a grid row into header names.
func HeaderFromCells(row []entities.Cell) []string {
	names := make([]string, len(row))
	for i, c := range row {
		names[i] = c.Or("")
	}
	return names
}

// RepairRow pads a short row with missing cells or truncates a long one.
func RepairRow(row []entities.Cell, width int) []entities.Cell {
	if len(row) == width {
		return row
	}
	if len(row) > width {
		return row[:width]
	}
	out := make([]entities.Cell, width)
	copy(out, row)
	for i := len(row); i < width; i++ {
		out[i] = entities.Missing()
	}
	return out
}

func blankRow(row []entities.Cell) bool {
	for _, c := range row {
		if c.Valid && strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}
