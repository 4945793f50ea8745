// Package game holds the domain model for the daily word association
// puzzle: administered categories, the generated daily puzzle and the
// shared play session.
package game

import "time"

// Puzzle sources. Database puzzles come from administered categories;
// fallback puzzles come from the built-in set used when the category
// pool is too small.
const (
	SourceDatabase = "db"
	SourceFallback = "fallback"
)

// Category is an administered word group. Word order is insertion order
// and decides which four words enter a puzzle.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Words     []string  `json:"words"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PuzzleCategory is one solution group of a generated puzzle.
type PuzzleCategory struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// Puzzle is one day's board: four solution groups plus their sixteen
// words in display order. Date is the UTC day key (YYYY-MM-DD).
type Puzzle struct {
	Date        string           `json:"date"`
	Categories  []PuzzleCategory `json:"categories"`
	Words       []string         `json:"words"`
	Source      string           `json:"source"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// FoundCategory records one solved group within a session, keeping the
// words as the player submitted them.
type FoundCategory struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// Session is the shared play state for one day's puzzle.
type Session struct {
	Date      string          `json:"date"`
	Found     []FoundCategory `json:"found_categories"`
	UpdatedAt time.Time       `json:"updated_at"`
}
