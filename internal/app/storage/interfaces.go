// Package storage defines persistence interfaces for the game backend.
// Implementations live in subpackages (memory, postgres, redis); the
// application wires them behind these interfaces so services never know
// which backend they run on.
package storage

import (
	"context"
	"errors"

	"github.com/TylMus/tylmus-backend/internal/app/domain/game"
)

// ErrNotFound is returned when a requested record does not exist.
// Backends map their native miss (sql.ErrNoRows, redis.Nil) onto it so
// callers can branch with errors.Is regardless of backend.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint is violated,
// such as creating a second category with the same name.
var ErrConflict = errors.New("already exists")

// CategoryStore persists administered word categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category game.Category) (game.Category, error)
	GetCategory(ctx context.Context, id string) (game.Category, error)
	ListCategories(ctx context.Context) ([]game.Category, error)
	AddWords(ctx context.Context, categoryID string, words []string) (game.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// PuzzleStore persists generated daily puzzles keyed by UTC date.
type PuzzleStore interface {
	SavePuzzle(ctx context.Context, puzzle game.Puzzle) error
	GetPuzzle(ctx context.Context, date string) (game.Puzzle, error)
}

// SessionStore persists the single shared daily play session.
type SessionStore interface {
	SaveSession(ctx context.Context, session game.Session) error
	LoadSession(ctx context.Context) (game.Session, error)
	ClearSession(ctx context.Context) error
}
