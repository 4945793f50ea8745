package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is
// safe for concurrent use and is primarily intended for tests and local
// development, where running without Postgres should just work.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	categories    map[string]game.Category
	categoryOrder []string
	puzzles       map[string]game.Puzzle
	session       *game.Session
}

var _ storage.CategoryStore = (*Store)(nil)
var _ storage.PuzzleStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:     1,
		categories: make(map[string]game.Category),
		puzzles:    make(map[string]game.Puzzle),
	}
}

func (s *Store) nextIDLocked() string {
	id := fmt.Sprintf("%d", s.nextID)
	s.nextID++
	return id
}

// CategoryStore implementation -------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, category game.Category) (game.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = s.nextIDLocked()
	} else if _, exists := s.categories[category.ID]; exists {
		return game.Category{}, fmt.Errorf("category %s: %w", category.ID, storage.ErrConflict)
	}
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return game.Category{}, fmt.Errorf("category %q: %w", category.Name, storage.ErrConflict)
		}
	}

	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	s.categories[category.ID] = cloneCategory(category)
	s.categoryOrder = append(s.categoryOrder, category.ID)
	return cloneCategory(category), nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (game.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return game.Category{}, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	return cloneCategory(category), nil
}

// ListCategories returns categories in creation order so puzzle
// generation sees a stable sequence.
func (s *Store) ListCategories(ctx context.Context) ([]game.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]game.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		if category, ok := s.categories[id]; ok {
			result = append(result, cloneCategory(category))
		}
	}
	return result, nil
}

func (s *Store) AddWords(ctx context.Context, categoryID string, words []string) (game.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return game.Category{}, fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
	}
	category.Words = append(category.Words, words...)
	category.UpdatedAt = time.Now().UTC()
	s.categories[categoryID] = cloneCategory(category)
	return cloneCategory(category), nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	delete(s.categories, id)
	for i, existing := range s.categoryOrder {
		if existing == id {
			s.categoryOrder = append(s.categoryOrder[:i], s.categoryOrder[i+1:]...)
			break
		}
	}
	return nil
}

// PuzzleStore implementation ---------------------------------------------------

// SavePuzzle inserts or replaces the puzzle for its date.
func (s *Store) SavePuzzle(ctx context.Context, puzzle game.Puzzle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puzzles[puzzle.Date] = clonePuzzle(puzzle)
	return nil
}

func (s *Store) GetPuzzle(ctx context.Context, date string) (game.Puzzle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	puzzle, ok := s.puzzles[date]
	if !ok {
		return game.Puzzle{}, fmt.Errorf("puzzle %s: %w", date, storage.ErrNotFound)
	}
	return clonePuzzle(puzzle), nil
}

// SessionStore implementation --------------------------------------------------

func (s *Store) SaveSession(ctx context.Context, session game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	cloned := cloneSession(session)
	s.session = &cloned
	return nil
}

func (s *Store) LoadSession(ctx context.Context) (game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return game.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	return cloneSession(*s.session), nil
}

// ClearSession removes the session if present. Clearing an absent
// session is not an error.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

// Clone helpers ----------------------------------------------------------------

func cloneCategory(c game.Category) game.Category {
	out := c
	out.Words = append([]string(nil), c.Words...)
	return out
}

func clonePuzzle(p game.Puzzle) game.Puzzle {
	out := p
	out.Words = append([]string(nil), p.Words...)
	out.Categories = make([]game.PuzzleCategory, len(p.Categories))
	for i, cat := range p.Categories {
		out.Categories[i] = game.PuzzleCategory{
			Name:  cat.Name,
			Words: append([]string(nil), cat.Words...),
		}
	}
	return out
}

func cloneSession(s game.Session) game.Session {
	out := s
	out.Found = make([]game.FoundCategory, len(s.Found))
	for i, f := range s.Found {
		out.Found[i] = game.FoundCategory{
			Name:  f.Name,
			Words: append([]string(nil), f.Words...),
		}
	}
	return out
}
