package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
)

// sessionID keys the single shared daily session row.
const sessionID = "daily"

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.CategoryStore = (*Store)(nil)
var _ storage.PuzzleStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type categoryRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type wordRow struct {
	CategoryID string `db:"category_id"`
	Word       string `db:"word"`
}

type puzzleRow struct {
	DateKey     string    `db:"date_key"`
	Source      string    `db:"source"`
	Words       []byte    `db:"words"`
	Categories  []byte    `db:"categories"`
	GeneratedAt time.Time `db:"generated_at"`
}

type sessionRow struct {
	ID        string    `db:"id"`
	DateKey   string    `db:"date_key"`
	Found     []byte    `db:"found"`
	UpdatedAt time.Time `db:"updated_at"`
}

// --- CategoryStore ----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, category game.Category) (game.Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return game.Category{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, category.ID, category.Name, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return game.Category{}, fmt.Errorf("category %q: %w", category.Name, storage.ErrConflict)
		}
		return game.Category{}, err
	}

	if err := insertWords(ctx, tx, category.ID, 0, category.Words); err != nil {
		return game.Category{}, err
	}

	if err := tx.Commit(); err != nil {
		return game.Category{}, err
	}
	return category, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (game.Category, error) {
	var row categoryRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, created_at, updated_at
		FROM game_categories
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Category{}, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return game.Category{}, err
	}

	var words []string
	err = s.db.SelectContext(ctx, &words, `
		SELECT word
		FROM game_words
		WHERE category_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return game.Category{}, err
	}

	return categoryFromRow(row, words), nil
}

// ListCategories returns categories in creation order with their words
// in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]game.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, created_at, updated_at
		FROM game_categories
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}

	var words []wordRow
	err = s.db.SelectContext(ctx, &words, `
		SELECT category_id, word
		FROM game_words
		ORDER BY category_id, position
	`)
	if err != nil {
		return nil, err
	}

	wordsByCategory := make(map[string][]string, len(rows))
	for _, w := range words {
		wordsByCategory[w.CategoryID] = append(wordsByCategory[w.CategoryID], w.Word)
	}

	result := make([]game.Category, 0, len(rows))
	for _, row := range rows {
		result = append(result, categoryFromRow(row, wordsByCategory[row.ID]))
	}
	return result, nil
}

func (s *Store) AddWords(ctx context.Context, categoryID string, words []string) (game.Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return game.Category{}, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE game_categories SET updated_at = $2 WHERE id = $1
	`, categoryID, time.Now().UTC())
	if err != nil {
		return game.Category{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return game.Category{}, fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
	}

	var next int
	err = tx.GetContext(ctx, &next, `
		SELECT COALESCE(MAX(position), -1) + 1
		FROM game_words
		WHERE category_id = $1
	`, categoryID)
	if err != nil {
		return game.Category{}, err
	}

	if err := insertWords(ctx, tx, categoryID, next, words); err != nil {
		return game.Category{}, err
	}

	if err := tx.Commit(); err != nil {
		return game.Category{}, err
	}
	return s.GetCategory(ctx, categoryID)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM game_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- PuzzleStore ------------------------------------------------------------

// SavePuzzle inserts or replaces the puzzle for its date.
func (s *Store) SavePuzzle(ctx context.Context, puzzle game.Puzzle) error {
	wordsJSON, err := json.Marshal(puzzle.Words)
	if err != nil {
		return err
	}
	categoriesJSON, err := json.Marshal(puzzle.Categories)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_puzzles (date_key, source, words, categories, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date_key) DO UPDATE SET
			source = EXCLUDED.source,
			words = EXCLUDED.words,
			categories = EXCLUDED.categories,
			generated_at = EXCLUDED.generated_at
	`, puzzle.Date, puzzle.Source, wordsJSON, categoriesJSON, puzzle.GeneratedAt)
	return err
}

func (s *Store) GetPuzzle(ctx context.Context, date string) (game.Puzzle, error) {
	var row puzzleRow
	err := s.db.GetContext(ctx, &row, `
		SELECT date_key, source, words, categories, generated_at
		FROM game_puzzles
		WHERE date_key = $1
	`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Puzzle{}, fmt.Errorf("puzzle %s: %w", date, storage.ErrNotFound)
	}
	if err != nil {
		return game.Puzzle{}, err
	}

	puzzle := game.Puzzle{
		Date:        row.DateKey,
		Source:      row.Source,
		GeneratedAt: row.GeneratedAt.UTC(),
	}
	if len(row.Words) > 0 {
		_ = json.Unmarshal(row.Words, &puzzle.Words)
	}
	if len(row.Categories) > 0 {
		_ = json.Unmarshal(row.Categories, &puzzle.Categories)
	}
	return puzzle, nil
}

// --- SessionStore -----------------------------------------------------------

func (s *Store) SaveSession(ctx context.Context, session game.Session) error {
	foundJSON, err := json.Marshal(session.Found)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, date_key, found, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			date_key = EXCLUDED.date_key,
			found = EXCLUDED.found,
			updated_at = EXCLUDED.updated_at
	`, sessionID, session.Date, foundJSON, time.Now().UTC())
	return err
}

func (s *Store) LoadSession(ctx context.Context) (game.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, date_key, found, updated_at
		FROM game_sessions
		WHERE id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	if err != nil {
		return game.Session{}, err
	}

	session := game.Session{
		Date:      row.DateKey,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if len(row.Found) > 0 {
		_ = json.Unmarshal(row.Found, &session.Found)
	}
	return session, nil
}

// ClearSession removes the session row. Clearing an absent session is
// not an error.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = $1`, sessionID)
	return err
}

// --- helpers ----------------------------------------------------------------

func insertWords(ctx context.Context, tx *sqlx.Tx, categoryID string, startPosition int, words []string) error {
	now := time.Now().UTC()
	for i, word := range words {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO game_words (id, category_id, word, position, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), categoryID, word, startPosition+i, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func categoryFromRow(row categoryRow, words []string) game.Category {
	return game.Category{
		ID:        row.ID,
		Name:      row.Name,
		Words:     words,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
