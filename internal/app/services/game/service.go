// Package game implements the daily puzzle rules: lazy per-day
// generation, selection checking against the shared session and the
// category administration used by the admin API.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/metrics"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

// Sentinel errors returned by the service.
var (
	ErrNoGame        = errors.New("game not found")
	ErrNameRequired  = errors.New("category name is required")
	ErrWordsRequired = errors.New("at least one word is required")
)

// Player-facing messages. The frontend shows these verbatim, so the
// wording is part of the API contract.
const (
	MsgGameNotFound    = "Игра не найдена"
	MsgSelectFourWords = "Выберите ровно 4 слова"
	MsgNotACategory    = "Эти слова не образуют категорию"
)

// GuessResult is the outcome of one selection check.
type GuessResult struct {
	Valid        bool
	CategoryName string
	Remaining    int
	GameComplete bool
	Message      string
}

// Status summarizes progress on the current day's puzzle.
type Status struct {
	Found     []domain.FoundCategory
	Total     int
	Remaining int
	GameDate  time.Time
}

// DailyInfo reports where the shared session stands relative to today.
type DailyInfo struct {
	Today           string
	CurrentGameDate string
	IsNewDay        bool
	GameComplete    bool
	FoundCount      int
}

// Service coordinates puzzle generation, the shared session and
// category administration.
type Service struct {
	categories storage.CategoryStore
	puzzles    storage.PuzzleStore
	sessions   storage.SessionStore
	generator  *Generator
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// New constructs a game service.
func New(categories storage.CategoryStore, puzzles storage.PuzzleStore, sessions storage.SessionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("game")
	}
	return &Service{
		categories: categories,
		puzzles:    puzzles,
		sessions:   sessions,
		generator:  NewGenerator(categories, log),
		log:        log,
	}
}

// WithMetrics attaches game counters. Call before serving traffic.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Daily returns the puzzle and session for now's UTC day. A missing
// puzzle is generated and persisted; a missing or stale session is
// replaced with a fresh one, which is how the day rollover happens.
func (s *Service) Daily(ctx context.Context, now time.Time) (domain.Puzzle, domain.Session, error) {
	dateKey := DateKey(now)

	puzzle, err := s.puzzles.GetPuzzle(ctx, dateKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		puzzle = s.generator.Generate(ctx, dateKey)
		if err := s.puzzles.SavePuzzle(ctx, puzzle); err != nil {
			return domain.Puzzle{}, domain.Session{}, fmt.Errorf("save puzzle: %w", err)
		}
		s.log.WithField("date", dateKey).WithField("source", puzzle.Source).Info("daily puzzle generated")
		if s.metrics != nil {
			s.metrics.RecordPuzzleGenerated(puzzle.Source)
		}
	case err != nil:
		return domain.Puzzle{}, domain.Session{}, err
	}

	session, err := s.sessions.LoadSession(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound), err == nil && session.Date != dateKey:
		session = domain.Session{Date: dateKey}
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return domain.Puzzle{}, domain.Session{}, fmt.Errorf("save session: %w", err)
		}
		s.log.WithField("date", dateKey).Info("session reset")
	case err != nil:
		return domain.Puzzle{}, domain.Session{}, err
	}

	return puzzle, session, nil
}

// CheckSelection validates a guess against today's puzzle. It returns
// ErrNoGame when no puzzle or session exists for today; the caller is
// expected to fetch the game first.
func (s *Service) CheckSelection(ctx context.Context, now time.Time, selected []string) (GuessResult, error) {
	dateKey := DateKey(now)

	puzzle, err := s.puzzles.GetPuzzle(ctx, dateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return GuessResult{}, ErrNoGame
	}
	if err != nil {
		return GuessResult{}, err
	}

	session, err := s.sessions.LoadSession(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return GuessResult{}, ErrNoGame
	}
	if err != nil {
		return GuessResult{}, err
	}
	if session.Date != dateKey {
		return GuessResult{}, ErrNoGame
	}

	if len(selected) != categoriesPerPuzzle {
		s.recordGuess("rejected")
		return GuessResult{Valid: false, Message: MsgSelectFourWords}, nil
	}

	matched := matchCategory(puzzle.Categories, selected)
	if matched == nil {
		s.recordGuess("miss")
		return GuessResult{Valid: false, Message: MsgNotACategory}, nil
	}

	// Re-submitting an already solved group succeeds without growing
	// the found list, so refreshing clients cannot double-count.
	if !hasFound(session, matched.Name) {
		session.Found = append(session.Found, domain.FoundCategory{
			Name:  matched.Name,
			Words: append([]string(nil), selected...),
		})
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return GuessResult{}, fmt.Errorf("save session: %w", err)
		}
	}

	remaining := len(puzzle.Categories) - len(session.Found)
	result := GuessResult{
		Valid:        true,
		CategoryName: matched.Name,
		Remaining:    remaining,
		GameComplete: remaining == 0,
	}
	s.recordGuess("hit")
	if result.GameComplete {
		s.log.WithField("date", dateKey).Info("daily puzzle completed")
		if s.metrics != nil {
			s.metrics.RecordGameCompleted()
		}
	}
	return result, nil
}

// Status reports progress on today's puzzle, or ErrNoGame when nothing
// has been started today.
func (s *Service) Status(ctx context.Context, now time.Time) (Status, error) {
	dateKey := DateKey(now)

	puzzle, err := s.puzzles.GetPuzzle(ctx, dateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Status{}, ErrNoGame
	}
	if err != nil {
		return Status{}, err
	}

	session, err := s.sessions.LoadSession(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return Status{}, ErrNoGame
	}
	if err != nil {
		return Status{}, err
	}
	if session.Date != dateKey {
		return Status{}, ErrNoGame
	}

	return Status{
		Found:     session.Found,
		Total:     len(puzzle.Categories),
		Remaining: len(puzzle.Categories) - len(session.Found),
		GameDate:  puzzle.GeneratedAt,
	}, nil
}

// Info reports daily rollover state. It never requires an existing
// session; an absent one simply reads as a fresh day.
func (s *Service) Info(ctx context.Context, now time.Time) (DailyInfo, error) {
	dateKey := DateKey(now)

	session, err := s.sessions.LoadSession(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return DailyInfo{Today: dateKey, IsNewDay: true}, nil
	}
	if err != nil {
		return DailyInfo{}, err
	}

	return DailyInfo{
		Today:           dateKey,
		CurrentGameDate: session.Date,
		IsNewDay:        session.Date != dateKey,
		GameComplete:    len(session.Found) == categoriesPerPuzzle,
		FoundCount:      len(session.Found),
	}, nil
}

// Regenerate rebuilds the puzzle for the day containing now from the
// current category pool. The session is reset only when it points at
// that day, so regenerating a past date leaves live progress alone.
// Used by admins after editing categories mid-day.
func (s *Service) Regenerate(ctx context.Context, now time.Time) (domain.Puzzle, error) {
	dateKey := DateKey(now)

	puzzle := s.generator.Generate(ctx, dateKey)
	if err := s.puzzles.SavePuzzle(ctx, puzzle); err != nil {
		return domain.Puzzle{}, fmt.Errorf("save puzzle: %w", err)
	}

	session, err := s.sessions.LoadSession(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Nothing to reset.
	case err != nil:
		return domain.Puzzle{}, err
	case session.Date == dateKey:
		if err := s.sessions.SaveSession(ctx, domain.Session{Date: dateKey}); err != nil {
			return domain.Puzzle{}, fmt.Errorf("save session: %w", err)
		}
	}

	s.log.WithField("date", dateKey).WithField("source", puzzle.Source).Info("daily puzzle regenerated")
	if s.metrics != nil {
		s.metrics.RecordPuzzleGenerated(puzzle.Source)
	}
	return puzzle, nil
}

// Category administration ------------------------------------------------------

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, name string, words []string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, ErrNameRequired
	}

	created, err := s.categories.CreateCategory(ctx, domain.Category{
		Name:  name,
		Words: trimWords(words),
	})
	if err != nil {
		return domain.Category{}, err
	}

	s.log.WithField("category_id", created.ID).WithField("name", created.Name).Info("category created")
	return created, nil
}

// AddWords appends words to an existing category.
func (s *Service) AddWords(ctx context.Context, categoryID string, words []string) (domain.Category, error) {
	words = trimWords(words)
	if len(words) == 0 {
		return domain.Category{}, ErrWordsRequired
	}

	updated, err := s.categories.AddWords(ctx, categoryID, words)
	if err != nil {
		return domain.Category{}, err
	}

	s.log.WithField("category_id", categoryID).WithField("added", len(words)).Info("words added")
	return updated, nil
}

// ListCategories returns all administered categories.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListCategories(ctx)
}

// DeleteCategory removes a category and its words.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.WithField("category_id", id).Info("category deleted")
	return nil
}

// helpers ----------------------------------------------------------------------

func (s *Service) recordGuess(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordGuess(outcome)
	}
}

// matchCategory returns the puzzle group whose words equal the
// selection as a set. Order does not matter; spelling and case do.
func matchCategory(groups []domain.PuzzleCategory, selected []string) *domain.PuzzleCategory {
	selectedSet := make(map[string]struct{}, len(selected))
	for _, w := range selected {
		selectedSet[w] = struct{}{}
	}

	for i := range groups {
		if len(selectedSet) != len(groups[i].Words) {
			continue
		}
		match := true
		for _, w := range groups[i].Words {
			if _, ok := selectedSet[w]; !ok {
				match = false
				break
			}
		}
		if match {
			return &groups[i]
		}
	}
	return nil
}

func hasFound(session domain.Session, name string) bool {
	for _, f := range session.Found {
		if f.Name == name {
			return true
		}
	}
	return false
}

func trimWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if trimmed := strings.TrimSpace(w); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
