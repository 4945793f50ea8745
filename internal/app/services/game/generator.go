package game

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"strconv"
	"time"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

const (
	categoriesPerPuzzle = 4
	wordsPerCategory    = 4
)

// fallbackSet is the built-in puzzle used when the administered pool
// has fewer than four playable categories. It keeps the game playable
// on an empty or unreachable database.
var fallbackSet = []domain.PuzzleCategory{
	{Name: "Фрукты", Words: []string{"Яблоко", "Банан", "Апельсин", "Виноград"}},
	{Name: "Животные", Words: []string{"Кошка", "Собака", "Лошадь", "Корова"}},
	{Name: "Цвета", Words: []string{"Красный", "Синий", "Зеленый", "Желтый"}},
	{Name: "Города", Words: []string{"Москва", "Париж", "Лондон", "Токио"}},
}

// Generator builds daily puzzles. Selection and board order are seeded
// from the date key, so the same date and category pool always produce
// the same puzzle on every replica.
type Generator struct {
	categories storage.CategoryStore
	log        *logger.Logger
}

// NewGenerator creates a Generator reading from the given category store.
func NewGenerator(categories storage.CategoryStore, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewDefault("puzzle-generator")
	}
	return &Generator{categories: categories, log: log}
}

// DateKey formats a moment as its UTC day key.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Playable reports whether a category has enough words to field a full
// solution group.
func Playable(c domain.Category) bool {
	return len(c.Words) >= wordsPerCategory
}

// dateSeed derives the PRNG seed from the first eight hex digits of the
// date key's MD5. MD5 is used as a stable hash here, not for security.
func dateSeed(dateKey string) int64 {
	sum := md5.Sum([]byte(dateKey))
	v, _ := strconv.ParseUint(hex.EncodeToString(sum[:4]), 16, 64)
	return int64(v)
}

// Generate builds the puzzle for the given date key. Four categories
// with at least four words each are drawn from the store; their first
// four words become the solution groups and the combined sixteen words
// are shuffled into board order. When the pool is too small or the
// store fails, the fallback set is used instead.
func (g *Generator) Generate(ctx context.Context, dateKey string) domain.Puzzle {
	rng := rand.New(rand.NewSource(dateSeed(dateKey)))

	pool, err := g.playableCategories(ctx)
	if err != nil {
		g.log.WithError(err).WithField("date", dateKey).Warn("category pool unavailable, using fallback set")
		pool = nil
	}

	var (
		selected []domain.PuzzleCategory
		source   string
	)
	if len(pool) >= categoriesPerPuzzle {
		selected = sampleCategories(rng, pool)
		source = domain.SourceDatabase
	} else {
		selected = cloneGroups(fallbackSet)
		source = domain.SourceFallback
	}

	words := make([]string, 0, categoriesPerPuzzle*wordsPerCategory)
	for _, cat := range selected {
		words = append(words, cat.Words...)
	}
	rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	return domain.Puzzle{
		Date:        dateKey,
		Categories:  selected,
		Words:       words,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
	}
}

// playableCategories returns the administered categories that can field
// a full group, trimmed to their first four words in stored order.
func (g *Generator) playableCategories(ctx context.Context) ([]domain.PuzzleCategory, error) {
	categories, err := g.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	pool := make([]domain.PuzzleCategory, 0, len(categories))
	for _, cat := range categories {
		if len(cat.Words) < wordsPerCategory {
			continue
		}
		pool = append(pool, domain.PuzzleCategory{
			Name:  cat.Name,
			Words: append([]string(nil), cat.Words[:wordsPerCategory]...),
		})
	}
	return pool, nil
}

func sampleCategories(rng *rand.Rand, pool []domain.PuzzleCategory) []domain.PuzzleCategory {
	selected := make([]domain.PuzzleCategory, 0, categoriesPerPuzzle)
	for _, idx := range rng.Perm(len(pool))[:categoriesPerPuzzle] {
		selected = append(selected, pool[idx])
	}
	return selected
}

func cloneGroups(groups []domain.PuzzleCategory) []domain.PuzzleCategory {
	out := make([]domain.PuzzleCategory, len(groups))
	for i, g := range groups {
		out[i] = domain.PuzzleCategory{
			Name:  g.Name,
			Words: append([]string(nil), g.Words...),
		}
	}
	return out
}
