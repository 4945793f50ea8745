// Package testutil provides shared helpers and mock stores for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
)

// MustTime parses an RFC3339 timestamp or fails the test.
func MustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

// SeedCategories creates n numbered categories with four words each and
// returns them in creation order.
func SeedCategories(t *testing.T, ctx context.Context, store storage.CategoryStore, n int) []domain.Category {
	t.Helper()
	created := make([]domain.Category, 0, n)
	for i := 1; i <= n; i++ {
		words := make([]string, 0, 4)
		for j := 1; j <= 4; j++ {
			words = append(words, fmt.Sprintf("Слово %d-%d", i, j))
		}
		cat, err := store.CreateCategory(ctx, domain.Category{
			Name:  fmt.Sprintf("Категория %d", i),
			Words: words,
		})
		if err != nil {
			t.Fatalf("seed category %d: %v", i, err)
		}
		created = append(created, cat)
	}
	return created
}

// FailingCategoryStore returns its error from every method. Useful for
// exercising fallback paths.
type FailingCategoryStore struct {
	Err error
}

var _ storage.CategoryStore = (*FailingCategoryStore)(nil)

func (s *FailingCategoryStore) CreateCategory(context.Context, domain.Category) (domain.Category, error) {
	return domain.Category{}, s.Err
}

func (s *FailingCategoryStore) GetCategory(context.Context, string) (domain.Category, error) {
	return domain.Category{}, s.Err
}

func (s *FailingCategoryStore) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, s.Err
}

func (s *FailingCategoryStore) AddWords(context.Context, string, []string) (domain.Category, error) {
	return domain.Category{}, s.Err
}

func (s *FailingCategoryStore) DeleteCategory(context.Context, string) error {
	return s.Err
}
