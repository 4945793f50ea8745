package rotation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
)

type countingPreparer struct {
	calls atomic.Int64
}

func (p *countingPreparer) Daily(ctx context.Context, now time.Time) (domain.Puzzle, domain.Session, error) {
	p.calls.Add(1)
	dateKey := now.UTC().Format("2006-01-02")
	return domain.Puzzle{Date: dateKey, Source: domain.SourceFallback}, domain.Session{Date: dateKey}, nil
}

func TestRotatorWarmsPuzzleOnStart(t *testing.T) {
	preparer := &countingPreparer{}
	rot := New(preparer, "", nil)

	if rot.Name() != "daily-rotation" {
		t.Errorf("Name = %q", rot.Name())
	}

	if err := rot.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for preparer.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("startup rotation never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := rot.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestRotatorStartIsIdempotent(t *testing.T) {
	preparer := &countingPreparer{}
	rot := New(preparer, "", nil)

	if err := rot.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rot.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	defer rot.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for preparer.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("startup rotation never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := preparer.calls.Load(); got != 1 {
		t.Errorf("startup rotations = %d, want 1", got)
	}
}

func TestRotatorRejectsBadSchedule(t *testing.T) {
	rot := New(&countingPreparer{}, "not a cron spec", nil)
	if err := rot.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRotatorStopWithoutStart(t *testing.T) {
	rot := New(&countingPreparer{}, "", nil)
	if err := rot.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
}
