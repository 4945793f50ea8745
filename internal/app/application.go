package app

import (
	"context"
	"fmt"

	"github.com/TylMus/tylmus-backend/internal/app/metrics"
	gamesvc "github.com/TylMus/tylmus-backend/internal/app/services/game"
	"github.com/TylMus/tylmus-backend/internal/app/services/rotation"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
	"github.com/TylMus/tylmus-backend/internal/app/storage/memory"
	"github.com/TylMus/tylmus-backend/internal/app/system"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Categories storage.CategoryStore
	Puzzles    storage.PuzzleStore
	Sessions   storage.SessionStore
}

// Application ties the game service together and manages its lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Game    *gamesvc.Service
	Metrics *metrics.Metrics
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Categories == nil {
		stores.Categories = mem
	}
	if stores.Puzzles == nil {
		stores.Puzzles = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = mem
	}

	manager := system.NewManager()

	m := metrics.New()
	gameService := gamesvc.New(stores.Categories, stores.Puzzles, stores.Sessions, log).WithMetrics(m)

	if err := manager.Register(system.NoopService{ServiceName: "game"}); err != nil {
		return nil, fmt.Errorf("register game service: %w", err)
	}

	return &Application{
		manager: manager,
		log:     log,
		Game:    gameService,
		Metrics: m,
	}, nil
}

// EnableRotation registers the midnight rotation service. Call before Start.
func (a *Application) EnableRotation(schedule string) error {
	return a.manager.Register(rotation.New(a.Game, schedule, a.log))
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
