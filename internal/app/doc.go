// Package app composes the word puzzle backend into a running application.
//
// # Architecture Role
//
// The app package sits above storage and the game service and wires them
// together with lifecycle management. It carries no game rules itself -
// those live in internal/app/services/game.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, store defaulting, lifecycle
//	├── domain/game/        # Domain models (categories, puzzles, sessions)
//	├── storage/            # Store interfaces plus memory, postgres, redis
//	├── services/
//	│   ├── game/           # Daily generation, guess checking, categories
//	│   └── rotation/       # Cron-driven midnight pre-generation
//	├── httpapi/            # Public play API and admin API
//	├── metrics/            # Prometheus collectors
//	├── system/             # Background service manager
//	└── runtime/            # Config-driven assembly of all of the above
//
// # Responsibilities
//
//   - Defaulting absent stores to the in-memory implementation
//   - Wiring the game service with metrics and logging
//   - Registering background services and starting/stopping them as a group
//
// Dependency direction: cmd/server -> runtime -> app -> services -> storage.
// The HTTP layer depends on app but never the other way around.
package app
