// Package config defines the configuration structure for corofiberd.
//
// Configuration is organized into logical sections (Fiber, Daemon, Log),
// loaded from a YAML file via github.com/spf13/viper with environment
// variable overrides, and defaulted with github.com/creasty/defaults
// before use.
//
// # Configuration Structure
//
//	Configuration
//	├── Fiber  - core scheduler/fiber tuning
//	├── Daemon - daemon-mode supervisor behavior
//	└── Log    - logging verbosity and encoding
//
// # Fiber Configuration
//
//	┌─────────────┬─────────┬──────────────────────────────────────────┐
//	│ Field       │ Default │ Description                              │
//	├─────────────┼─────────┼──────────────────────────────────────────┤
//	│ StackSize   │ 0       │ Stack size in bytes passed to every       │
//	│             │         │ fiber.Create the core makes (0 = fiber's  │
//	│             │         │ DefaultStackSize); see Scheduler.SetStack │
//	│             │         │ Size                                      │
//	│ Workers     │ 4       │ Number of scheduler worker threads        │
//	│ UseCaller   │ false   │ Allocate a thread-root fiber handle       │
//	│             │         │ (Scheduler.GetMainFiber)                  │
//	└─────────────┴─────────┴──────────────────────────────────────────┘
//
// # Daemon Configuration
//
//	┌──────────────────┬─────────┬─────────────────────────────────────┐
//	│ Field            │ Default │ Description                         │
//	├──────────────────┼─────────┼─────────────────────────────────────┤
//	│ RestartInterval  │ 1s      │ Constant backoff between respawns    │
//	└──────────────────┴─────────┴─────────────────────────────────────┘
//
// # Log Configuration
//
//	┌────────┬─────────┬────────────────────────────────────────────────┐
//	│ Field  │ Default │ Description                                    │
//	├────────┼─────────┼────────────────────────────────────────────────┤
//	│ Level  │ "info"  │ zap level name (debug/info/warn/error)         │
//	│ Format │ "json"  │ "json" (production) or "console" (development) │
//	└────────┴─────────┴────────────────────────────────────────────────┘
package config
