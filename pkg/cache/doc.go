// Package cache persists the roster snapshot (team directory + aggregate set)
// to client-local storage and restores it on cold start.
//
// The Manager owns the snapshot semantics and delegates raw key/value access
// to a Backend:
//
//   - RedisBackend: shared Redis instance, keys expire after the freshness window
//   - SQLiteBackend: single-file local database (pure Go, modernc.org/sqlite)
//   - MemoryBackend: in-process map, used in tests and as a no-persistence mode
//
// # Key Layout
//
// Three keys under an optional namespace (default "mlb"):
//
//	mlb:players           JSON array of player records
//	mlb:teams             JSON array of teams
//	mlb:playersTimestamp  epoch milliseconds of the last save
//
// # Freshness
//
// A snapshot is served only when it is younger than MaxAge (24h) and holds at
// least MinPlayers (1000) records. Anything else is reported as ErrCacheMiss;
// unreadable snapshots are reported as ErrInvalidEntry.
//
// # Basic Usage
//
//	backend, err := cache.OpenSQLite("/var/lib/mlb/roster.db")
//	if err != nil {
//		return err
//	}
//	manager := cache.NewManager(backend, cache.DefaultConfig())
//
//	entry, err := manager.Load(ctx)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from upstream
//	}
//
//	_ = manager.Save(ctx, teams, players)
//
// # Metrics
//
//   - mlb_cache_hits_total{backend}
//   - mlb_cache_misses_total{reason}
//   - mlb_cache_errors_total{operation}
//   - mlb_cache_size_bytes{backend}
package cache
