// Package database provides SQLite persistence for LugeRelay.
//
// It wraps database/sql with:
//   - Connection setup (WAL mode, busy timeout, foreign keys)
//   - Embedded schema migrations applied at startup
//   - Health checks for the /health endpoint
//
// The database stores the operator settings (timing defaults, total-time
// window, alignment offset, cue assets). Sequence runs themselves are not
// persisted.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
