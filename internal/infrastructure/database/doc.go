// Package database provides SQLite database connectivity for Driftline.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded SQL schema migrations
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/driftline.db", WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files live in the top-level migrations package and are
// embedded into the binary. Each migration has both .up.sql and
// .down.sql files named YYYYMMDD_HHMMSS_description.{up,down}.sql.
package database
