// Package database provides SQLite connectivity shared by anything in the
// gateway that reads a local database file — currently the hvac adapter's
// downloaded Inspinia device template cache (internal/inspinia/template.go).
//
// This package manages:
//   - Database connection with optional WAL mode
//   - Connection pooling and lifecycle management
//   - Busy-timeout and foreign-key pragmas
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
