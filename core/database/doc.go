// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL or SQLite connections from the application's
// configuration. The database backs the optional snapshot store backend and the
// database quest source.
//
// # Connect
//
// Connect establishes and pings a connection. SQLite connections are limited to one
// open handle so in-memory databases survive across queries.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let a quest source verify that an upstream table
// carries the columns it reads before issuing a query.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "quests", []string{"id", "title"})
package database
