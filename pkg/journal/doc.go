// Package journal records the history of retention runs.
//
// Every run stores the target, the anchor and policy it used, and the items
// it removed in removal order. The SQLite store works with either the cgo
// driver (github.com/mattn/go-sqlite3, "sqlite3") or the pure Go driver
// (modernc.org/sqlite, "sqlite"):
//
//	store, err := journal.NewSQLiteStore(&journal.SQLiteConfig{
//		Driver:      journal.DriverPure,
//		Path:        "data/thinout.db",
//		WALMode:     true,
//		BusyTimeout: 5 * time.Second,
//	})
package journal
