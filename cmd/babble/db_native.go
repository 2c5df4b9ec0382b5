//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

// scratchDSN disables syncing; the scratch database is deleted on exit.
func scratchDSN(path string) string {
	return path + "?_pragma=journal_mode(OFF)&_pragma=synchronous(OFF)"
}

func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open(sqliteDriver, dataSource)
}
