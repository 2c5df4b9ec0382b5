//go:build cgo_sqlite

package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteDriver = "sqlite3"

// scratchDSN disables syncing; the scratch database is deleted on exit.
func scratchDSN(path string) string {
	return path + "?_journal_mode=OFF&_synchronous=OFF"
}

func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open(sqliteDriver, dataSource)
}
