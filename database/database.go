package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mbolis/survey-desk/log"
)

// Open opens the SQLite3 database at path and brings its schema up to date.
// The caller owns the returned handle and must close it.
func Open(path string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(path))
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = db.Ping()
	if err != nil {
		db.Close()
		return
	}

	version, err := migrateDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.WithFields(log.Fields{"path": path, "version": version}).Debug("database schema up to date")

	return
}

// foreign keys and busy timeout are per connection in SQLite, so they go
// in the DSN rather than in a one-off PRAGMA
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
