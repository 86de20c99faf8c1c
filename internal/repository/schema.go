package repository

import (
	"context"
	"fmt"
	"strings"
)

var ddl = map[Dialect]string{
	Postgres: `
CREATE TABLE IF NOT EXISTS extract_jobs (
	id            UUID PRIMARY KEY,
	request_id    TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL,
	format        TEXT NOT NULL,
	status        TEXT NOT NULL,
	method        TEXT NOT NULL DEFAULT '',
	label         TEXT NOT NULL DEFAULT '',
	score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	pages         INTEGER NOT NULL DEFAULT 0,
	text          TEXT NOT NULL DEFAULT '',
	warnings      TEXT NOT NULL DEFAULT '[]',
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS extract_jobs_started_at_idx ON extract_jobs (started_at DESC);`,
	SQLite: `
CREATE TABLE IF NOT EXISTS extract_jobs (
	id            TEXT PRIMARY KEY,
	request_id    TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL,
	format        TEXT NOT NULL,
	status        TEXT NOT NULL,
	method        TEXT NOT NULL DEFAULT '',
	label         TEXT NOT NULL DEFAULT '',
	score         REAL NOT NULL DEFAULT 0,
	pages         INTEGER NOT NULL DEFAULT 0,
	text          TEXT NOT NULL DEFAULT '',
	warnings      TEXT NOT NULL DEFAULT '[]',
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS extract_jobs_started_at_idx ON extract_jobs (started_at DESC);`,
}

func (db *DB) migrate(ctx context.Context) error {
	stmt, ok := ddl[db.Dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.Dialect)
	}
	for _, q := range strings.Split(stmt, ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.SQL.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create extract_jobs: %w", err)
		}
	}
	return nil
}
