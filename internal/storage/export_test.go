package storage

import "database/sql"

// DB exposes the internal *sql.DB for tests in storage_test.
func (s *Store) DB() *sql.DB {
	return s.db
}
