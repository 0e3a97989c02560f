package store

import "database/sql"

// Execer is satisfied by both *sql.DB and *sql.Tx, so delta-apply helpers
// (nodes.go, supertags.go, fts.go) can run inside a caller-managed
// transaction or standalone, without duplicating their logic.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Queryer is the read-side counterpart of Execer.
type Queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Tx runs fn inside a transaction on s's database, committing on success
// and rolling back on any error fn returns or panics with. The caller
// must already hold s's write lock (see Store.Lock) for the duration.
func (s *Store) Tx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
