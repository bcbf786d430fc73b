// Package repository is the narrow CRUD layer over SQLite. Repositories
// hold no business rules; they translate rows to models and sql.ErrNoRows
// to ErrNotFound. Write methods accept an optional *sql.Tx so the order
// aggregate can group them under one transaction.
package repository

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when an entity id does not exist. Callers map it
// to a 404; it must never leak as a raw storage error.
var ErrNotFound = errors.New("record not found")

// ErrClientInUse rejects deleting a client that is still referenced by an
// order.
var ErrClientInUse = errors.New("client is referenced by an order")

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) dbtx {
	if tx != nil {
		return tx
	}
	return db
}
