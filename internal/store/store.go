package store

import (
	"database/sql"

	"github.com/google/uuid"
)

// Store is the postgres-backed persistence for users, catalog and orders.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var newID = uuid.New

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
