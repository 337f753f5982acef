package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller did not supply one. Ids are
// generated client side so the same models work against Postgres and SQLite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
