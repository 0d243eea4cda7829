package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a FOR UPDATE row lock to the query so a balance read
// inside a transaction stays pinned until commit. SQLite has no FOR UPDATE
// syntax and serializes writers anyway, so the query is returned unchanged
// there.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
