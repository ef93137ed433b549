package scope

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// ForUpdate takes a row lock on dialects that support it. SQLite has no row
// locks and serializes writers on its own.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if !SupportsRowLocks(db) {
		return db
	}
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

func SupportsRowLocks(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}
