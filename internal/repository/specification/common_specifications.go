package specification

import (
	"fmt"

	"subshare-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByIDs filters by a list of IDs
type ByIDs struct {
	IDs []uuid.UUID
}

func (s ByIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id IN ?", s.IDs)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

// FilterBy Generic Filter
type FilterBy struct {
	Field string
	Value interface{}
}

func (s FilterBy) Apply(db *gorm.DB) *gorm.DB {
	query := fmt.Sprintf("%s = ?", s.Field)
	return db.Where(query, s.Value)
}

func Filter(field string, value interface{}) Specification {
	return FilterBy{Field: field, Value: value}
}

type StatusIn struct {
	Statuses []string
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

type StatusNot struct {
	Status string
}

func (s StatusNot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", s.Status)
}

// Locked appends a row lock to the query where the dialect supports it.
type Locked struct{}

func (s Locked) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.ForUpdate)
}
