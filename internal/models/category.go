package models

import "database/sql"

type Category struct {
	ID        int            `json:"id,omitempty" db:"id,omitempty"`
	UserID    sql.NullInt64  `json:"user_id,omitempty" db:"user_id,omitempty"`
	Name      string         `json:"name,omitempty" db:"name,omitempty"`
	Type      string         `json:"type,omitempty" db:"type,omitempty"`
	Color     string         `json:"color,omitempty" db:"color,omitempty"`
	IsDefault bool           `json:"is_default,omitempty" db:"is_default,omitempty"`
	CreatedAt sql.NullString `json:"created_at,omitempty" db:"created_at,omitempty"`
}

func ValidCategoryType(t string) bool {
	return t == "income" || t == "expense"
}
