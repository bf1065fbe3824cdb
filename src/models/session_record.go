package models

import "time"

// One played game session.
type SessionRecord struct {
	ID      int       `db:"id" json:"id"`
	Title   string    `db:"title" json:"title"`
	System  string    `db:"system" json:"system"`
	Players string    `db:"players" json:"players"`
	Date    time.Time `db:"date" json:"date"`
}

// Fields for a new record. A nil Date means "now".
type SessionCreate struct {
	Title   string
	System  string
	Players string
	Date    *time.Time
}

// A partial update. Nil fields are left alone.
type SessionPatch struct {
	Title   *string
	System  *string
	Players *string
	Date    *time.Time
}

func (p SessionPatch) IsEmpty() bool {
	return p.Title == nil && p.System == nil && p.Players == nil && p.Date == nil
}
