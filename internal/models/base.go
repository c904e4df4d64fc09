package models

import (
	"github.com/radz2291/RZ-Property/internal/utils"
)

// Record is implemented by every document the repositories insert.
type Record interface {
	EnsureID()
	RenewID()
}

// Base carries the record id. Embed it with `bson:",inline"`.
type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id"`
}

// EnsureID assigns a fresh id when none is set.
func (m *Base) EnsureID() {
	if m.ID.IsZero() {
		m.RenewID()
	}
}

// RenewID replaces the id, used after a primary key collision.
func (m *Base) RenewID() {
	m.ID = utils.NewSixID()
}

func NewBase() Base {
	return Base{ID: utils.NewSixID()}
}
