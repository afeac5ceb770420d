package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record ingested from the teachers workbook.
// Records are replaced wholesale on every upload, never partially updated.
type Teacher struct {
	ID                 string         `db:"id" json:"id"`
	MisID              string         `db:"mis_id" json:"mis_id"`
	Name               string         `db:"name" json:"name"`
	Email              string         `db:"email" json:"email"`
	Designation        *string        `db:"designation" json:"designation,omitempty"`
	SubjectPreferences pq.StringArray `db:"subject_preferences" json:"subject_preferences"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}
