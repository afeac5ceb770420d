package models

import "time"

// Division is an organizational grouping (class section) owning an ordered
// list of fixed timetable slots.
type Division struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	Slots     []FixedSlot `db:"-" json:"fixed_slots"`
}

// FixedSlot is a pre-assigned timetable entry the external solver must treat
// as immovable. Teacher and room are free-form strings from the workbook;
// the subject is a resolved reference to an ingested subject record.
type FixedSlot struct {
	ID         string `db:"id" json:"id"`
	DivisionID string `db:"division_id" json:"-"`
	Position   int    `db:"position" json:"-"`
	Day        string `db:"day" json:"day"`
	Period     string `db:"period" json:"period"`
	Teacher    string `db:"teacher" json:"teacher"`
	Room       string `db:"room" json:"room"`
	SubjectID  string `db:"subject_id" json:"subject"`
}
