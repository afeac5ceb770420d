package models

import "time"

// Subject represents an academic subject ingested from the subjects workbook.
// WeeklyTheory and WeeklyLab come from splitting the weekly_load cell; a
// malformed cell leaves them NaN (tolerated, see the normalizer).
type Subject struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Semester     *string   `db:"semester" json:"semester,omitempty"`
	WeeklyRaw    string    `db:"weekly_load_raw" json:"weekly_load_raw"`
	WeeklyTheory float64   `db:"weekly_theory" json:"-"`
	WeeklyLab    float64   `db:"weekly_lab" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
