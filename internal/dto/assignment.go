package dto

import (
	"encoding/json"
	"fmt"
)

// FlexibleIDList accepts a JSON string, list of strings, or null and always
// normalizes to a list. Assignment forms post single-select and multi-select
// values interchangeably.
type FlexibleIDList []string

// UnmarshalJSON implements the lenient decode.
func (f *FlexibleIDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = FlexibleIDList{}
		} else {
			*f = FlexibleIDList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*f = FlexibleIDList(many)
		return nil
	}

	var null interface{}
	if err := json.Unmarshal(data, &null); err == nil && null == nil {
		*f = FlexibleIDList{}
		return nil
	}

	return fmt.Errorf("teacher ids must be a string or a list of strings")
}

// ApplyAssignmentsRequest maps subject id to the full replacement set of
// teacher ids. Subjects absent from the map are left untouched.
type ApplyAssignmentsRequest map[string]FlexibleIDList

// TeacherView is the read-only teacher shape shown on the assignment board.
type TeacherView struct {
	ID    string `json:"id"`
	MisID string `json:"mis_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WeeklyLoadView decomposes the weekly_load cell. Theory and lab are null
// when the cell failed to parse.
type WeeklyLoadView struct {
	Raw    string   `json:"raw"`
	Theory *float64 `json:"theory"`
	Lab    *float64 `json:"lab"`
}

// SubjectView is a subject with its currently assigned teachers expanded to
// full teacher records.
type SubjectView struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	Department *string        `json:"department,omitempty"`
	Semester   *string        `json:"semester,omitempty"`
	Weekly     WeeklyLoadView `json:"weekly"`
	Teachers   []TeacherView  `json:"teachers"`
}

// AssignmentBoard is the full list view backing the assignment form.
type AssignmentBoard struct {
	Teachers []TeacherView `json:"teachers"`
	Subjects []SubjectView `json:"subjects"`
}
