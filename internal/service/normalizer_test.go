package service

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/workbook"
)

func row(number int, cells map[string]string) workbook.Row {
	return workbook.Row{Number: number, Cells: cells}
}

type mapResolver map[string]string

func (m mapResolver) FindIDByCode(ctx context.Context, code string) (string, error) {
	if id, ok := m[code]; ok {
		return id, nil
	}
	return "", sql.ErrNoRows
}

func TestNormalizeTeacherRows(t *testing.T) {
	teachers, err := NormalizeTeacherRows([]workbook.Row{
		row(1, map[string]string{
			"mis_id":              "T-100",
			"name":                "Asha Kulkarni",
			"email":               "asha@example.edu",
			"designation":         "Assistant Professor",
			"subject_preferences": "CS101, CS203 ,CS305",
		}),
		row(2, map[string]string{
			"mis_id": "T-101",
			"name":   "Ravi Deshmukh",
			"email":  "ravi@example.edu",
		}),
	})
	require.NoError(t, err)
	require.Len(t, teachers, 2)

	assert.Equal(t, "T-100", teachers[0].MisID)
	require.NotNil(t, teachers[0].Designation)
	assert.Equal(t, "Assistant Professor", *teachers[0].Designation)
	assert.Equal(t, []string{"CS101", "CS203", "CS305"}, []string(teachers[0].SubjectPreferences))

	assert.Nil(t, teachers[1].Designation)
	assert.Empty(t, teachers[1].SubjectPreferences)
}

func TestNormalizeTeacherRowsMissingMisID(t *testing.T) {
	_, err := NormalizeTeacherRows([]workbook.Row{
		row(1, map[string]string{"name": "Nameless", "email": "x@example.edu"}),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRowValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "row 1")
}

func TestNormalizeSubjectRowsWeeklyLoad(t *testing.T) {
	subjects, err := NormalizeSubjectRows([]workbook.Row{
		row(1, map[string]string{"code": "CS101", "name": "Data Structures", "weekly_load": "3,1"}),
	})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "3,1", subjects[0].WeeklyRaw)
	assert.Equal(t, float64(3), subjects[0].WeeklyTheory)
	assert.Equal(t, float64(1), subjects[0].WeeklyLab)
}

func TestNormalizeSubjectRowsMalformedWeeklyLoadYieldsNaN(t *testing.T) {
	cases := map[string]struct {
		raw       string
		theoryNaN bool
		labNaN    bool
	}{
		"no comma":       {raw: "4", theoryNaN: false, labNaN: true},
		"bad theory":     {raw: "x,1", theoryNaN: true, labNaN: false},
		"bad lab":        {raw: "3,y", theoryNaN: false, labNaN: true},
		"empty cell":     {raw: "", theoryNaN: true, labNaN: true},
		"trailing comma": {raw: "3,", theoryNaN: false, labNaN: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			subjects, err := NormalizeSubjectRows([]workbook.Row{
				row(1, map[string]string{"code": "CS101", "name": "X", "weekly_load": tc.raw}),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.theoryNaN, math.IsNaN(subjects[0].WeeklyTheory))
			assert.Equal(t, tc.labNaN, math.IsNaN(subjects[0].WeeklyLab))
		})
	}
}

func TestNormalizeRoomRows(t *testing.T) {
	rooms, err := NormalizeRoomRows([]workbook.Row{
		row(1, map[string]string{"room_no": "R-204", "capacity": "60", "room_type": "lecture", "equipment": "projector, whiteboard"}),
		row(2, map[string]string{"room_no": "Lab-2", "capacity": "not a number"}),
	})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, 60, rooms[0].Capacity)
	assert.Equal(t, []string{"projector", "whiteboard"}, []string(rooms[0].Equipment))
	assert.Zero(t, rooms[1].Capacity)
	assert.Empty(t, rooms[1].Equipment)
}

func TestNormalizeFixedSlotRowsGroupsByDivision(t *testing.T) {
	resolver := mapResolver{"CS101": "s1", "CS203": "s2"}
	divisions, err := NormalizeFixedSlotRows(context.Background(), []workbook.Row{
		row(1, map[string]string{"division": "SE-A", "day": "Monday", "period": "1", "teacher": "Asha", "room": "R-204", "subject_code": "CS101"}),
		row(2, map[string]string{"division": "SE-B", "day": "Monday", "period": "1", "teacher": "Ravi", "room": "R-205", "subject_code": "CS203"}),
		row(3, map[string]string{"division": "SE-A", "day": "Tuesday", "period": "3", "teacher": "Asha", "room": "Lab-2", "subject_code": "CS203"}),
	}, resolver)
	require.NoError(t, err)
	require.Len(t, divisions, 2)

	assert.Equal(t, "SE-A", divisions[0].Name)
	require.Len(t, divisions[0].Slots, 2)
	assert.Equal(t, "s1", divisions[0].Slots[0].SubjectID)
	assert.Equal(t, "s2", divisions[0].Slots[1].SubjectID)
	assert.Equal(t, "SE-B", divisions[1].Name)
}

func TestNormalizeFixedSlotRowsUnresolvedCode(t *testing.T) {
	resolver := mapResolver{"CS101": "s1"}
	_, err := NormalizeFixedSlotRows(context.Background(), []workbook.Row{
		row(1, map[string]string{"division": "SE-A", "day": "Monday", "period": "1", "subject_code": "CS101"}),
		row(2, map[string]string{"division": "SE-A", "day": "Monday", "period": "2", "subject_code": "GHOST"}),
	}, resolver)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnresolvedReference.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "GHOST")
}
