package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/models"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/workbook"
)

type mockTeacherIngestRepo struct {
	replaced [][]models.Teacher
	err      error
}

func (m *mockTeacherIngestRepo) ReplaceAll(ctx context.Context, teachers []models.Teacher) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, teachers)
	return nil
}

func (m *mockTeacherIngestRepo) Count(ctx context.Context) (int, error) {
	if len(m.replaced) == 0 {
		return 0, nil
	}
	return len(m.replaced[len(m.replaced)-1]), nil
}

type mockSubjectIngestRepo struct {
	replaced [][]models.Subject
	codes    map[string]string
	err      error
}

func (m *mockSubjectIngestRepo) ReplaceAll(ctx context.Context, subjects []models.Subject) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, subjects)
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	for i, subject := range subjects {
		id := subject.ID
		if id == "" {
			id = "s" + subject.Code
			subjects[i].ID = id
		}
		m.codes[subject.Code] = id
	}
	return nil
}

func (m *mockSubjectIngestRepo) FindIDByCode(ctx context.Context, code string) (string, error) {
	if id, ok := m.codes[code]; ok {
		return id, nil
	}
	return "", sql.ErrNoRows
}

func (m *mockSubjectIngestRepo) Count(ctx context.Context) (int, error) {
	if len(m.replaced) == 0 {
		return 0, nil
	}
	return len(m.replaced[len(m.replaced)-1]), nil
}

type mockRoomIngestRepo struct {
	replaced [][]models.Room
	err      error
}

func (m *mockRoomIngestRepo) ReplaceAll(ctx context.Context, rooms []models.Room) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, rooms)
	return nil
}

func (m *mockRoomIngestRepo) Count(ctx context.Context) (int, error) { return 0, nil }

type mockDivisionIngestRepo struct {
	replaced [][]models.Division
	err      error
}

func (m *mockDivisionIngestRepo) ReplaceAll(ctx context.Context, divisions []models.Division) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, divisions)
	return nil
}

func (m *mockDivisionIngestRepo) Count(ctx context.Context) (int, error) { return 0, nil }

type mockCache struct {
	patterns []string
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type mockSpool struct {
	removed [][]string
}

func (m *mockSpool) RemoveAll(paths []string) error {
	m.removed = append(m.removed, paths)
	return nil
}

func sheetParser(sheets map[string][]workbook.Row) workbookParser {
	return func(path string) ([]workbook.Row, error) {
		rows, ok := sheets[path]
		if !ok {
			return nil, assert.AnError
		}
		return rows, nil
	}
}

func validSheets() map[string][]workbook.Row {
	return map[string][]workbook.Row{
		"teachers.xlsx": {
			row(1, map[string]string{"mis_id": "T-100", "name": "Asha", "email": "asha@example.edu"}),
		},
		"subjects.xlsx": {
			row(1, map[string]string{"code": "CS101", "name": "Data Structures", "weekly_load": "3,1"}),
		},
		"rooms.xlsx": {
			row(1, map[string]string{"room_no": "R-204", "capacity": "60"}),
		},
		"slots.xlsx": {
			row(1, map[string]string{"division": "SE-A", "day": "Monday", "period": "1", "teacher": "Asha", "room": "R-204", "subject_code": "CS101"}),
		},
	}
}

func newIngestFixture(sheets map[string][]workbook.Row) (*IngestService, *mockTeacherIngestRepo, *mockSubjectIngestRepo, *mockRoomIngestRepo, *mockDivisionIngestRepo, *mockCache, *mockSpool) {
	teachers := &mockTeacherIngestRepo{}
	subjects := &mockSubjectIngestRepo{}
	rooms := &mockRoomIngestRepo{}
	divisions := &mockDivisionIngestRepo{}
	cache := &mockCache{}
	spool := &mockSpool{}
	svc := NewIngestService(teachers, subjects, rooms, divisions, cache, spool, sheetParser(sheets), zap.NewNop())
	return svc, teachers, subjects, rooms, divisions, cache, spool
}

func TestIngestRunFullCycle(t *testing.T) {
	svc, teachers, subjects, rooms, divisions, cache, spool := newIngestFixture(validSheets())

	summary, err := svc.Run(context.Background(), UploadSet{
		Teachers:   "teachers.xlsx",
		Subjects:   "subjects.xlsx",
		Rooms:      "rooms.xlsx",
		FixedSlots: "slots.xlsx",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Teachers)
	assert.Equal(t, 1, summary.Subjects)
	assert.Equal(t, 1, summary.Rooms)
	assert.Equal(t, 1, summary.Divisions)

	require.Len(t, teachers.replaced, 1)
	require.Len(t, subjects.replaced, 1)
	require.Len(t, rooms.replaced, 1)
	require.Len(t, divisions.replaced, 1)
	assert.Equal(t, "sCS101", divisions.replaced[0][0].Slots[0].SubjectID)

	assert.Equal(t, []string{"solver:*"}, cache.patterns)
	require.Len(t, spool.removed, 1)
	assert.Len(t, spool.removed[0], 4)
}

func TestIngestRunWithoutFixedSlots(t *testing.T) {
	svc, _, _, _, divisions, _, spool := newIngestFixture(validSheets())

	summary, err := svc.Run(context.Background(), UploadSet{
		Teachers: "teachers.xlsx",
		Subjects: "subjects.xlsx",
		Rooms:    "rooms.xlsx",
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Divisions)
	assert.Empty(t, divisions.replaced)
	assert.Len(t, spool.removed[0], 3)
}

func TestIngestRunUnresolvedFixedSlotAbortsSlotsOnly(t *testing.T) {
	sheets := validSheets()
	sheets["slots.xlsx"] = []workbook.Row{
		row(1, map[string]string{"division": "SE-A", "day": "Monday", "period": "1", "subject_code": "GHOST"}),
	}
	svc, teachers, subjects, _, divisions, _, spool := newIngestFixture(sheets)

	_, err := svc.Run(context.Background(), UploadSet{
		Teachers:   "teachers.xlsx",
		Subjects:   "subjects.xlsx",
		Rooms:      "rooms.xlsx",
		FixedSlots: "slots.xlsx",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnresolvedReference.Code, appErrors.FromError(err).Code)

	// Earlier kinds stay committed, no division rows are written, and the
	// spooled files are still removed.
	assert.Len(t, teachers.replaced, 1)
	assert.Len(t, subjects.replaced, 1)
	assert.Empty(t, divisions.replaced)
	require.Len(t, spool.removed, 1)
}

func TestIngestRunRowValidationFailureCleansSpool(t *testing.T) {
	sheets := validSheets()
	sheets["teachers.xlsx"] = []workbook.Row{
		row(1, map[string]string{"name": "No MIS"}),
	}
	svc, teachers, _, _, _, _, spool := newIngestFixture(sheets)

	_, err := svc.Run(context.Background(), UploadSet{
		Teachers: "teachers.xlsx",
		Subjects: "subjects.xlsx",
		Rooms:    "rooms.xlsx",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRowValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, teachers.replaced)
	require.Len(t, spool.removed, 1)
}

func TestIngestRunReplaceFailureLeavesEarlierKinds(t *testing.T) {
	svc, teachers, subjects, rooms, _, _, _ := newIngestFixture(validSheets())
	rooms.err = assert.AnError

	_, err := svc.Run(context.Background(), UploadSet{
		Teachers: "teachers.xlsx",
		Subjects: "subjects.xlsx",
		Rooms:    "rooms.xlsx",
	})
	require.Error(t, err)
	assert.Len(t, teachers.replaced, 1)
	assert.Len(t, subjects.replaced, 1)
	assert.Empty(t, rooms.replaced)
}

func TestIngestCounts(t *testing.T) {
	svc, teachers, subjects, _, _, _, _ := newIngestFixture(validSheets())
	teachers.replaced = [][]models.Teacher{{{MisID: "T-100"}, {MisID: "T-101"}}}
	subjects.replaced = [][]models.Subject{{{Code: "CS101"}}}

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts["teachers"])
	assert.Equal(t, 1, counts["subjects"])
	assert.Zero(t, counts["rooms"])
}
