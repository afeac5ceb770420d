package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/timetable-intake-api/internal/models"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/workbook"
)

// subjectResolver looks up a subject id by code. Fixed-slot normalization
// resolves every row against subjects already committed in the same cycle.
type subjectResolver interface {
	FindIDByCode(ctx context.Context, code string) (string, error)
}

// NormalizeTeacherRows converts teacher workbook rows into teacher records.
// A row without a mis_id rejects the whole upload.
func NormalizeTeacherRows(rows []workbook.Row) ([]models.Teacher, error) {
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		misID := row.Get("mis_id")
		if misID == "" {
			return nil, appErrors.Clone(appErrors.ErrRowValidation, fmt.Sprintf("teachers row %d: missing mis_id", row.Number))
		}
		teachers = append(teachers, models.Teacher{
			MisID:              misID,
			Name:               row.Get("name"),
			Email:              row.Get("email"),
			Designation:        optionalCell(row, "designation"),
			SubjectPreferences: pq.StringArray(splitList(row.Get("subject_preferences"))),
		})
	}
	return teachers, nil
}

// NormalizeSubjectRows converts subject workbook rows into subject records.
// The weekly_load cell is split on its first comma; parts that fail to parse
// stay NaN rather than rejecting the row.
func NormalizeSubjectRows(rows []workbook.Row) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0, len(rows))
	for _, row := range rows {
		code := row.Get("code")
		if code == "" {
			return nil, appErrors.Clone(appErrors.ErrRowValidation, fmt.Sprintf("subjects row %d: missing code", row.Number))
		}
		raw := row.Get("weekly_load")
		theory, lab := parseWeeklyLoad(raw)
		subjects = append(subjects, models.Subject{
			Code:         code,
			Name:         row.Get("name"),
			Department:   optionalCell(row, "department"),
			Semester:     optionalCell(row, "semester"),
			WeeklyRaw:    raw,
			WeeklyTheory: theory,
			WeeklyLab:    lab,
		})
	}
	return subjects, nil
}

// NormalizeRoomRows converts room workbook rows into room records. A
// non-numeric capacity coerces to zero.
func NormalizeRoomRows(rows []workbook.Row) ([]models.Room, error) {
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		roomNo := row.Get("room_no")
		if roomNo == "" {
			return nil, appErrors.Clone(appErrors.ErrRowValidation, fmt.Sprintf("rooms row %d: missing room_no", row.Number))
		}
		capacity, _ := strconv.Atoi(row.Get("capacity"))
		rooms = append(rooms, models.Room{
			RoomNo:    roomNo,
			Capacity:  capacity,
			RoomType:  optionalCell(row, "room_type"),
			Equipment: pq.StringArray(splitList(row.Get("equipment"))),
		})
	}
	return rooms, nil
}

// NormalizeFixedSlotRows groups fixed-slot workbook rows by division and
// resolves each row's subject code against the store. Any unknown code aborts
// the entire batch; subjects must already be committed when this runs.
func NormalizeFixedSlotRows(ctx context.Context, rows []workbook.Row, subjects subjectResolver) ([]models.Division, error) {
	var order []string
	grouped := make(map[string]*models.Division)

	for _, row := range rows {
		divisionName := row.Get("division")
		if divisionName == "" {
			return nil, appErrors.Clone(appErrors.ErrRowValidation, fmt.Sprintf("fixed slots row %d: missing division", row.Number))
		}
		code := row.Get("subject_code")
		if code == "" {
			code = row.Get("subject")
		}
		if code == "" {
			return nil, appErrors.Clone(appErrors.ErrRowValidation, fmt.Sprintf("fixed slots row %d: missing subject code", row.Number))
		}

		subjectID, err := subjects.FindIDByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnresolvedReference,
					fmt.Sprintf("fixed slots row %d: subject code %q does not match any ingested subject", row.Number, code))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject code")
		}

		division, ok := grouped[divisionName]
		if !ok {
			division = &models.Division{Name: divisionName}
			grouped[divisionName] = division
			order = append(order, divisionName)
		}
		division.Slots = append(division.Slots, models.FixedSlot{
			Day:       row.Get("day"),
			Period:    row.Get("period"),
			Teacher:   row.Get("teacher"),
			Room:      row.Get("room"),
			SubjectID: subjectID,
		})
	}

	divisions := make([]models.Division, 0, len(order))
	for _, name := range order {
		divisions = append(divisions, *grouped[name])
	}
	return divisions, nil
}

// parseWeeklyLoad splits "theory,lab" and converts each side independently.
// Either side, or a missing comma, parses to NaN instead of failing the row.
func parseWeeklyLoad(raw string) (theory, lab float64) {
	parts := strings.SplitN(raw, ",", 2)
	theory = parseLoadPart(parts[0])
	if len(parts) < 2 {
		return theory, math.NaN()
	}
	return theory, parseLoadPart(parts[1])
}

func parseLoadPart(part string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func optionalCell(row workbook.Row, key string) *string {
	value := row.Get(key)
	if value == "" {
		return nil
	}
	return &value
}
