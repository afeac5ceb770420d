package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
)

type staticBoard struct {
	board *dto.AssignmentBoard
	err   error
}

func (s *staticBoard) Board(ctx context.Context) (*dto.AssignmentBoard, error) {
	return s.board, s.err
}

func exportFixtureBoard() *dto.AssignmentBoard {
	theory := 3.0
	lab := 1.0
	return &dto.AssignmentBoard{
		Subjects: []dto.SubjectView{
			{
				ID:     "s1",
				Code:   "CS101",
				Name:   "Data Structures",
				Weekly: dto.WeeklyLoadView{Raw: "3,1", Theory: &theory, Lab: &lab},
				Teachers: []dto.TeacherView{
					{ID: "t1", Name: "Asha"},
					{ID: "t2", Name: "Ravi"},
				},
			},
			{ID: "s2", Code: "CS102", Name: "Algorithms", Weekly: dto.WeeklyLoadView{Raw: "4"}},
		},
	}
}

func TestExportRenderCSV(t *testing.T) {
	svc := NewExportService(&staticBoard{board: exportFixtureBoard()}, nil, nil, nil)

	result, err := svc.Render(context.Background(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "teacher-assignments-"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Code,Subject,Weekly Load,Assigned Teachers", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "CS101")
	assert.Contains(t, lines[1], "\"Asha, Ravi\"")
	assert.Contains(t, lines[2], "CS102")
}

func TestExportRenderDefaultsToCSV(t *testing.T) {
	svc := NewExportService(&staticBoard{board: exportFixtureBoard()}, nil, nil, nil)

	result, err := svc.Render(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportRenderPDF(t *testing.T) {
	svc := NewExportService(&staticBoard{board: exportFixtureBoard()}, nil, nil, nil)

	result, err := svc.Render(context.Background(), "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	require.NotEmpty(t, result.Content)
	assert.Equal(t, "%PDF", string(result.Content[:4]))
}

func TestExportRenderUnknownFormat(t *testing.T) {
	svc := NewExportService(&staticBoard{board: exportFixtureBoard()}, nil, nil, nil)

	_, err := svc.Render(context.Background(), "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportRenderBoardFailure(t *testing.T) {
	svc := NewExportService(&staticBoard{err: assert.AnError}, nil, nil, nil)

	_, err := svc.Render(context.Background(), "csv")
	require.Error(t, err)
}
