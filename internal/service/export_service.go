package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/export"
)

type boardReader interface {
	Board(ctx context.Context) (*dto.AssignmentBoard, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered assignment-board document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the assignment board as CSV or PDF.
type ExportService struct {
	board  boardReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService with default renderers when
// none are supplied.
func NewExportService(board boardReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{board: board, csv: csv, pdf: pdf, logger: logger}
}

// Render produces the board export in the requested format (csv or pdf).
func (s *ExportService) Render(ctx context.Context, format string) (*ExportResult, error) {
	board, err := s.board.Board(ctx)
	if err != nil {
		return nil, err
	}

	dataset := boardDataset(board)
	stamp := time.Now().UTC().Format("20060102")

	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("teacher-assignments-%s.csv", stamp),
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Teacher Assignments")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("teacher-assignments-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func boardDataset(board *dto.AssignmentBoard) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Code", "Subject", "Weekly Load", "Assigned Teachers"},
		Rows:    make([]map[string]string, 0, len(board.Subjects)),
	}
	for _, subject := range board.Subjects {
		names := make([]string, 0, len(subject.Teachers))
		for _, teacher := range subject.Teachers {
			names = append(names, teacher.Name)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Code":              subject.Code,
			"Subject":           subject.Name,
			"Weekly Load":       subject.Weekly.Raw,
			"Assigned Teachers": strings.Join(names, ", "),
		})
	}
	return dataset
}
