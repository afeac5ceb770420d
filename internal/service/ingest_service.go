package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	"github.com/noah-isme/timetable-intake-api/internal/models"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/workbook"
)

const solverCachePattern = "solver:*"

type teacherIngestRepo interface {
	ReplaceAll(ctx context.Context, teachers []models.Teacher) error
	Count(ctx context.Context) (int, error)
}

type subjectIngestRepo interface {
	ReplaceAll(ctx context.Context, subjects []models.Subject) error
	FindIDByCode(ctx context.Context, code string) (string, error)
	Count(ctx context.Context) (int, error)
}

type roomIngestRepo interface {
	ReplaceAll(ctx context.Context, rooms []models.Room) error
	Count(ctx context.Context) (int, error)
}

type divisionIngestRepo interface {
	ReplaceAll(ctx context.Context, divisions []models.Division) error
	Count(ctx context.Context) (int, error)
}

type solverCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type uploadCleaner interface {
	RemoveAll(paths []string) error
}

// workbookParser reads one spooled workbook into rows. Swappable in tests.
type workbookParser func(path string) ([]workbook.Row, error)

// UploadSet carries the spooled file paths of one upload request. FixedSlots
// is empty when the optional workbook was not supplied.
type UploadSet struct {
	Teachers   string
	Subjects   string
	Rooms      string
	FixedSlots string
}

func (u UploadSet) paths() []string {
	paths := []string{u.Teachers, u.Subjects, u.Rooms}
	if u.FixedSlots != "" {
		paths = append(paths, u.FixedSlots)
	}
	return paths
}

// IngestService drives one upload request end-to-end: parse, normalize, and
// replace each collection. Replaces run per kind in their own transaction;
// there is no rollback across kinds, so a failure mid-request leaves earlier
// kinds committed. Spooled files are removed on every exit path.
type IngestService struct {
	teachers  teacherIngestRepo
	subjects  subjectIngestRepo
	rooms     roomIngestRepo
	divisions divisionIngestRepo
	cache     solverCache
	spool     uploadCleaner
	parse     workbookParser
	logger    *zap.Logger
}

// NewIngestService constructs an IngestService. A nil parser falls back to
// reading xlsx workbooks from disk.
func NewIngestService(
	teachers teacherIngestRepo,
	subjects subjectIngestRepo,
	rooms roomIngestRepo,
	divisions divisionIngestRepo,
	cache solverCache,
	spool uploadCleaner,
	parse workbookParser,
	logger *zap.Logger,
) *IngestService {
	if parse == nil {
		parse = workbook.ReadFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		teachers:  teachers,
		subjects:  subjects,
		rooms:     rooms,
		divisions: divisions,
		cache:     cache,
		spool:     spool,
		parse:     parse,
		logger:    logger,
	}
}

// Run executes the ingestion cycle for one upload. Subjects are committed
// before fixed-slot normalization starts, because slot rows resolve subject
// codes against the store.
func (s *IngestService) Run(ctx context.Context, uploads UploadSet) (*dto.IngestSummary, error) {
	defer func() {
		if err := s.spool.RemoveAll(uploads.paths()); err != nil {
			s.logger.Warn("failed to remove spooled uploads", zap.Error(err))
		}
	}()

	teachers, err := normalizeWorkbook(s.parse, uploads.Teachers, "teachers", NormalizeTeacherRows)
	if err != nil {
		return nil, err
	}
	subjects, err := normalizeWorkbook(s.parse, uploads.Subjects, "subjects", NormalizeSubjectRows)
	if err != nil {
		return nil, err
	}
	rooms, err := normalizeWorkbook(s.parse, uploads.Rooms, "rooms", NormalizeRoomRows)
	if err != nil {
		return nil, err
	}

	if err := s.teachers.ReplaceAll(ctx, teachers); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace teachers")
	}
	if err := s.subjects.ReplaceAll(ctx, subjects); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace subjects")
	}
	if err := s.rooms.ReplaceAll(ctx, rooms); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace rooms")
	}

	summary := &dto.IngestSummary{
		Teachers: len(teachers),
		Subjects: len(subjects),
		Rooms:    len(rooms),
	}

	if uploads.FixedSlots != "" {
		rows, err := s.parse(uploads.FixedSlots)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed fixed slots workbook")
		}
		divisions, err := NormalizeFixedSlotRows(ctx, rows, s.subjects)
		if err != nil {
			return nil, err
		}
		if err := s.divisions.ReplaceAll(ctx, divisions); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace fixed slots")
		}
		summary.Divisions = len(divisions)
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, solverCachePattern); err != nil {
			s.logger.Warn("failed to invalidate solver cache", zap.Error(err))
		}
	}

	s.logger.Info("ingestion cycle complete",
		zap.Int("teachers", summary.Teachers),
		zap.Int("subjects", summary.Subjects),
		zap.Int("rooms", summary.Rooms),
		zap.Int("divisions", summary.Divisions),
	)
	return summary, nil
}

// Counts reports the current size of each collection for the intake overview.
func (s *IngestService) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 4)

	teacherCount, err := s.teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	counts["teachers"] = teacherCount

	subjectCount, err := s.subjects.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}
	counts["subjects"] = subjectCount

	roomCount, err := s.rooms.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rooms")
	}
	counts["rooms"] = roomCount

	divisionCount, err := s.divisions.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count divisions")
	}
	counts["divisions"] = divisionCount

	return counts, nil
}

func normalizeWorkbook[T any](parse workbookParser, path, kind string, normalize func([]workbook.Row) ([]T, error)) ([]T, error) {
	rows, err := parse(path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed "+kind+" workbook")
	}
	return normalize(rows)
}
