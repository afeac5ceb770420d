package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/dto"
	"github.com/noah-isme/timetable-intake-api/internal/models"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
)

type assignmentTeacherRepo interface {
	List(ctx context.Context) ([]models.Teacher, error)
	CountByIDs(ctx context.Context, ids []string) (int, error)
}

type assignmentSubjectRepo interface {
	List(ctx context.Context) ([]models.Subject, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type assignmentLinkRepo interface {
	TeachersBySubject(ctx context.Context) (map[string][]models.Teacher, error)
	ReplaceForSubject(ctx context.Context, subjectID string, teacherIDs []string) error
}

// AssignmentService manages the many-to-many link between subjects and
// teachers.
type AssignmentService struct {
	teachers assignmentTeacherRepo
	subjects assignmentSubjectRepo
	links    assignmentLinkRepo
	logger   *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(teachers assignmentTeacherRepo, subjects assignmentSubjectRepo, links assignmentLinkRepo, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{teachers: teachers, subjects: subjects, links: links, logger: logger}
}

// Board returns every teacher and every subject with its current assignees
// expanded to full teacher records.
func (s *AssignmentService) Board(ctx context.Context) (*dto.AssignmentBoard, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	assignees, err := s.links.TeachersBySubject(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	board := &dto.AssignmentBoard{
		Teachers: make([]dto.TeacherView, 0, len(teachers)),
		Subjects: make([]dto.SubjectView, 0, len(subjects)),
	}
	for _, teacher := range teachers {
		board.Teachers = append(board.Teachers, teacherView(teacher))
	}
	for _, subject := range subjects {
		view := dto.SubjectView{
			ID:         subject.ID,
			Code:       subject.Code,
			Name:       subject.Name,
			Department: subject.Department,
			Semester:   subject.Semester,
			Weekly:     weeklyView(subject),
			Teachers:   make([]dto.TeacherView, 0, len(assignees[subject.ID])),
		}
		for _, teacher := range assignees[subject.ID] {
			view.Teachers = append(view.Teachers, teacherView(teacher))
		}
		board.Subjects = append(board.Subjects, view)
	}
	return board, nil
}

// Apply replaces each listed subject's assignee set with the given teachers.
// Subjects absent from the request stay untouched. Subjects are processed in
// sorted id order; a failure aborts the batch but keeps earlier replacements.
func (s *AssignmentService) Apply(ctx context.Context, req dto.ApplyAssignmentsRequest) error {
	subjectIDs := make([]string, 0, len(req))
	for subjectID := range req {
		subjectIDs = append(subjectIDs, subjectID)
	}
	sort.Strings(subjectIDs)

	for _, subjectID := range subjectIDs {
		teacherIDs := dedupe(req[subjectID])

		exists, err := s.subjects.ExistsByID(ctx, subjectID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrAssignment.Code, appErrors.ErrAssignment.Status, "failed to verify subject")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrAssignment, fmt.Sprintf("unknown subject id %s", subjectID))
		}

		if len(teacherIDs) > 0 {
			count, err := s.teachers.CountByIDs(ctx, teacherIDs)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrAssignment.Code, appErrors.ErrAssignment.Status, "failed to verify teachers")
			}
			if count != len(teacherIDs) {
				return appErrors.Clone(appErrors.ErrAssignment, fmt.Sprintf("assignment for subject %s references unknown teachers", subjectID))
			}
		}

		if err := s.links.ReplaceForSubject(ctx, subjectID, teacherIDs); err != nil {
			return appErrors.Wrap(err, appErrors.ErrAssignment.Code, appErrors.ErrAssignment.Status, "failed to apply teacher assignments")
		}
		s.logger.Info("assigned teachers to subject",
			zap.String("subject_id", subjectID),
			zap.Int("teachers", len(teacherIDs)),
		)
	}
	return nil
}

func teacherView(teacher models.Teacher) dto.TeacherView {
	return dto.TeacherView{
		ID:    teacher.ID,
		MisID: teacher.MisID,
		Name:  teacher.Name,
		Email: teacher.Email,
	}
}

// weeklyView maps NaN load parts to null so the board stays JSON-encodable.
func weeklyView(subject models.Subject) dto.WeeklyLoadView {
	view := dto.WeeklyLoadView{Raw: subject.WeeklyRaw}
	if !math.IsNaN(subject.WeeklyTheory) {
		theory := subject.WeeklyTheory
		view.Theory = &theory
	}
	if !math.IsNaN(subject.WeeklyLab) {
		lab := subject.WeeklyLab
		view.Lab = &lab
	}
	return view
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
