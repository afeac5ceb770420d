package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-intake-api/internal/models"
)

// AssignmentRepository persists the subject-to-teachers many-to-many links.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

type subjectTeacherRow struct {
	SubjectID string `db:"subject_id"`
	models.Teacher
}

// TeachersBySubject returns the assigned teachers of every subject, keyed by
// subject id, in assignment order.
func (r *AssignmentRepository) TeachersBySubject(ctx context.Context) (map[string][]models.Teacher, error) {
	const query = `
SELECT st.subject_id, t.id, t.mis_id, t.name, t.email, t.designation, t.subject_preferences, t.created_at
FROM subject_teachers st
JOIN teachers t ON t.id = st.teacher_id
ORDER BY st.subject_id, st.position`
	var rows []subjectTeacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}

	result := make(map[string][]models.Teacher, len(rows))
	for _, row := range rows {
		result[row.SubjectID] = append(result[row.SubjectID], row.Teacher)
	}
	return result, nil
}

// ReplaceForSubject swaps the subject's entire assignee set for the given
// teacher ids inside one transaction. An unknown teacher id trips the foreign
// key and rolls back this subject only.
func (r *AssignmentRepository) ReplaceForSubject(ctx context.Context, subjectID string, teacherIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_teachers WHERE subject_id = $1`, subjectID); err != nil {
		return fmt.Errorf("clear assignments for subject %s: %w", subjectID, err)
	}

	const query = `INSERT INTO subject_teachers (subject_id, teacher_id, position) VALUES ($1, $2, $3)`
	for i, teacherID := range teacherIDs {
		if _, err := tx.ExecContext(ctx, query, subjectID, teacherID, i); err != nil {
			return fmt.Errorf("link teacher %s to subject %s: %w", teacherID, subjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}
