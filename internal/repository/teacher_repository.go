package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-intake-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers in ingestion order.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, mis_id, name, email, designation, subject_preferences, created_at FROM teachers ORDER BY created_at, mis_id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Count returns the number of stored teachers.
func (r *TeacherRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teachers`); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return count, nil
}

// CountByIDs returns how many of the given ids exist, used to validate
// assignment batches before linking.
func (r *TeacherRepository) CountByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teachers WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count teachers by ids: %w", err)
	}
	return count, nil
}

// ReplaceAll deletes every teacher and inserts the new batch inside one
// transaction, so a failed upload never leaves a half-written collection.
func (r *TeacherRepository) ReplaceAll(ctx context.Context, teachers []models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace teachers: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM teachers`); err != nil {
		return fmt.Errorf("clear teachers: %w", err)
	}

	const query = `INSERT INTO teachers (id, mis_id, name, email, designation, subject_preferences, created_at)
		VALUES (:id, :mis_id, :name, :email, :designation, :subject_preferences, :created_at)`
	now := time.Now().UTC()
	for i := range teachers {
		if teachers[i].ID == "" {
			teachers[i].ID = uuid.NewString()
		}
		if teachers[i].CreatedAt.IsZero() {
			teachers[i].CreatedAt = now
		}
		if teachers[i].SubjectPreferences == nil {
			teachers[i].SubjectPreferences = pq.StringArray{}
		}
		if _, err := tx.NamedExecContext(ctx, query, teachers[i]); err != nil {
			return fmt.Errorf("insert teacher %s: %w", teachers[i].MisID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace teachers: %w", err)
	}
	return nil
}
