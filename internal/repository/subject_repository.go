package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-intake-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns all subjects ordered by code.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, code, name, department, semester, weekly_load_raw, weekly_theory, weekly_lab, created_at FROM subjects ORDER BY code`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Count returns the number of stored subjects.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subjects`); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// FindIDByCode resolves a subject code to its identifier. Returns
// sql.ErrNoRows when the code is unknown; fixed-slot ingestion turns that
// into an unresolved-reference failure.
func (r *SubjectRepository) FindIDByCode(ctx context.Context, code string) (string, error) {
	const query = `SELECT id FROM subjects WHERE code = $1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, code); err != nil {
		return "", err
	}
	return id, nil
}

// ExistsByID reports whether a subject id is present.
func (r *SubjectRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subjects WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("check subject id: %w", err)
	}
	return count > 0, nil
}

// ReplaceAll deletes every subject and inserts the new batch inside one
// transaction. Deleting cascades into subject_teachers, so each reinserted
// subject starts with an empty assignee set.
func (r *SubjectRepository) ReplaceAll(ctx context.Context, subjects []models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace subjects: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects`); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}

	const query = `INSERT INTO subjects (id, code, name, department, semester, weekly_load_raw, weekly_theory, weekly_lab, created_at)
		VALUES (:id, :code, :name, :department, :semester, :weekly_load_raw, :weekly_theory, :weekly_lab, :created_at)`
	now := time.Now().UTC()
	for i := range subjects {
		if subjects[i].ID == "" {
			subjects[i].ID = uuid.NewString()
		}
		if subjects[i].CreatedAt.IsZero() {
			subjects[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, subjects[i]); err != nil {
			return fmt.Errorf("insert subject %s: %w", subjects[i].Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace subjects: %w", err)
	}
	return nil
}
