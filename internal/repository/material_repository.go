package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

const materialColumns = "id, title, subject_id, sem_id, type, link, status, views, downloads, uploaded_by, created_at, approved_at"

// MaterialRepository handles persistence for materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates a new repository instance.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// ListAll returns the full materials collection as one snapshot.
func (r *MaterialRepository) ListAll(ctx context.Context) ([]models.Material, error) {
	query := fmt.Sprintf("SELECT %s FROM materials ORDER BY created_at DESC", materialColumns)
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// FindByID returns a material by id.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := fmt.Sprintf("SELECT %s FROM materials WHERE id = $1", materialColumns)
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// ExistsByTitleAndSubject is the duplicate pre-check: it reports whether a
// live material already carries the same (title, subject) pair.
func (r *MaterialRepository) ExistsByTitleAndSubject(ctx context.Context, title, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM materials WHERE LOWER(title) = LOWER($1) AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, title, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate material: %w", err)
	}
	return true, nil
}

// Create inserts a pending material. The creation timestamp is assigned by
// the database, not the client, and is read back into the model.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO materials (id, title, subject_id, sem_id, type, link, status, views, downloads, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING created_at`
	if err := r.db.GetContext(ctx, &material.CreatedAt, query,
		material.ID, material.Title, material.SubjectID, material.SemID, material.Type,
		material.Link, material.Status, material.Views, material.Downloads, material.UploadedBy,
	); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Approve transitions a pending material to approved and stamps approvedAt.
func (r *MaterialRepository) Approve(ctx context.Context, id string, approvedAt time.Time) error {
	const query = `UPDATE materials SET status = $2, approved_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusApproved, approvedAt)
	if err != nil {
		return fmt.Errorf("approve material: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDetails modifies the editable fields of a material.
func (r *MaterialRepository) UpdateDetails(ctx context.Context, material *models.Material) error {
	const query = `UPDATE materials SET title = :title, subject_id = :subject_id, sem_id = :sem_id, type = :type, link = :link WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, material)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a material document. Rejection and deletion share this
// single destructive operation.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViews bumps the view counter atomically in the database and
// returns the new value. Concurrent increments from different sessions all
// land; there is no read-modify-write window.
func (r *MaterialRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE materials SET views = views + 1 WHERE id = $1 RETURNING views`
	var views int64
	if err := r.db.GetContext(ctx, &views, query, id); err != nil {
		return 0, err
	}
	return views, nil
}

// IncrementDownloads bumps the download counter atomically and returns the
// new value.
func (r *MaterialRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE materials SET downloads = downloads + 1 WHERE id = $1 RETURNING downloads`
	var downloads int64
	if err := r.db.GetContext(ctx, &downloads, query, id); err != nil {
		return 0, err
	}
	return downloads, nil
}

// CountBySubject returns the number of materials referencing a subject.
// Used to block subject deletion while references remain.
func (r *MaterialRepository) CountBySubject(ctx context.Context, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM materials WHERE subject_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID); err != nil {
		return 0, fmt.Errorf("count materials by subject: %w", err)
	}
	return count, nil
}
