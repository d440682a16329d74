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

const reportColumns = "id, material_id, material_title, material_link, subject, semester, reason, status, reported_by, created_at"

// ReportRepository handles persistence for material issue reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new repository instance.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListAll returns every report, newest first.
func (r *ReportRepository) ListAll(ctx context.Context) ([]models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports ORDER BY created_at DESC", reportColumns)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// FindByID returns a report by id.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create persists a new report with status unread.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reports (id, material_id, material_title, material_link, subject, semester, reason, status, reported_by, created_at)
		VALUES (:id, :material_id, :material_title, :material_link, :subject, :semester, :reason, :status, :reported_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// SetStatus updates the triage status of a report.
func (r *ReportRepository) SetStatus(ctx context.Context, id string, status models.ReportStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set report status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
