package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

func TestReportListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, material_id, material_title, material_link, subject, semester, reason, status, reported_by, created_at FROM reports ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "material_id", "material_title", "material_link", "subject", "semester", "reason", "status", "reported_by", "created_at"}).
			AddRow("r1", "m1", "Unit 1 Notes", "https://example.com", "C Programming", "1", "Broken Link", "unread", "student@example.com", time.Now()))

	reports, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportUnread, reports[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO reports").
		WillReturnResult(sqlmock.NewResult(0, 1))

	report := &models.Report{
		MaterialID:    "m1",
		MaterialTitle: "Unit 1 Notes",
		Reason:        string(models.ReasonWrongFile),
		Status:        models.ReportUnread,
		ReportedBy:    "student@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportSetStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("UPDATE reports SET status").
		WithArgs("r1", string(models.ReportResolved)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStatus(context.Background(), "r1", models.ReportResolved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("DELETE FROM reports").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
