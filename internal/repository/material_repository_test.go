package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func materialRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "subject_id", "sem_id", "type", "link", "status", "views", "downloads", "uploaded_by", "created_at", "approved_at"}).
		AddRow("m1", "Unit 1 Notes", "c-prog", "1", "Notes", "https://drive.google.com/file/d/ABC123/view", "Pending", 0, 0, "Student", now, nil)
}

func TestMaterialListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, subject_id, sem_id, type, link, status, views, downloads, uploaded_by, created_at, approved_at FROM materials ORDER BY created_at DESC")).
		WillReturnRows(materialRows(time.Now()))

	materials, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Unit 1 Notes", materials[0].Title)
	assert.Equal(t, models.StatusPending, materials[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialExistsByTitleAndSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM materials WHERE LOWER(title) = LOWER($1) AND subject_id = $2 LIMIT 1")).
		WithArgs("Unit 1 Notes", "c-prog").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByTitleAndSubject(context.Background(), "Unit 1 Notes", "c-prog")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM materials WHERE LOWER(title) = LOWER($1) AND subject_id = $2 LIMIT 1")).
		WithArgs("Unit 2 Notes", "c-prog").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByTitleAndSubject(context.Background(), "Unit 2 Notes", "c-prog")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialCreateAssignsServerTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO materials").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	material := &models.Material{
		Title:     "Unit 1 Notes",
		SubjectID: "c-prog",
		SemID:     "1",
		Type:      models.TypeNotes,
		Link:      "https://drive.google.com/file/d/ABC123/view",
		Status:    models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), material))
	assert.NotEmpty(t, material.ID)
	assert.Equal(t, created, material.CreatedAt.Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialApprove(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE materials SET status").
		WithArgs("m1", string(models.StatusApproved), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Approve(context.Background(), "m1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialApproveMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("UPDATE materials SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Approve(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialIncrementViews(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE materials SET views = views + 1 WHERE id = $1 RETURNING views")).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"views"}).AddRow(6))

	views, err := repo.IncrementViews(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("DELETE FROM materials").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialCountBySubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM materials WHERE subject_id = $1")).
		WithArgs("c-prog").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountBySubject(context.Background(), "c-prog")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
