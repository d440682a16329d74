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

func TestSubjectListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, sem_id, icon, created_at, updated_at FROM subjects ORDER BY sem_id, name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sem_id", "icon", "created_at", "updated_at"}).
			AddRow("c-prog", "C Programming", 1, "code", now, now).
			AddRow("dsa", "Data Structures", 2, "tree", now, now))

	subjects, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "C Programming", subjects[0].Name)
	assert.Equal(t, 2, subjects[1].SemID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectExistsByNameAndSem(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1) AND sem_id = $2 LIMIT 1")).
		WithArgs("C Programming", 1).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByNameAndSem(context.Background(), "C Programming", 1, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectExistsByNameAndSemExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1) AND sem_id = $2 AND id <> $3 LIMIT 1")).
		WithArgs("C Programming", 1, "c-prog").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByNameAndSem(context.Background(), "C Programming", 1, "c-prog")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))

	subject := &models.Subject{Name: "C Programming", SemID: 1, Icon: "code"}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("UPDATE subjects SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Subject{ID: "missing", Name: "X", SemID: 1})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("DELETE FROM subjects").
		WithArgs("c-prog").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "c-prog"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
