package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
)

type mockSubjectRepo struct {
	byID     map[string]*models.Subject
	taken    map[string]bool
	created  []*models.Subject
	updated  []*models.Subject
	deleted  []string
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{byID: map[string]*models.Subject{}, taken: map[string]bool{}}
}

func (m *mockSubjectRepo) FindByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *subject
	return &clone, nil
}

func (m *mockSubjectRepo) ExistsByNameAndSem(_ context.Context, name string, _ int, _ string) (bool, error) {
	return m.taken[name], nil
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	subject.ID = "generated"
	m.created = append(m.created, subject)
	return nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *models.Subject) error {
	m.updated = append(m.updated, subject)
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockMaterialCounter struct {
	counts map[string]int
}

func (m *mockMaterialCounter) CountBySubject(_ context.Context, subjectID string) (int, error) {
	return m.counts[subjectID], nil
}

func newSubjectFixture() (*SubjectService, *mockSubjectRepo, *mockMaterialCounter, *recordingNotifier) {
	repo := newMockSubjectRepo()
	counter := &mockMaterialCounter{counts: map[string]int{}}
	notifier := &recordingNotifier{}
	svc := NewSubjectService(repo, counter, notifier, nil, nil)
	return svc, repo, counter, notifier
}

func TestCreateSubject(t *testing.T) {
	svc, repo, _, notifier := newSubjectFixture()

	subject, err := svc.Create(context.Background(), SubjectRequest{Name: "C Programming", SemID: 1, Icon: "code"})
	require.NoError(t, err)
	assert.Equal(t, "generated", subject.ID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{collectionSubjects}, notifier.events)
}

func TestCreateSubjectDuplicateName(t *testing.T) {
	svc, repo, _, _ := newSubjectFixture()
	repo.taken["C Programming"] = true

	_, err := svc.Create(context.Background(), SubjectRequest{Name: "C Programming", SemID: 1})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
}

func TestCreateSubjectRejectsOutOfRangeSemester(t *testing.T) {
	svc, _, _, _ := newSubjectFixture()

	_, err := svc.Create(context.Background(), SubjectRequest{Name: "Quantum Computing", SemID: 9})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateSubject(t *testing.T) {
	svc, repo, _, _ := newSubjectFixture()
	repo.byID["c-prog"] = &models.Subject{ID: "c-prog", Name: "C Programming", SemID: 1}

	subject, err := svc.Update(context.Background(), "c-prog", SubjectRequest{Name: "C Programming II", SemID: 2})
	require.NoError(t, err)
	assert.Equal(t, "C Programming II", subject.Name)
	assert.Equal(t, 2, subject.SemID)
	require.Len(t, repo.updated, 1)
}

func TestDeleteSubjectBlockedWhileReferenced(t *testing.T) {
	svc, repo, counter, _ := newSubjectFixture()
	repo.byID["c-prog"] = &models.Subject{ID: "c-prog", Name: "C Programming", SemID: 1}
	counter.counts["c-prog"] = 3

	err := svc.Delete(context.Background(), "c-prog")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestDeleteSubjectWithoutMaterials(t *testing.T) {
	svc, repo, _, notifier := newSubjectFixture()
	repo.byID["c-prog"] = &models.Subject{ID: "c-prog", Name: "C Programming", SemID: 1}

	require.NoError(t, svc.Delete(context.Background(), "c-prog"))
	assert.Equal(t, []string{"c-prog"}, repo.deleted)
	assert.Equal(t, []string{collectionSubjects}, notifier.events)
}

func TestDeleteSubjectMissing(t *testing.T) {
	svc, _, _, _ := newSubjectFixture()

	err := svc.Delete(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
