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

type mockReportRepo struct {
	byID     map[string]*models.Report
	created  []*models.Report
	statuses map[string]models.ReportStatus
	deleted  []string
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{byID: map[string]*models.Report{}, statuses: map[string]models.ReportStatus{}}
}

func (m *mockReportRepo) ListAll(context.Context) ([]models.Report, error) {
	var reports []models.Report
	for _, r := range m.byID {
		reports = append(reports, *r)
	}
	return reports, nil
}

func (m *mockReportRepo) FindByID(_ context.Context, id string) (*models.Report, error) {
	report, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *report
	return &clone, nil
}

func (m *mockReportRepo) Create(_ context.Context, report *models.Report) error {
	report.ID = "generated"
	m.created = append(m.created, report)
	return nil
}

func (m *mockReportRepo) SetStatus(_ context.Context, id string, status models.ReportStatus) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	m.statuses[id] = status
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func newReportFixture() (*ReportService, *mockReportRepo, *mockMaterialRepo, *recordingNotifier) {
	reports := newMockReportRepo()
	materials := newMockMaterialRepo()
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{
		"c-prog": {ID: "c-prog", Name: "C Programming", SemID: 1},
	}}
	notifier := &recordingNotifier{}
	svc := NewReportService(reports, materials, subjects, notifier, nil, nil)
	return svc, reports, materials, notifier
}

func TestSubmitReportSnapshotsMaterial(t *testing.T) {
	svc, reports, materials, notifier := newReportFixture()
	materials.byID["m1"] = &models.Material{
		ID: "m1", Title: "Unit 1 Notes", SubjectID: "c-prog", SemID: "1",
		Link: "https://example.com/notes",
	}

	report, err := svc.Submit(context.Background(), SubmitReportRequest{
		MaterialID: "m1",
		Reason:     "Broken Link",
		ReportedBy: "asha@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportUnread, report.Status)
	assert.Equal(t, "Unit 1 Notes", report.MaterialTitle)
	assert.Equal(t, "C Programming", report.Subject)
	assert.Equal(t, "1", report.Semester)
	assert.Equal(t, "Broken Link", report.Reason)
	require.Len(t, reports.created, 1)
	assert.Equal(t, []string{collectionReports}, notifier.events)
}

func TestSubmitReportOtherRequiresDetail(t *testing.T) {
	svc, _, materials, _ := newReportFixture()
	materials.byID["m1"] = &models.Material{ID: "m1", SubjectID: "c-prog"}

	_, err := svc.Submit(context.Background(), SubmitReportRequest{MaterialID: "m1", Reason: "Other"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitReportOtherAppendsDetail(t *testing.T) {
	svc, _, materials, _ := newReportFixture()
	materials.byID["m1"] = &models.Material{ID: "m1", SubjectID: "c-prog"}

	report, err := svc.Submit(context.Background(), SubmitReportRequest{
		MaterialID: "m1",
		Reason:     "Other",
		Detail:     "pages are out of order",
	})
	require.NoError(t, err)
	assert.Equal(t, "Other: pages are out of order", report.Reason)
}

func TestSubmitReportUnknownReason(t *testing.T) {
	svc, _, materials, _ := newReportFixture()
	materials.byID["m1"] = &models.Material{ID: "m1", SubjectID: "c-prog"}

	_, err := svc.Submit(context.Background(), SubmitReportRequest{MaterialID: "m1", Reason: "Too Hard"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitReportMissingMaterial(t *testing.T) {
	svc, _, _, _ := newReportFixture()

	_, err := svc.Submit(context.Background(), SubmitReportRequest{MaterialID: "ghost", Reason: "Broken Link"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResolveAndReopenReport(t *testing.T) {
	svc, reports, _, _ := newReportFixture()
	reports.byID["r1"] = &models.Report{ID: "r1", Status: models.ReportUnread}

	report, err := svc.Resolve(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, report.Status)
	assert.Equal(t, models.ReportResolved, reports.statuses["r1"])

	report, err = svc.Reopen(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportUnread, report.Status)
}

func TestDeleteReportMissing(t *testing.T) {
	svc, _, _, _ := newReportFixture()

	err := svc.Delete(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
