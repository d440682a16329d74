package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

func material(id, title, subject, sem string, mtype models.MaterialType, status models.MaterialStatus, views int64, created time.Time) models.Material {
	return models.Material{
		ID:        id,
		Title:     title,
		SubjectID: subject,
		SemID:     sem,
		Type:      mtype,
		Status:    status,
		Views:     views,
		CreatedAt: models.NewInstant(created),
	}
}

func fixture() []models.Material {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Material{
		material("1", "B-Notes", "c-prog", "1", models.TypeNotes, models.StatusApproved, 10, base.Add(2*time.Hour)),
		material("2", "A-Notes", "c-prog", "1", models.TypeNotes, models.StatusApproved, 30, base.Add(time.Hour)),
		material("3", "C-Notes", "c-prog", "1", models.TypeNotes, models.StatusApproved, 20, base.Add(3*time.Hour)),
		material("4", "Unit 2 Practical", "c-prog", "1", models.TypePracticals, models.StatusApproved, 5, base),
		material("5", "Maths Assignment", "maths", "2", models.TypeAssignment, models.StatusApproved, 1, base),
		material("6", "Draft Notes", "c-prog", "1", models.TypeNotes, models.StatusPending, 0, base),
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	input := fixture()
	snapshot := make([]models.Material, len(input))
	copy(snapshot, input)

	first := Run(input, Params{Status: models.StatusApproved, Sort: SortTitleAsc})
	second := Run(input, Params{Status: models.StatusApproved, Sort: SortTitleAsc})

	assert.Equal(t, snapshot, input)
	assert.Equal(t, first, second)
}

func TestRunStatusGate(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusApproved})
	require.Len(t, result, 5)
	for _, m := range result {
		assert.Equal(t, models.StatusApproved, m.Status)
	}
}

func TestRunPendingOnly(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusPending})
	require.Len(t, result, 1)
	assert.Equal(t, "6", result[0].ID)
}

func TestRunTypeFilterExact(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusApproved, Type: string(models.TypeNotes)})
	require.Len(t, result, 3)
	for _, m := range result {
		assert.Equal(t, models.TypeNotes, m.Type)
	}

	all := Run(fixture(), Params{Status: models.StatusApproved, Type: All})
	assert.Len(t, all, 5)
}

func TestRunSubjectAndSemesterFilters(t *testing.T) {
	bySubject := Run(fixture(), Params{Status: models.StatusApproved, Subject: "maths"})
	require.Len(t, bySubject, 1)
	assert.Equal(t, "5", bySubject[0].ID)

	bySem := Run(fixture(), Params{Status: models.StatusApproved, Semester: "1"})
	assert.Len(t, bySem, 4)
}

func TestRunSearchNarrows(t *testing.T) {
	unfiltered := Run(fixture(), Params{Status: models.StatusApproved})
	searched := Run(fixture(), Params{Status: models.StatusApproved, Search: "notes"})

	assert.LessOrEqual(t, len(searched), len(unfiltered))
	ids := make(map[string]bool, len(unfiltered))
	for _, m := range unfiltered {
		ids[m.ID] = true
	}
	for _, m := range searched {
		assert.True(t, ids[m.ID], "search result %s missing from unfiltered set", m.ID)
	}
}

func TestRunSearchCaseInsensitiveTitle(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusApproved, Search: "a-NOTES"})
	require.Len(t, result, 1)
	assert.Equal(t, "A-Notes", result[0].Title)
}

func TestRunSearchExtendedMatch(t *testing.T) {
	names := map[string]string{"c-prog": "C Programming", "maths": "Mathematics"}

	byType := Run(fixture(), Params{Status: models.StatusApproved, Search: "practical", SubjectNames: names})
	require.Len(t, byType, 1)
	assert.Equal(t, "4", byType[0].ID)

	bySubjectName := Run(fixture(), Params{Status: models.StatusApproved, Search: "mathematics", SubjectNames: names})
	require.Len(t, bySubjectName, 1)
	assert.Equal(t, "5", bySubjectName[0].ID)

	// Without the name map only titles match.
	baseline := Run(fixture(), Params{Status: models.StatusApproved, Search: "mathematics"})
	assert.Empty(t, baseline)
}

func TestRunSortTitleAsc(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusApproved, Type: string(models.TypeNotes), Sort: SortTitleAsc})
	require.Len(t, result, 3)
	assert.Equal(t, []string{"A-Notes", "B-Notes", "C-Notes"}, []string{result[0].Title, result[1].Title, result[2].Title})
}

func TestRunSortNewestOldest(t *testing.T) {
	newest := Run(fixture(), Params{Status: models.StatusApproved, Type: string(models.TypeNotes), Sort: SortNewest})
	require.Len(t, newest, 3)
	assert.Equal(t, "C-Notes", newest[0].Title)
	assert.Equal(t, "A-Notes", newest[2].Title)

	oldest := Run(fixture(), Params{Status: models.StatusApproved, Type: string(models.TypeNotes), Sort: SortOldest})
	require.Len(t, oldest, 3)
	assert.Equal(t, "A-Notes", oldest[0].Title)
	assert.Equal(t, "C-Notes", oldest[2].Title)
}

func TestRunSortMostViews(t *testing.T) {
	result := Run(fixture(), Params{Status: models.StatusApproved, Type: string(models.TypeNotes), Sort: SortMostViews})
	require.Len(t, result, 3)
	assert.Equal(t, int64(30), result[0].Views)
	assert.Equal(t, int64(10), result[2].Views)
}

func TestRunUnknownSortKeepsOrder(t *testing.T) {
	input := fixture()
	result := Run(input, Params{Status: models.StatusApproved, Sort: "banana"})
	require.Len(t, result, 5)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, "5", result[4].ID)
}

func TestRunEmptyInput(t *testing.T) {
	assert.Empty(t, Run(nil, Params{Status: models.StatusApproved}))
	assert.Empty(t, Run([]models.Material{}, Params{Status: models.StatusApproved, Sort: SortNewest}))
}

func TestRunMissingTitle(t *testing.T) {
	input := []models.Material{
		{ID: "1", Status: models.StatusApproved},
		{ID: "2", Title: "Alpha", Status: models.StatusApproved},
	}
	sorted := Run(input, Params{Status: models.StatusApproved, Sort: SortTitleAsc})
	require.Len(t, sorted, 2)
	assert.Equal(t, "1", sorted[0].ID)

	searched := Run(input, Params{Status: models.StatusApproved, Search: "alpha"})
	require.Len(t, searched, 1)
	assert.Equal(t, "2", searched[0].ID)
}

func TestRunZeroCreatedAtSortsAsNow(t *testing.T) {
	old := material("1", "Old", "s", "1", models.TypeNotes, models.StatusApproved, 0, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	undated := models.Material{ID: "2", Title: "Undated", SubjectID: "s", SemID: "1", Type: models.TypeNotes, Status: models.StatusApproved}

	result := Run([]models.Material{old, undated}, Params{Status: models.StatusApproved, Sort: SortNewest})
	require.Len(t, result, 2)
	assert.Equal(t, "2", result[0].ID)
}
