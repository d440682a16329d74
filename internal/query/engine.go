// Package query implements the listing engine: a pure transformation of a
// material collection into a display-ready ordered sequence. It performs no
// I/O and never mutates its input; callers pass the store's mirror and get
// a fresh slice back.
package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/studyhub-dev/study-portal-api/internal/models"
)

// All is the pass-through value for the type/subject/semester axes.
const All = "All"

// Sort keys understood by Run. Anything else leaves the input order intact.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitleAsc  = "title-asc"
	SortMostViews = "most-views"
)

// Params selects and orders materials. Zero values pass everything through
// except Status, which callers must set explicitly; student-facing views
// always query with StatusApproved.
type Params struct {
	Status   models.MaterialStatus
	Type     string
	Subject  string
	Semester string
	Search   string
	Sort     string

	// SubjectNames optionally maps subject ids to display names. When set,
	// free-text search also matches the material type and subject name, as
	// the admin catalogue view does. Title matching is always on.
	SubjectNames map[string]string
}

// Run filters and orders the given materials. The input slice is treated as
// immutable; the result is always a new slice. An empty input yields an
// empty output.
func Run(materials []models.Material, p Params) []models.Material {
	result := make([]models.Material, 0, len(materials))

	search := strings.ToLower(strings.TrimSpace(p.Search))
	for _, m := range materials {
		if p.Status != "" && m.Status != p.Status {
			continue
		}
		if p.Type != "" && p.Type != All && string(m.Type) != p.Type {
			continue
		}
		if p.Subject != "" && p.Subject != All && m.SubjectID != p.Subject {
			continue
		}
		if p.Semester != "" && p.Semester != All && m.SemID != p.Semester {
			continue
		}
		if search != "" && !matches(m, search, p.SubjectNames) {
			continue
		}
		result = append(result, m)
	}

	sortMaterials(result, p.Sort)
	return result
}

func matches(m models.Material, search string, subjectNames map[string]string) bool {
	if strings.Contains(strings.ToLower(m.Title), search) {
		return true
	}
	if subjectNames == nil {
		return false
	}
	if strings.Contains(strings.ToLower(string(m.Type)), search) {
		return true
	}
	if name, ok := subjectNames[m.SubjectID]; ok {
		return strings.Contains(strings.ToLower(name), search)
	}
	return false
}

func sortMaterials(materials []models.Material, key string) {
	switch key {
	case SortNewest:
		now := time.Now()
		sort.SliceStable(materials, func(i, j int) bool {
			return createdInstant(materials[i], now).After(createdInstant(materials[j], now))
		})
	case SortOldest:
		now := time.Now()
		sort.SliceStable(materials, func(i, j int) bool {
			return createdInstant(materials[i], now).Before(createdInstant(materials[j], now))
		})
	case SortTitleAsc:
		// Collators buffer internally, so one is built per call rather than
		// shared package-wide.
		coll := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(materials, func(i, j int) bool {
			return coll.CompareString(materials[i].Title, materials[j].Title) < 0
		})
	case SortMostViews:
		sort.SliceStable(materials, func(i, j int) bool {
			return materials[i].Views > materials[j].Views
		})
	default:
		// Unknown sort key: defensively keep the input order.
	}
}

// createdInstant resolves the creation time of a material. Records with no
// recorded creation time sort as if created at the moment of the read.
func createdInstant(m models.Material, now time.Time) time.Time {
	if !m.CreatedAt.Time.IsZero() {
		return m.CreatedAt.Time
	}
	return now
}
