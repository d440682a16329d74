package models

import "time"

// MaterialType classifies study materials.
type MaterialType string

const (
	TypeNotes      MaterialType = "Notes"
	TypePracticals MaterialType = "Practicals"
	TypeIMP        MaterialType = "IMP"
	TypeAssignment MaterialType = "Assignment"
)

// MaterialTypes lists every valid material type.
var MaterialTypes = []MaterialType{TypeNotes, TypePracticals, TypeIMP, TypeAssignment}

// ValidMaterialType reports whether t names a known material type.
func ValidMaterialType(t MaterialType) bool {
	for _, known := range MaterialTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MaterialStatus tracks the moderation state of a material. There are only
// two live states: a pending material either becomes approved or is deleted.
type MaterialStatus string

const (
	StatusPending  MaterialStatus = "Pending"
	StatusApproved MaterialStatus = "Approved"
)

// Material is a study resource hosted externally and linked by URL.
type Material struct {
	ID         string         `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	SemID      string         `db:"sem_id" json:"sem_id"`
	Type       MaterialType   `db:"type" json:"type"`
	Link       string         `db:"link" json:"link"`
	Status     MaterialStatus `db:"status" json:"status"`
	Views      int64          `db:"views" json:"views"`
	Downloads  int64          `db:"downloads" json:"downloads"`
	UploadedBy string         `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  Instant        `db:"created_at" json:"created_at"`
	ApprovedAt *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
}
