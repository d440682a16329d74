package models

import "time"

// ReportReason enumerates why a material was flagged. "Other" reasons carry
// free-form detail after a colon, e.g. "Other: pages are out of order".
type ReportReason string

const (
	ReasonBrokenLink ReportReason = "Broken Link"
	ReasonWrongFile  ReportReason = "Wrong File Attached"
	ReasonOutdated   ReportReason = "Outdated / Old Syllabus"
	ReasonOther      ReportReason = "Other"
)

// ReportStatus tracks admin triage of a report.
type ReportStatus string

const (
	ReportUnread   ReportStatus = "unread"
	ReportResolved ReportStatus = "resolved"
)

// Report is an issue flag raised by a user against a material. The material
// snapshot fields are denormalised so the report stays readable even after
// the material is deleted.
type Report struct {
	ID            string       `db:"id" json:"id"`
	MaterialID    string       `db:"material_id" json:"material_id"`
	MaterialTitle string       `db:"material_title" json:"material_title"`
	MaterialLink  string       `db:"material_link" json:"material_link"`
	Subject       string       `db:"subject" json:"subject"`
	Semester      string       `db:"semester" json:"semester"`
	Reason        string       `db:"reason" json:"reason"`
	Status        ReportStatus `db:"status" json:"status"`
	ReportedBy    string       `db:"reported_by" json:"reported_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
