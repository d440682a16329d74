package models

// Stats are aggregates derived from the live collections. Views and
// downloads are summed over approved materials only. Stats are always
// recomputed from the mirrors, never independently mutated.
type Stats struct {
	TotalViews        int64 `json:"total_views"`
	TotalDownloads    int64 `json:"total_downloads"`
	PendingRequests   int   `json:"pending_requests"`
	TotalMaterials    int   `json:"total_materials"`
	ApprovedMaterials int   `json:"approved_materials"`
	TotalSubjects     int   `json:"total_subjects"`
	TotalSemesters    int   `json:"total_semesters"`
}
