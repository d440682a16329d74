package models

// Semester is one of a fixed, hardcoded set of four terms. Semesters are
// not persisted and cannot be mutated at runtime.
type Semester struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DefaultSemesters returns the static semester enumeration injected into
// the state store at construction.
func DefaultSemesters() []Semester {
	return []Semester{
		{ID: "1", Name: "Semester 1", Active: true},
		{ID: "2", Name: "Semester 2", Active: true},
		{ID: "3", Name: "Semester 3", Active: true},
		{ID: "4", Name: "Semester 4", Active: true},
	}
}
