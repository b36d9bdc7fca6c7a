package model

import "time"

// Student is a person taking lessons, distinct from system accounts.
// Full names are unique case-insensitively; lessons and payments match
// students by name with the stable ID as the preferred key.
type Student struct {
	ID             string         `json:"id"`
	FullName       string         `json:"full_name"`
	Phone          string         `json:"phone,omitempty"`
	EducationLevel EducationLevel `json:"education_level,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}
