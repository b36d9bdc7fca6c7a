package model

import (
	"strings"
	"time"
	"unicode"
)

// PricingEntry is the price-per-hour table row for a (subject, education
// level) pair, split into individual and group rates. At most one active
// entry may exist per pair, matched case-insensitively on subject.
type PricingEntry struct {
	ID              string         `json:"id"`
	Subject         string         `json:"subject"`
	EducationLevel  EducationLevel `json:"education_level"`
	IndividualPrice float64        `json:"individual_price"`
	GroupPrice      float64        `json:"group_price"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// PriceFor returns the rate for the given lesson type.
func (p *PricingEntry) PriceFor(lessonType LessonType) float64 {
	if lessonType == LessonTypeGroup {
		return p.GroupPrice
	}
	return p.IndividualPrice
}

// NormalizeSubject trims and title-cases a subject name for storage.
// Matching elsewhere stays case-insensitive, this only keeps the stored
// form presentable.
func NormalizeSubject(subject string) string {
	words := strings.Fields(subject)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
