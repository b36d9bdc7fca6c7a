package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRates are the configured fallback prices used when no pricing entry
// matches a lesson at all.
type DefaultRates struct {
	Individual float64
	Group      float64
}

func (d DefaultRates) For(lessonType model.LessonType) float64 {
	if lessonType == model.LessonTypeGroup {
		return d.Group
	}
	return d.Individual
}

type PricingService struct {
	entries  PricingStore
	defaults DefaultRates
	logger   *zap.Logger
}

func NewPricingService(entries PricingStore, defaults DefaultRates, logger *zap.Logger) *PricingService {
	return &PricingService{
		entries:  entries,
		defaults: defaults,
		logger:   logger,
	}
}

// Resolve returns the price per hour for a (subject, level, type) triple.
// Resolution never fails on a miss; it degrades in order:
//  1. active entry matching subject (case-insensitive) and level exactly,
//  2. any active entry for the subject, ignoring the level,
//  3. the configured default rate for the lesson type.
//
// Callers that need to know a default was used must re-check entry existence
// via ResolveEntry; Resolve itself gives no signal.
func (s *PricingService) Resolve(ctx context.Context, subject string, level model.EducationLevel, lessonType model.LessonType) (float64, error) {
	entry, err := s.ResolveEntry(ctx, subject, level)
	if err != nil {
		return 0, err
	}
	if entry != nil {
		return entry.PriceFor(lessonType), nil
	}
	return s.defaults.For(lessonType), nil
}

// ResolveEntry runs the first two resolution stages and returns the matched
// entry, or nil when only the default rate would apply.
func (s *PricingService) ResolveEntry(ctx context.Context, subject string, level model.EducationLevel) (*model.PricingEntry, error) {
	entry, err := s.entries.FindBySubjectAndLevel(ctx, subject, level)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}
	// Second stage: any level for this subject. This can hand back a price
	// for a different education level; billing only warns on the plain
	// default case, this one stays silent.
	return s.entries.FindAnyBySubject(ctx, subject)
}

// DefaultFor exposes the configured fallback rate for a lesson type.
func (s *PricingService) DefaultFor(lessonType model.LessonType) float64 {
	return s.defaults.For(lessonType)
}

type CreatePricingInput struct {
	Subject         string  `validate:"required"`
	EducationLevel  string  `validate:"required"`
	IndividualPrice float64 `validate:"gt=0"`
	GroupPrice      float64 `validate:"gt=0"`
}

// Create inserts a new pricing entry; the active (subject, level) pair must
// be unique.
func (s *PricingService) Create(ctx context.Context, actor model.Actor, input CreatePricingInput) (*model.PricingEntry, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "manage pricing", Reason: "admin access required"}
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}
	level, ok := model.ParseLevel(input.EducationLevel)
	if !ok {
		return nil, &model.ValidationError{Field: "education_level", Reason: "unknown level " + input.EducationLevel}
	}
	subject := model.NormalizeSubject(input.Subject)

	exists, err := s.entries.SubjectAndLevelExists(ctx, subject, level, "")
	if err != nil {
		return nil, fmt.Errorf("check pricing uniqueness: %w", err)
	}
	if exists {
		return nil, &model.ConflictError{
			Entity: "pricing entry",
			Key:    fmt.Sprintf("subject %q at %s level", subject, level),
		}
	}

	entry := &model.PricingEntry{
		ID:              uuid.NewString(),
		Subject:         subject,
		EducationLevel:  level,
		IndividualPrice: input.IndividualPrice,
		GroupPrice:      input.GroupPrice,
		IsActive:        true,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Pricing entry created",
		zap.String("pricing_id", entry.ID),
		zap.String("subject", entry.Subject),
		zap.String("education_level", string(entry.EducationLevel)))

	return entry, nil
}

type UpdatePricingInput struct {
	Subject         *string
	EducationLevel  *string
	IndividualPrice *float64 `validate:"omitempty,gt=0"`
	GroupPrice      *float64 `validate:"omitempty,gt=0"`
}

func (s *PricingService) Update(ctx context.Context, actor model.Actor, id string, input UpdatePricingInput) (*model.PricingEntry, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "manage pricing", Reason: "admin access required"}
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &model.NotFoundError{Entity: "pricing entry", ID: id}
	}

	subject := entry.Subject
	level := entry.EducationLevel
	if input.Subject != nil {
		subject = model.NormalizeSubject(*input.Subject)
	}
	if input.EducationLevel != nil {
		parsed, ok := model.ParseLevel(*input.EducationLevel)
		if !ok {
			return nil, &model.ValidationError{Field: "education_level", Reason: "unknown level " + *input.EducationLevel}
		}
		level = parsed
	}

	if subject != entry.Subject || level != entry.EducationLevel {
		exists, err := s.entries.SubjectAndLevelExists(ctx, subject, level, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("check pricing uniqueness: %w", err)
		}
		if exists {
			return nil, &model.ConflictError{
				Entity: "pricing entry",
				Key:    fmt.Sprintf("subject %q at %s level", subject, level),
			}
		}
	}

	entry.Subject = subject
	entry.EducationLevel = level
	if input.IndividualPrice != nil {
		entry.IndividualPrice = *input.IndividualPrice
	}
	if input.GroupPrice != nil {
		entry.GroupPrice = *input.GroupPrice
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry permanently.
func (s *PricingService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{Action: "manage pricing", Reason: "admin access required"}
	}
	deleted, err := s.entries.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &model.NotFoundError{Entity: "pricing entry", ID: id}
	}
	s.logger.Info("Pricing entry deleted", zap.String("pricing_id", id))
	return nil
}

func (s *PricingService) Get(ctx context.Context, id string) (*model.PricingEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &model.NotFoundError{Entity: "pricing entry", ID: id}
	}
	return entry, nil
}

func (s *PricingService) List(ctx context.Context) ([]*model.PricingEntry, error) {
	return s.entries.GetAll(ctx)
}

// PriceLookup is the public price-check result for a known entry.
type PriceLookup struct {
	Subject        string               `json:"subject"`
	EducationLevel model.EducationLevel `json:"education_level"`
	LessonType     model.LessonType     `json:"lesson_type"`
	PricePerHour   float64              `json:"price_per_hour"`
}

// Lookup returns the entry-backed price for the triple, or NotFound when no
// entry covers the subject and level. Unlike Resolve it never falls back to
// defaults.
func (s *PricingService) Lookup(ctx context.Context, subject string, level model.EducationLevel, lessonType model.LessonType) (*PriceLookup, error) {
	entry, err := s.ResolveEntry(ctx, subject, level)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &model.NotFoundError{Entity: "pricing entry", ID: subject + "/" + string(level)}
	}
	return &PriceLookup{
		Subject:        entry.Subject,
		EducationLevel: entry.EducationLevel,
		LessonType:     lessonType,
		PricePerHour:   entry.PriceFor(lessonType),
	}, nil
}
