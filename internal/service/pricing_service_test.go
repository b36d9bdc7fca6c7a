package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	adminActor   = model.Actor{UserID: "admin-1", Role: model.RoleAdmin}
	teacherActor = model.Actor{UserID: "teacher-1", Role: model.RoleTeacher}
)

func newTestPricingService(store *fakePricingStore) *PricingService {
	return NewPricingService(store, DefaultRates{Individual: 45, Group: 28}, zap.NewNop())
}

func seedPricing(t *testing.T, svc *PricingService, subject, level string, individual, group float64) *model.PricingEntry {
	t.Helper()
	entry, err := svc.Create(context.Background(), adminActor, CreatePricingInput{
		Subject:         subject,
		EducationLevel:  level,
		IndividualPrice: individual,
		GroupPrice:      group,
	})
	require.NoError(t, err)
	return entry
}

func TestPricingResolveExactMatch(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	price, err := svc.Resolve(context.Background(), "Mathematics", model.LevelSecondary, model.LessonTypeIndividual)
	require.NoError(t, err)
	assert.Equal(t, 60.0, price)

	price, err = svc.Resolve(context.Background(), "MATHEMATICS", model.LevelSecondary, model.LessonTypeGroup)
	require.NoError(t, err)
	assert.Equal(t, 35.0, price)
}

func TestPricingResolveFallsBackToAnyLevel(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	// No elementary entry exists, the secondary one is used instead.
	price, err := svc.Resolve(context.Background(), "Mathematics", model.LevelElementary, model.LessonTypeIndividual)
	require.NoError(t, err)
	assert.Equal(t, 60.0, price)
}

func TestPricingResolveFallsBackToDefaults(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())

	price, err := svc.Resolve(context.Background(), "Chemistry", model.LevelMiddle, model.LessonTypeIndividual)
	require.NoError(t, err)
	assert.Equal(t, 45.0, price)

	price, err = svc.Resolve(context.Background(), "Chemistry", model.LevelMiddle, model.LessonTypeGroup)
	require.NoError(t, err)
	assert.Equal(t, 28.0, price)
}

func TestPricingCreateConflict(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	_, err := svc.Create(context.Background(), adminActor, CreatePricingInput{
		Subject:         "MATHEMATICS",
		EducationLevel:  "secondary",
		IndividualPrice: 70,
		GroupPrice:      40,
	})
	assert.True(t, errors.Is(err, model.ErrConflict))
}

func TestPricingCreateValidation(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())

	_, err := svc.Create(context.Background(), adminActor, CreatePricingInput{
		Subject:         "mathematics",
		EducationLevel:  "secondary",
		IndividualPrice: 0,
		GroupPrice:      30,
	})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = svc.Create(context.Background(), adminActor, CreatePricingInput{
		Subject:         "mathematics",
		EducationLevel:  "kindergarten",
		IndividualPrice: 50,
		GroupPrice:      30,
	})
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestPricingCreateRequiresAdmin(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())

	_, err := svc.Create(context.Background(), teacherActor, CreatePricingInput{
		Subject:         "mathematics",
		EducationLevel:  "secondary",
		IndividualPrice: 50,
		GroupPrice:      30,
	})
	assert.True(t, errors.Is(err, model.ErrForbidden))
}

func TestPricingCreateNormalizesSubjectAndLevel(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	entry := seedPricing(t, svc, "  english LITERATURE ", "preparatory", 50, 30)

	assert.Equal(t, "English Literature", entry.Subject)
	assert.Equal(t, model.LevelMiddle, entry.EducationLevel)
}

func TestPricingUpdateConflictOnRekey(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	seedPricing(t, svc, "mathematics", "secondary", 60, 35)
	other := seedPricing(t, svc, "mathematics", "elementary", 50, 30)

	level := "secondary"
	_, err := svc.Update(context.Background(), adminActor, other.ID, UpdatePricingInput{EducationLevel: &level})
	assert.True(t, errors.Is(err, model.ErrConflict))
}

func TestPricingUpdatePrices(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	entry := seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	price := 65.0
	updated, err := svc.Update(context.Background(), adminActor, entry.ID, UpdatePricingInput{IndividualPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 65.0, updated.IndividualPrice)
	assert.Equal(t, 35.0, updated.GroupPrice)
}

func TestPricingDelete(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	entry := seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	require.NoError(t, svc.Delete(context.Background(), adminActor, entry.ID))

	err := svc.Delete(context.Background(), adminActor, entry.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestPricingLookup(t *testing.T) {
	svc := newTestPricingService(newFakePricingStore())
	seedPricing(t, svc, "mathematics", "secondary", 60, 35)

	lookup, err := svc.Lookup(context.Background(), "mathematics", model.LevelSecondary, model.LessonTypeGroup)
	require.NoError(t, err)
	assert.Equal(t, 35.0, lookup.PricePerHour)

	_, err = svc.Lookup(context.Background(), "chemistry", model.LevelSecondary, model.LessonTypeGroup)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
