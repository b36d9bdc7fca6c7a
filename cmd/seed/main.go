package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/app"
	"github.com/Freeeeeet/tutor_crm/internal/config"
	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/Freeeeeet/tutor_crm/internal/service"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a development database with demo accounts, pricing, students and a
// couple of lessons. Refuses to run outside the development environment.
func main() {
	confirm := flag.Bool("confirm", false, "actually write the sample data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Environment != "development" {
		log.Fatalf("Seeding is only allowed in development, ENV is %q", cfg.Environment)
	}
	if !*confirm {
		log.Fatal("Pass --confirm to write sample data")
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
	defer application.Close()

	// The first admin has to bypass the service layer, nobody exists yet to
	// authorize its creation.
	admin, err := bootstrapAdmin(ctx, repository.NewUserRepository(application.Pool))
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	adminActor := model.Actor{UserID: admin.ID, Role: model.RoleAdmin}

	teacher, err := application.Users.Create(ctx, adminActor, service.CreateUserInput{
		Username:  "demo_teacher",
		Password:  "teacher-demo-1",
		Role:      string(model.RoleTeacher),
		FirstName: "Dana",
		LastName:  "Weber",
	})
	if err != nil {
		log.Fatalf("Failed to create teacher: %v", err)
	}
	teacherActor := model.Actor{UserID: teacher.ID, Role: model.RoleTeacher}

	for _, p := range []service.CreatePricingInput{
		{Subject: "mathematics", EducationLevel: "elementary", IndividualPrice: 50, GroupPrice: 30},
		{Subject: "mathematics", EducationLevel: "secondary", IndividualPrice: 60, GroupPrice: 35},
		{Subject: "physics", EducationLevel: "middle", IndividualPrice: 55, GroupPrice: 32},
	} {
		if _, err := application.Pricing.Create(ctx, adminActor, p); err != nil {
			log.Fatalf("Failed to create pricing entry: %v", err)
		}
	}

	students := []service.CreateStudentInput{
		{FullName: "Alice Carter", EducationLevel: "elementary", Phone: "+100000001"},
		{FullName: "Bruno Keller", EducationLevel: "secondary"},
		{FullName: "Carmen Diaz", EducationLevel: "middle", Notes: "prefers evening slots"},
	}
	for _, s := range students {
		if _, err := application.Students.Create(ctx, adminActor, s); err != nil {
			log.Fatalf("Failed to create student: %v", err)
		}
	}

	lesson, err := application.Lessons.Submit(ctx, teacherActor, service.SubmitLessonInput{
		Subject:        "mathematics",
		EducationLevel: "elementary",
		LessonType:     string(model.LessonTypeIndividual),
		ScheduledAt:    time.Now().UTC().Add(-48 * time.Hour),
		DurationMin:    90,
		Participants:   []service.ParticipantInput{{StudentName: "Alice Carter"}},
	})
	if err != nil {
		log.Fatalf("Failed to submit lesson: %v", err)
	}
	if err := application.Lessons.Approve(ctx, adminActor, lesson.ID); err != nil {
		log.Fatalf("Failed to approve lesson: %v", err)
	}

	if _, err := application.Lessons.Submit(ctx, teacherActor, service.SubmitLessonInput{
		Subject:        "physics",
		EducationLevel: "middle",
		LessonType:     string(model.LessonTypeGroup),
		ScheduledAt:    time.Now().UTC().Add(24 * time.Hour),
		DurationMin:    60,
		Participants: []service.ParticipantInput{
			{StudentName: "Bruno Keller"},
			{StudentName: "Carmen Diaz"},
		},
	}); err != nil {
		log.Fatalf("Failed to submit lesson: %v", err)
	}

	if _, err := application.Payments.Create(ctx, adminActor, service.CreatePaymentInput{
		StudentName: "Alice Carter",
		Amount:      40,
		Notes:       "partial for March",
	}); err != nil {
		log.Fatalf("Failed to record payment: %v", err)
	}

	logger.Sugar().Infow("Sample data written",
		"admin", admin.Username,
		"teacher", teacher.Username)
}

func bootstrapAdmin(ctx context.Context, users *repository.UserRepository) (*model.User, error) {
	existing, err := users.GetByUsername(ctx, "demo_admin")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin-demo-1"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &model.User{
		ID:             uuid.NewString(),
		Username:       "demo_admin",
		HashedPassword: string(hashed),
		Role:           model.RoleAdmin,
		Status:         model.UserStatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
