package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_crm/internal/config"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/Freeeeeet/tutor_crm/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App bundles the wired service layer and owns the database pool.
type App struct {
	Pool *pgxpool.Pool

	Auth     *service.AuthService
	Users    *service.UserService
	Students *service.StudentService
	Pricing  *service.PricingService
	Lessons  *service.LessonService
	Earnings *service.EarningsService
	Billing  *service.BillingService
	Payments *service.PaymentService
	Stats    *service.StatsService
}

// New connects to the database, applies pending migrations and wires the
// repositories into the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, cfg.MigrationsDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	users := repository.NewUserRepository(pool)
	students := repository.NewStudentRepository(pool)
	lessons := repository.NewLessonRepository(pool)
	pricing := repository.NewPricingRepository(pool)
	payments := repository.NewPaymentRepository(pool)

	defaults := service.DefaultRates{
		Individual: cfg.DefaultIndividualPrice,
		Group:      cfg.DefaultGroupPrice,
	}

	pricingSvc := service.NewPricingService(pricing, defaults, logger)

	app := &App{
		Pool:     pool,
		Auth:     service.NewAuthService(users, cfg.JWTSecret, cfg.AccessTokenTTL, logger),
		Users:    service.NewUserService(users, logger),
		Students: service.NewStudentService(students, logger),
		Pricing:  pricingSvc,
		Lessons:  service.NewLessonService(lessons, students, users, logger),
		Earnings: service.NewEarningsService(lessons, users, pricingSvc, logger),
		Billing:  service.NewBillingService(lessons, payments, students, pricingSvc, logger),
		Payments: service.NewPaymentService(payments, lessons, logger),
		Stats:    service.NewStatsService(lessons, students, users, payments, pricing, logger),
	}
	return app, nil
}

func (a *App) Close() {
	a.Pool.Close()
}
