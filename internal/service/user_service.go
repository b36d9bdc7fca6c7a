package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

type CreateUserInput struct {
	Username  string `validate:"required,min=3"`
	Password  string `validate:"required,min=8"`
	Role      string `validate:"required"`
	Email     string `validate:"omitempty,email"`
	FirstName string
	LastName  string
	Phone     string
}

// Create registers a new account. Admin only; usernames and emails are
// unique.
func (s *UserService) Create(ctx context.Context, actor model.Actor, input CreateUserInput) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "manage users", Reason: "admin access required"}
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}
	role := model.Role(input.Role)
	if !role.Valid() {
		return nil, &model.ValidationError{Field: "role", Reason: "unknown role " + input.Role}
	}

	taken, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, &model.ConflictError{Entity: "user", Key: "username " + input.Username}
	}
	if input.Email != "" {
		taken, err := s.users.EmailExists(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, &model.ConflictError{Entity: "user", Key: "email " + input.Email}
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       input.Username,
		HashedPassword: string(hashed),
		Role:           role,
		Status:         model.UserStatusActive,
		Email:          input.Email,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Phone:          input.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor model.Actor, id string) (*model.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, &model.ForbiddenError{Action: "view user", Reason: "admin access required"}
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &model.NotFoundError{Entity: "user", ID: id}
	}
	return user, nil
}

type ListUsersInput struct {
	Role   string
	Status string
	Search string
}

func (s *UserService) List(ctx context.Context, actor model.Actor, input ListUsersInput) ([]*model.User, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "list users", Reason: "admin access required"}
	}
	if input.Role != "" && !model.Role(input.Role).Valid() {
		return nil, &model.ValidationError{Field: "role", Reason: "unknown role " + input.Role}
	}
	if input.Status != "" && !model.UserStatus(input.Status).Valid() {
		return nil, &model.ValidationError{Field: "status", Reason: "unknown status " + input.Status}
	}
	return s.users.Find(ctx, repository.UserFilter{
		Role:   model.Role(input.Role),
		Status: model.UserStatus(input.Status),
		Search: input.Search,
	})
}

// SetStatus activates, deactivates or suspends an account. Re-applying the
// current status is rejected so callers notice no-op toggles.
func (s *UserService) SetStatus(ctx context.Context, actor model.Actor, id string, status model.UserStatus) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{Action: "manage users", Reason: "admin access required"}
	}
	if !status.Valid() {
		return &model.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	if user.Status == status {
		return &model.InvalidStateError{
			Entity:  "user",
			ID:      id,
			Current: string(user.Status),
			Action:  "set status " + string(status),
		}
	}

	if err := s.users.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("User status changed",
		zap.String("user_id", id),
		zap.String("status", string(status)))
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string `validate:"required,min=8"`
}

// ChangePassword sets a new password. Users change their own password with
// the current one; admins may reset anyone's without it.
func (s *UserService) ChangePassword(ctx context.Context, actor model.Actor, id string, input ChangePasswordInput) error {
	if !actor.IsAdmin() && actor.UserID != id {
		return &model.ForbiddenError{Action: "change password", Reason: "not the account owner"}
	}
	if err := checkInput(input); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return &model.NotFoundError{Entity: "user", ID: id}
	}

	if !actor.IsAdmin() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.CurrentPassword)); err != nil {
			return fmt.Errorf("current password does not match: %w", model.ErrUnauthorized)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, id, string(hashed)); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", id))
	return nil
}
