package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"ride/internal/clock"
	"ride/internal/domain"
	"ride/internal/repository"
)

// UserService implements account registration and lookup. Role is fixed at
// registration; there is no self-service promotion to manager or admin in
// the pilot.
type UserService struct {
	userRepo repository.UserRepository
	clock    clock.Clock
}

func NewUserService(userRepo repository.UserRepository, clk clock.Clock) *UserService {
	return &UserService{userRepo: userRepo, clock: clk}
}

// RegisterUserRequest contains the parameters for account creation.
type RegisterUserRequest struct {
	Name  string
	Phone string
	Role  domain.Role
}

// RegisterUser creates a new account. Role defaults to passenger when unset.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*domain.User, error) {
	if req.Name == "" {
		return nil, NewError(KindInvalidArgument, "name is required")
	}
	if req.Phone == "" {
		return nil, NewError(KindInvalidArgument, "phone is required")
	}

	role := req.Role
	if role == "" {
		role = domain.RolePassenger
	}
	switch role {
	case domain.RolePassenger, domain.RoleDriver, domain.RoleManager, domain.RoleAdmin:
	default:
		return nil, NewError(KindInvalidArgument, "unknown role: "+string(role))
	}

	existing, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, NewError(KindInvalidArgument, "phone already registered")
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, NewError(KindInvalidArgument, "id is required")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, NewError(KindNotFound, "user not found")
	}
	return user, err
}

// GetUserByPhone retrieves a user by phone number.
func (s *UserService) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, NewError(KindInvalidArgument, "phone is required")
	}
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err == repository.ErrNotFound {
		return nil, NewError(KindNotFound, "user not found")
	}
	return user, err
}

// GetAllUsers retrieves every registered account.
func (s *UserService) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}
