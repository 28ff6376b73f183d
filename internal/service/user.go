package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/repository"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserHasHistory = errors.New("user has orders and cannot be deleted")
)

type UserService struct {
	userRepo repository.UserRepository
	activity *ActivityLogger
}

func NewUserService(userRepo repository.UserRepository, activity *ActivityLogger) *UserService {
	return &UserService{userRepo: userRepo, activity: activity}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) List(ctx context.Context, req dto.ListUsersRequest) (*dto.UserListResponse, error) {
	users, total, err := s.userRepo.List(ctx, req.Limit, req.Offset(), req.Search)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return &dto.UserListResponse{Users: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *UserService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if errors.Is(err, repository.ErrReferenced) {
			return ErrUserHasHistory
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.activity.Record(ctx, actor, ActionDelete, "user", id.String(), "user deleted", nil)
	return nil
}
