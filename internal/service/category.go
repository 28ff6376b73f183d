package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category with this slug already exists")
)

const categoryListKey = "categories:all"

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	cache        cache
	activity     *ActivityLogger
}

func NewCategoryService(categoryRepo repository.CategoryRepository, redisClient *redis.Client, activity *ActivityLogger) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, cache: cache{rdb: redisClient}, activity: activity}
}

func (s *CategoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	var cached []dto.CategoryResponse
	if s.cache.get(ctx, categoryListKey, &cached) {
		return cached, nil
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}

	s.cache.set(ctx, categoryListKey, items, categoryCacheTTL)
	return items, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	key := "category:" + id.String()
	var resp dto.CategoryResponse
	if s.cache.get(ctx, key, &resp) {
		return &resp, nil
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	resp = toCategoryResponse(category)
	s.cache.set(ctx, key, resp, categoryCacheTTL)
	return &resp, nil
}

func (s *CategoryService) Create(ctx context.Context, actor uuid.UUID, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	category := &model.Category{Name: req.Name, Slug: slug.Make(req.Name), Description: req.Description}
	if category.Slug == "" {
		return nil, fmt.Errorf("%w: name has no sluggable characters", ErrInvalidInput)
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.cache.del(ctx, categoryListKey)
	s.activity.Record(ctx, actor, ActionCreate, "category", category.ID.String(), "category "+category.Name+" created", nil)
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Update(ctx context.Context, actor, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil {
		category.Name = *req.Name
		category.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.cache.del(ctx, categoryListKey, "category:"+id.String())
	s.activity.Record(ctx, actor, ActionUpdate, "category", id.String(), "category "+category.Name+" updated", nil)
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	s.cache.del(ctx, categoryListKey, "category:"+id.String())
	s.activity.Record(ctx, actor, ActionDelete, "category", id.String(), "category deleted", nil)
	return nil
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
