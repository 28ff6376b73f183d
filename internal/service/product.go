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
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product with this slug already exists")
)

type ProductService struct {
	productRepo repository.ProductRepository
	cache       cache
	activity    *ActivityLogger
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client, activity *ActivityLogger) *ProductService {
	return &ProductService{productRepo: productRepo, cache: cache{rdb: redisClient}, activity: activity}
}

func (s *ProductService) Create(ctx context.Context, actor uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	product := &model.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    true,
		IsFeatured:  req.IsFeatured,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if product.Slug == "" {
		return nil, fmt.Errorf("%w: name has no sluggable characters", ErrInvalidInput)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProductExists
		}
		if errors.Is(err, repository.ErrReferenced) {
			return nil, fmt.Errorf("%w: category_id does not exist", ErrInvalidInput)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.activity.Record(ctx, actor, ActionCreate, "product", product.ID.String(), "product "+product.Name+" created",
		map[string]any{"price": product.Price.String(), "stock": product.Stock})
	resp := toProductResponse(product)
	return &resp, nil
}

// GetByID returns the product. Inactive products are hidden unless
// includeInactive is set.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*dto.ProductResponse, error) {
	return s.get(ctx, "product:"+id.String(), includeInactive, func() (*model.Product, error) {
		return s.productRepo.GetByID(ctx, id)
	})
}

func (s *ProductService) GetBySlug(ctx context.Context, productSlug string, includeInactive bool) (*dto.ProductResponse, error) {
	return s.get(ctx, "product:slug:"+productSlug, includeInactive, func() (*model.Product, error) {
		return s.productRepo.GetBySlug(ctx, productSlug)
	})
}

func (s *ProductService) get(ctx context.Context, key string, includeInactive bool, load func() (*model.Product, error)) (*dto.ProductResponse, error) {
	var resp dto.ProductResponse
	if !s.cache.get(ctx, key, &resp) {
		product, err := load()
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		resp = toProductResponse(product)
		s.cache.set(ctx, key, resp, productCacheTTL)
	}

	if !resp.IsActive && !includeInactive {
		return nil, ErrProductNotFound
	}
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest, isAdmin bool) (*dto.ProductListResponse, error) {
	filter := repository.ProductFilter{
		Limit:           req.Limit,
		Offset:          req.Offset(),
		Search:          req.Search,
		FeaturedOnly:    req.Featured,
		IncludeInactive: isAdmin && req.IncludeInactive,
		Sort:            req.Sort,
		Order:           req.Order,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("%w: category_id", ErrInvalidInput)
		}
		filter.CategoryID = &id
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	oldSlug := product.Slug

	if req.Name != nil {
		product.Name = *req.Name
		product.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProductExists
		}
		if errors.Is(err, repository.ErrReferenced) {
			return nil, fmt.Errorf("%w: category_id does not exist", ErrInvalidInput)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id, oldSlug, product.Slug)
	s.activity.Record(ctx, actor, ActionUpdate, "product", id.String(), "product "+product.Name+" updated", nil)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id, product.Slug)
	s.activity.Record(ctx, actor, ActionDelete, "product", id.String(), "product "+product.Name+" deleted", nil)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID, slugs ...string) {
	keys := []string{"product:" + id.String()}
	for _, sl := range slugs {
		keys = append(keys, "product:slug:"+sl)
	}
	s.cache.del(ctx, keys...)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
