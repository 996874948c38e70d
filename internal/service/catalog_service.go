package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateGroupInput carries the fields accepted when creating a product group.
// Slug is generated from Name when left empty.
type CreateGroupInput struct {
	ParentID    *uuid.UUID
	Name        string
	Description string
	Slug        string
	ImageURL    string
}

// CreateProductInput carries the fields accepted when creating a product.
type CreateProductInput struct {
	GroupID     *uuid.UUID
	Name        string
	Description string
	Slug        string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
}

// CatalogService exposes the storefront catalog: product groups arranged in a
// two-level tree and the products inside them.
type CatalogService interface {
	ListGroups(ctx context.Context) ([]*domain.ProductGroup, error)
	ListParentGroups(ctx context.Context) ([]*domain.ProductGroup, error)
	ListChildGroups(ctx context.Context, parentID uuid.UUID) ([]*domain.ProductGroup, error)
	CountChildGroups(ctx context.Context, parentID uuid.UUID) (int, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.ProductGroup, error)
	GetGroupBySlug(ctx context.Context, slug string) (*domain.ProductGroup, error)
	CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.ProductGroup, error)
	UpdateGroup(ctx context.Context, group *domain.ProductGroup) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListProductsByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	RelatedProducts(ctx context.Context, productID uuid.UUID) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	groupRepo   repository.GroupRepository
	productRepo repository.ProductRepository
	cache       *cache.Cache
	logger      *zap.Logger
	rand        *rand.Rand
}

// NewCatalogService creates a new instance of CatalogService. Group reads are
// cached in redis with a TTL and invalidated on every group write; cache
// failures degrade to repository reads.
func NewCatalogService(
	groupRepo repository.GroupRepository,
	productRepo repository.ProductRepository,
	groupCache *cache.Cache,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		groupRepo:   groupRepo,
		productRepo: productRepo,
		cache:       groupCache,
		logger:      logger,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const groupCachePrefix = "groups:"

// relatedSampleSize is the number of products picked from each pool when
// building the related-products block.
const relatedSampleSize = 3

func (s *catalogService) ListGroups(ctx context.Context) ([]*domain.ProductGroup, error) {
	return s.cachedGroups(ctx, groupCachePrefix+"all", func(ctx context.Context) ([]*domain.ProductGroup, error) {
		return s.groupRepo.List(ctx)
	})
}

func (s *catalogService) ListParentGroups(ctx context.Context) ([]*domain.ProductGroup, error) {
	return s.cachedGroups(ctx, groupCachePrefix+"parents", func(ctx context.Context) ([]*domain.ProductGroup, error) {
		return s.groupRepo.ListParents(ctx)
	})
}

func (s *catalogService) ListChildGroups(ctx context.Context, parentID uuid.UUID) ([]*domain.ProductGroup, error) {
	key := groupCachePrefix + "children:" + parentID.String()
	return s.cachedGroups(ctx, key, func(ctx context.Context) ([]*domain.ProductGroup, error) {
		return s.groupRepo.ListChildren(ctx, parentID)
	})
}

func (s *catalogService) CountChildGroups(ctx context.Context, parentID uuid.UUID) (int, error) {
	return s.groupRepo.CountChildren(ctx, parentID)
}

func (s *catalogService) GetGroup(ctx context.Context, id uuid.UUID) (*domain.ProductGroup, error) {
	key := groupCachePrefix + "id:" + id.String()

	var cached domain.ProductGroup
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("group cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, group); err != nil {
		s.logger.Warn("group cache write failed", zap.String("key", key), zap.Error(err))
	}

	return group, nil
}

func (s *catalogService) GetGroupBySlug(ctx context.Context, groupSlug string) (*domain.ProductGroup, error) {
	key := groupCachePrefix + "slug:" + groupSlug

	var cached domain.ProductGroup
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("group cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	group, err := s.groupRepo.FindBySlug(ctx, groupSlug)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, group); err != nil {
		s.logger.Warn("group cache write failed", zap.String("key", key), zap.Error(err))
	}

	return group, nil
}

func (s *catalogService) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.ProductGroup, error) {
	group := &domain.ProductGroup{
		ID:          uuid.New(),
		ParentID:    input.ParentID,
		Name:        input.Name,
		Description: input.Description,
		Slug:        input.Slug,
		ImageURL:    input.ImageURL,
		CreatedAt:   time.Now(),
	}
	if group.Slug == "" {
		group.Slug = slug.Make(group.Name)
	}

	if group.ParentID != nil {
		if _, err := s.groupRepo.FindByID(ctx, *group.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.invalidateGroups(ctx)
	return group, nil
}

func (s *catalogService) UpdateGroup(ctx context.Context, group *domain.ProductGroup) error {
	if group.Slug == "" {
		group.Slug = slug.Make(group.Name)
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return err
	}

	s.invalidateGroups(ctx)
	return nil
}

func (s *catalogService) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.groupRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.invalidateGroups(ctx)
	return nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *catalogService) ListProductsByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Product, error) {
	return s.productRepo.ListByGroup(ctx, groupID)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindLiveByID(ctx, id)
}

func (s *catalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	return s.productRepo.FindBySlug(ctx, productSlug)
}

// RelatedProducts picks a few random products from the same group as the
// given product and a few from the rest of the catalog.
func (s *catalogService) RelatedProducts(ctx context.Context, productID uuid.UUID) ([]*domain.Product, error) {
	product, err := s.productRepo.FindLiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	all, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var sameGroup, others []*domain.Product
	for _, candidate := range all {
		if candidate.ID == product.ID {
			continue
		}
		if product.GroupID != nil && candidate.GroupID != nil && *candidate.GroupID == *product.GroupID {
			sameGroup = append(sameGroup, candidate)
		} else {
			others = append(others, candidate)
		}
	}

	related := s.sample(sameGroup, relatedSampleSize)
	related = append(related, s.sample(others, relatedSampleSize)...)
	return related, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:          uuid.New(),
		GroupID:     input.GroupID,
		Name:        input.Name,
		Description: input.Description,
		Slug:        input.Slug,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		CreatedAt:   time.Now(),
	}
	if product.Slug == "" {
		product.Slug = slug.Make(product.Name)
	}

	if product.GroupID != nil {
		if _, err := s.groupRepo.FindByID(ctx, *product.GroupID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if product.Slug == "" {
		product.Slug = slug.Make(product.Name)
	}
	return s.productRepo.Update(ctx, product)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.SoftDelete(ctx, id)
}

func (s *catalogService) cachedGroups(ctx context.Context, key string, load func(context.Context) ([]*domain.ProductGroup, error)) ([]*domain.ProductGroup, error) {
	var cached []*domain.ProductGroup
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("group cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	groups, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product groups: %w", err)
	}

	if err := s.cache.Set(ctx, key, groups); err != nil {
		s.logger.Warn("group cache write failed", zap.String("key", key), zap.Error(err))
	}

	return groups, nil
}

func (s *catalogService) invalidateGroups(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, groupCachePrefix); err != nil {
		s.logger.Warn("group cache invalidation failed", zap.Error(err))
	}
}

// sample returns up to n elements of pool in random order without repeats.
func (s *catalogService) sample(pool []*domain.Product, n int) []*domain.Product {
	if len(pool) <= n {
		shuffled := make([]*domain.Product, len(pool))
		copy(shuffled, pool)
		s.rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled
	}

	picked := make([]*domain.Product, 0, n)
	for _, i := range s.rand.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}
