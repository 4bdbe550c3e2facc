// Package inventory manages the product catalog with cached reads.
package inventory

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/example/pos-billing/domain/product"
	"github.com/example/pos-billing/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const maxNameLength = 100

// Service provides product operations with caching.
type Service struct {
	repo    *product.Repository
	cache   cache.CacheService
	sfGroup singleflight.Group
}

// NewService creates a new inventory service.
func NewService(repo *product.Repository, c cache.CacheService) *Service {
	if c == nil {
		c = cache.NewNopCacheService()
	}
	return &Service{
		repo:  repo,
		cache: c,
	}
}

func cacheKeyByID(id string) string {
	return "id:" + id
}

func cacheKeyList(query string) string {
	return "list:" + strings.ToLower(strings.TrimSpace(query))
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, req *CreateProductRequest) (*product.Product, error) {
	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		OfferPrice:  req.OfferPrice,
		Quantity:    req.Quantity,
		Status:      req.Status,
		Image:       req.Image,
		Version:     1,
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.invalidateAll(ctx)
	log.Printf("[inventory] Created product %s (%s), cache invalidated", p.ID, p.Name)
	return p, nil
}

// GetByID retrieves a product using the cache-aside pattern.
// Concurrent misses for the same id share one database query.
func (s *Service) GetByID(ctx context.Context, id string) (*product.Product, bool, error) {
	cacheKey := cacheKeyByID(id)

	var cached product.Product
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("[inventory] Cache error for %s: %v", id, err)
	}
	if found {
		return &cached, true, nil
	}

	val, err, _ := s.sfGroup.Do("product:"+id, func() (any, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, false, err
	}
	p := val.(*product.Product)

	if err := s.cache.Set(ctx, cacheKey, p); err != nil {
		log.Printf("[inventory] Warning: failed to cache product %s: %v", id, err)
	}
	return p, false, nil
}

type cachedList struct {
	Products []*product.Product `json:"products"`
}

// List returns products matching query, newest first.
func (s *Service) List(ctx context.Context, query string) ([]*product.Product, bool, error) {
	cacheKey := cacheKeyList(query)

	var cached cachedList
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("[inventory] Cache error for list: %v", err)
	}
	if found {
		return cached.Products, true, nil
	}

	val, err, _ := s.sfGroup.Do(cacheKey, func() (any, error) {
		return s.repo.Search(ctx, query)
	})
	if err != nil {
		return nil, false, err
	}
	products := val.([]*product.Product)

	if err := s.cache.Set(ctx, cacheKey, cachedList{Products: products}); err != nil {
		log.Printf("[inventory] Warning: failed to cache list: %v", err)
	}
	return products, false, nil
}

// Update applies the changes in req. A stale Version yields ErrVersionConflict.
func (s *Service) Update(ctx context.Context, req *UpdateProductRequest) (*product.Product, error) {
	p, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != p.Version {
		return nil, ErrVersionConflict
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.ClearOffer {
		p.OfferPrice = nil
	} else if req.OfferPrice != nil {
		p.OfferPrice = req.OfferPrice
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Image != nil {
		p.Image = *req.Image
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.Invalidate(ctx, p.ID)
	log.Printf("[inventory] Updated product %s (version %d), caches invalidated", p.ID, p.Version)
	return p, nil
}

// Delete removes a product that no invoice references.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.Invalidate(ctx, id)
	log.Printf("[inventory] Deleted product %s, caches invalidated", id)
	return nil
}

// Stats returns catalog totals. It always reads the database.
func (s *Service) Stats(ctx context.Context) (product.Stats, error) {
	return s.repo.Stats(ctx)
}

// Invalidate drops the cached entries for the given products and every cached list.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := s.cache.Delete(ctx, cacheKeyByID(id)); err != nil {
			log.Printf("[inventory] Warning: failed to invalidate cache for %s: %v", id, err)
		}
	}
	s.invalidateAll(ctx)
}

func (s *Service) invalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("[inventory] Warning: failed to invalidate all cache: %v", err)
	}
}

func validate(p *product.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case len(p.Name) > maxNameLength:
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidProduct, maxNameLength)
	case p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	case p.OfferPrice != nil && (*p.OfferPrice < 0 || math.IsNaN(*p.OfferPrice) || math.IsInf(*p.OfferPrice, 0)):
		return fmt.Errorf("%w: offer price must be a non-negative number", ErrInvalidProduct)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	case p.Status != "" && !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, p.Status)
	}
	return nil
}
