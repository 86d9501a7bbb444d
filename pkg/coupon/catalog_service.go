package coupon

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

type (
	// CatalogService serves coupon definitions from an in-process snapshot.
	// Writes go to the repository and then replace the snapshot.
	CatalogService interface {
		Reload(ctx context.Context) error
		ListActive() []*domain.CouponDefinition
		ListAll() []*domain.CouponDefinition
		GetDefinition(id string) (*domain.CouponDefinition, error)
		SetDefinitionActive(ctx context.Context, id string, active bool) (*domain.CouponDefinition, error)
		Seed(ctx context.Context, seeds []domain.CouponSeed) (int, error)
	}

	catalogService struct {
		couponRepository CouponRepository

		mu          sync.RWMutex
		definitions []*domain.CouponDefinition
		byID        map[string]*domain.CouponDefinition
	}
)

func NewCatalogService(couponRepository CouponRepository) CatalogService {
	return &catalogService{
		couponRepository: couponRepository,
		byID:             map[string]*domain.CouponDefinition{},
	}
}

func (s *catalogService) Reload(ctx context.Context) error {
	definitions, err := s.couponRepository.GetDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("reload coupon catalog: %w", err)
	}

	snapshot := make([]*domain.CouponDefinition, 0, len(definitions))
	byID := make(map[string]*domain.CouponDefinition, len(definitions))
	for _, definition := range definitions {
		d := toDomainDefinition(definition)
		snapshot = append(snapshot, d)
		byID[d.ID] = d
	}

	s.mu.Lock()
	s.definitions = snapshot
	s.byID = byID
	s.mu.Unlock()

	log.Infof("coupon catalog loaded: %d definitions", len(snapshot))
	return nil
}

func (s *catalogService) ListActive() []*domain.CouponDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CouponDefinition, 0, len(s.definitions))
	for _, d := range s.definitions {
		if d.IsActive {
			copied := *d
			result = append(result, &copied)
		}
	}
	return result
}

func (s *catalogService) ListAll() []*domain.CouponDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CouponDefinition, 0, len(s.definitions))
	for _, d := range s.definitions {
		copied := *d
		result = append(result, &copied)
	}
	return result
}

func (s *catalogService) GetDefinition(id string) (*domain.CouponDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrCouponDefinitionNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *catalogService) SetDefinitionActive(ctx context.Context, id string, active bool) (*domain.CouponDefinition, error) {
	definitionID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrCouponDefinitionNotFound
	}
	if err := s.couponRepository.UpdateDefinitionActive(ctx, definitionID, active); err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	log.Infof("coupon definition %s active=%t", id, active)
	return s.GetDefinition(id)
}

// Seed inserts every seed whose name is not in the catalog yet and returns how many were created.
func (s *catalogService) Seed(ctx context.Context, seeds []domain.CouponSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		active := true
		if seed.IsActive != nil {
			active = *seed.IsActive
		}

		ok, err := s.couponRepository.CreateDefinitionIfNotExists(ctx, &entities.CouponDefinition{
			ID:             uuid.New(),
			Name:           seed.Name,
			Type:           seed.Type,
			RequiredPoints: seed.RequiredPoints,
			Description:    seed.Description,
			IsActive:       active,
		})
		if err != nil {
			return created, fmt.Errorf("seed coupon %q: %w", seed.Name, err)
		}
		if ok {
			created++
			log.Infof("coupon definition created: %s", seed.Name)
		} else {
			log.Infof("coupon definition already exists: %s", seed.Name)
		}
	}

	if err := s.Reload(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func toDomainDefinition(definition *entities.CouponDefinition) *domain.CouponDefinition {
	return &domain.CouponDefinition{
		ID:             definition.ID.String(),
		Name:           definition.Name,
		Type:           definition.Type,
		RequiredPoints: definition.RequiredPoints,
		Description:    definition.Description,
		IsActive:       definition.IsActive,
	}
}
