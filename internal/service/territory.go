package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"terrabid-api/internal/cache"
	"terrabid-api/internal/model"
	"terrabid-api/internal/repository"
)

// TerritoryService serves territory reads and registration. Ownership
// mutations go exclusively through TransferService.
type TerritoryService struct {
	store       repository.Store
	cache       cache.Cache
	inval       *Invalidator
	snapshotTTL time.Duration
	timeout     time.Duration
}

// NewTerritoryService creates a territory service.
func NewTerritoryService(store repository.Store, c cache.Cache, inval *Invalidator, snapshotTTL, timeout time.Duration) *TerritoryService {
	return &TerritoryService{
		store:       store,
		cache:       c,
		inval:       inval,
		snapshotTTL: snapshotTTL,
		timeout:     timeout,
	}
}

// GetTerritory returns a territory, cache-first with store fallback.
func (s *TerritoryService) GetTerritory(ctx context.Context, id string) (*model.Territory, error) {
	data, err := s.cache.GetOrSet(ctx, cache.TerritoryKey(id), s.snapshotTTL, func() ([]byte, error) {
		t, err := s.store.GetTerritory(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, ErrTerritoryNotFound
		}
		return json.Marshal(t)
	})
	if err != nil {
		return nil, err
	}

	var t model.Territory
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode cached territory: %w", err)
	}
	return &t, nil
}

// RegisterTerritory creates a new unowned territory (admin surface).
func (s *TerritoryService) RegisterTerritory(ctx context.Context, id string) (*model.Territory, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: territory id is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	terr := &model.Territory{
		ID:               id,
		ProtectionStatus: model.ProtectionNone,
		UpdatedAt:        time.Now().UTC(),
	}
	err := s.store.ExecTx(ctx, func(tx repository.Tx) error {
		existing, err := tx.GetTerritory(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: territory %s already exists", ErrInvalidInput, id)
		}
		return tx.InsertTerritory(ctx, terr)
	})
	if err != nil {
		return nil, err
	}

	s.inval.Territory(ctx, id)
	return terr, nil
}
