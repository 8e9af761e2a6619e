package indicator

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// IndicatorRegistry manages the indicators of one run, keyed by Key().
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(key string) (Indicator, error)
	ListIndicators() []string
	RemoveIndicator(key string) error
}

// IndicatorRegistryV1 keeps registration order so indicators advance deterministically.
type IndicatorRegistryV1 struct {
	indicators map[string]Indicator
	order      []string
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry.
func NewIndicatorRegistry() *IndicatorRegistryV1 {
	return &IndicatorRegistryV1{
		indicators: make(map[string]Indicator),
	}
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := indicator.Key()
	if _, exists := r.indicators[key]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator %s already registered", key)
	}

	r.indicators[key] = indicator
	r.order = append(r.order, key)

	return nil
}

// GetIndicator retrieves an indicator by key.
func (r *IndicatorRegistryV1) GetIndicator(key string) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[key]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", key)
	}

	return indicator, nil
}

// ListIndicators returns the registered keys in registration order.
func (r *IndicatorRegistryV1) ListIndicators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[key]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", key)
	}

	delete(r.indicators, key)
	r.order = slices.DeleteFunc(r.order, func(k string) bool { return k == key })

	return nil
}
