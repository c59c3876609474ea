package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/agrocart/internal/models"
)

// Memory is the in-process catalog served by the demonstration API. Nothing
// survives a restart.
type Memory struct {
	mu       sync.RWMutex
	products map[string]*models.Product
	now      func() time.Time
}

func NewMemory(seed ...models.Product) *Memory {
	m := &Memory{
		products: make(map[string]*models.Product),
		now:      time.Now,
	}
	for _, p := range seed {
		if p.Version == 0 {
			p.Version = 1
		}
		m.products[p.ID] = &p
	}
	return m
}

func (m *Memory) List(_ context.Context, opts ListOptions) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if opts.Matches(*p) {
			products = append(products, *p)
		}
	}

	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})

	return products, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := *p
	return &out, nil
}

func (m *Memory) Create(_ context.Context, p models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}
	now := m.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	if err := Validate(p); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.ID]; exists {
		return nil, ValidationErrors{"id": "Product ID already exists"}
	}
	m.products[p.ID] = &p

	out := p
	return &out, nil
}

func (m *Memory) Update(_ context.Context, id string, patch ProductPatch) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if patch.Version != nil && *patch.Version != current.Version {
		return nil, ErrVersionConflict
	}

	updated := *current
	patch.Apply(&updated)
	updated.ID = id
	if err := Validate(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = m.now().UTC()
	updated.Version++

	m.products[id] = &updated
	out := updated
	return &out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if p.Status == models.ProductStatusDeleted {
		return nil
	}

	p.Status = models.ProductStatusDeleted
	p.IsPublic = false
	p.UpdatedAt = m.now().UTC()
	p.Version++
	return nil
}

// Stock returns the remaining quantity; deleted products have none.
func (m *Memory) Stock(_ context.Context, id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return 0, ErrProductNotFound
	}
	if p.Status == models.ProductStatusDeleted {
		return 0, nil
	}
	return p.StockQuantity, nil
}

// DecrementStock applies all lines or none.
func (m *Memory) DecrementStock(_ context.Context, lines []StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	need := make(map[string]int, len(lines))
	for _, l := range lines {
		need[l.ProductID] += l.Quantity
	}

	for id, qty := range need {
		p, ok := m.products[id]
		if !ok {
			return ErrProductNotFound
		}
		if p.StockQuantity < qty {
			return ErrInsufficientStock
		}
	}

	now := m.now().UTC()
	for id, qty := range need {
		p := m.products[id]
		p.StockQuantity -= qty
		p.UpdatedAt = now
		p.Version++
	}
	return nil
}
