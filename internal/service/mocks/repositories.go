package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"shortlink/internal/models"
	"shortlink/internal/repository"

	"github.com/google/uuid"
)

// MockLinkRepository implements repository.LinkRepository in memory for
// testing. All methods are safe for concurrent use.
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*models.Link

	// FailWith, when set, makes every call return this error.
	FailWith error
	// AllCodesTaken makes CodeExists report every code as taken.
	AllCodesTaken bool
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[string]*models.Link),
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = uuid.New()
	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) List(ctx context.Context) ([]*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	links := make([]*models.Link, 0, len(m.links))
	for _, link := range m.links {
		copied := *link
		links = append(links, &copied)
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	if _, exists := m.links[code]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, code)
	return nil
}

func (m *MockLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return false, m.FailWith
	}
	if m.AllCodesTaken {
		return true, nil
	}
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}
	link, exists := m.links[code]
	if !exists {
		return "", repository.ErrLinkNotFound
	}
	link.TotalClicks++
	now := time.Now().UTC()
	link.LastClickedAt = &now
	return link.TargetURL, nil
}

// Seed inserts a link directly, bypassing Create. For test setup.
func (m *MockLinkRepository) Seed(link *models.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	stored := *link
	m.links[link.ShortCode] = &stored
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
}

// MockCodeCache implements repository.CodeCache in memory for testing.
type MockCodeCache struct {
	mu    sync.RWMutex
	taken map[string]bool
}

func NewMockCodeCache() *MockCodeCache {
	return &MockCodeCache{
		taken: make(map[string]bool),
	}
}

func (m *MockCodeCache) IsTaken(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken[code], nil
}

func (m *MockCodeCache) MarkTaken(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taken[code] = true
	return nil
}

func (m *MockCodeCache) Release(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.taken, code)
	return nil
}

func (m *MockCodeCache) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taken = make(map[string]bool)
}
