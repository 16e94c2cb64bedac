package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

//go:embed templates/*.json
var defaultFiles embed.FS

var defaultOrder = []string{"landing", "about", "pricing"}

// Defaults returns fresh copies of the built-in landing, about and pricing
// templates, numbered from 1.
func Defaults() ([]*Template, error) {
	templates := make([]*Template, 0, len(defaultOrder))
	for i, name := range defaultOrder {
		data, err := defaultFiles.ReadFile("templates/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read default template %s: %w", name, err)
		}
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decode default template %s: %w", name, err)
		}
		t.ID = int64(i + 1)
		templates = append(templates, &t)
	}
	return templates, nil
}

// MemoryStore keeps templates in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[int64]*Template
	nextID    int64
}

func NewMemoryStore(templates ...*Template) *MemoryStore {
	m := &MemoryStore{templates: make(map[int64]*Template), nextID: 1}
	for _, t := range templates {
		m.put(t)
	}
	return m
}

// NewDefaultStore returns a MemoryStore holding the built-in templates.
func NewDefaultStore() (*MemoryStore, error) {
	templates, err := Defaults()
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(templates...), nil
}

func (m *MemoryStore) put(t *Template) int64 {
	if t.ID == 0 {
		t.ID = m.nextID
	}
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	m.templates[t.ID] = t
	return t.ID
}

func (m *MemoryStore) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok || t.Status != StatusActive {
		return nil, templateNotFound()
	}
	return t, nil
}

func (m *MemoryStore) ListTemplates(ctx context.Context, pageType string) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Template
	for _, t := range m.templates {
		if t.Status == StatusActive && (pageType == "" || t.Type == pageType) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveTemplate(ctx context.Context, t *Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(t), nil
}

func (m *MemoryStore) DeleteTemplate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return templateNotFound()
	}
	t.Status = StatusDeleted
	return nil
}
