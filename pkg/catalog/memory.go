package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/toolgate/toolgate/pkg/tool"
)

// MemoryProvider is an in-process catalog backed by a token inverted index.
// It mirrors the SQLite provider's full-replace discipline so tests exercise
// the same consistency window.
type MemoryProvider struct {
	mu          sync.RWMutex
	created     bool
	descriptors []tool.Descriptor
	index       map[string]map[string]int // token -> descriptor ID -> hit count
}

// NewMemoryProvider creates an empty in-memory catalog.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		index: make(map[string]map[string]int),
	}
}

// EnsureIndex marks the catalog as created.
func (p *MemoryProvider) EnsureIndex(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = true
	return nil
}

// Exists reports whether EnsureIndex has run.
func (p *MemoryProvider) Exists(ctx context.Context) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.created, nil
}

// DeleteAll drops all descriptors and the inverted index.
func (p *MemoryProvider) DeleteAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.descriptors = nil
	p.index = make(map[string]map[string]int)
	return nil
}

// Upload appends a batch of descriptors and indexes their text fields.
func (p *MemoryProvider) Upload(ctx context.Context, descriptors []tool.Descriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range descriptors {
		p.descriptors = append(p.descriptors, d)
		for _, token := range tokenize(d.Name + " " + d.Description + " " + d.PluginID + " " + d.InvocationPath + " " + searchableParameters(d.Parameters)) {
			hits, ok := p.index[token]
			if !ok {
				hits = make(map[string]int)
				p.index[token] = hits
			}
			hits[d.ID]++
		}
	}
	return nil
}

// Search ranks descriptors by number of matching query tokens, breaking ties
// by total hit count and then upload order, so results are deterministic.
func (p *MemoryProvider) Search(ctx context.Context, query string) ([]tool.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		matched int
		hits    int
		pos     int
	}

	scores := make(map[string]*scored)
	for _, token := range tokens {
		for id, count := range p.index[token] {
			s, ok := scores[id]
			if !ok {
				s = &scored{}
				scores[id] = s
			}
			s.matched++
			s.hits += count
		}
	}

	if len(scores) == 0 {
		return nil, nil
	}

	var ranked []tool.Descriptor
	for pos, d := range p.descriptors {
		if s, ok := scores[d.ID]; ok {
			s.pos = pos
			ranked = append(ranked, d)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i].ID], scores[ranked[j].ID]
		if si.matched != sj.matched {
			return si.matched > sj.matched
		}
		if si.hits != sj.hits {
			return si.hits > sj.hits
		}
		return si.pos < sj.pos
	})

	return ranked, nil
}

// GetAll returns every descriptor ordered by name.
func (p *MemoryProvider) GetAll(ctx context.Context) ([]tool.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]tool.Descriptor, len(p.descriptors))
	copy(out, p.descriptors)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close is a no-op for the in-memory provider.
func (p *MemoryProvider) Close() error {
	return nil
}
