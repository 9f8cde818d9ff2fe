package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Article is a piece of stored content, addressable by its numeric key.
type Article struct {
	ContentKey int      `json:"contentKey"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags"`
}

// Product is a stocked item.
type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Ingredients []string  `json:"ingredients"`
	AddedAt     time.Time `json:"addedAt"`
}

// DataService is the storage surface the inventory and analytics tools
// run against. Implementations must be safe for concurrent use.
type DataService interface {
	GetArticle(ctx context.Context, contentKey int) (*Article, error)
	SearchArticles(ctx context.Context, name string) ([]Article, error)
	SearchProducts(ctx context.Context, name, category string) ([]Product, error)
	ProductsInRange(ctx context.Context, from, to time.Time) ([]Product, error)
	ProductsBelowStock(ctx context.Context, threshold int) ([]Product, error)
	AllProducts(ctx context.Context) ([]Product, error)
}

// ErrArticleNotFound is returned when no article carries the requested key.
var ErrArticleNotFound = fmt.Errorf("article not found")

// MemoryData is an in-memory DataService seeded with a small dataset.
type MemoryData struct {
	mu       sync.RWMutex
	articles map[int]Article
	products []Product
}

// NewMemoryData builds a seeded in-memory data service.
func NewMemoryData() *MemoryData {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}

	articles := map[int]Article{
		7388: {ContentKey: 7388, Title: "Cheese storage basics", Body: "How to store soft cheese.", Tags: []string{"cheese", "storage"}},
		991:  {ContentKey: 991, Title: "Seasonal produce guide", Body: "What is fresh each month.", Tags: []string{"produce", "seasonal"}},
		1204: {ContentKey: 1204, Title: "Bread baking notes", Body: "Hydration and proofing times.", Tags: []string{"bread", "baking"}},
	}

	products := []Product{
		{ID: 1, Name: "Brie", Category: "cheese", Price: 8.50, Stock: 12, Ingredients: []string{"milk", "cream", "salt"}, AddedAt: day("2026-01-15")},
		{ID: 2, Name: "Cheddar", Category: "cheese", Price: 6.20, Stock: 40, Ingredients: []string{"milk", "salt"}, AddedAt: day("2026-02-03")},
		{ID: 3, Name: "Sourdough loaf", Category: "bakery", Price: 4.80, Stock: 7, Ingredients: []string{"flour", "water", "salt"}, AddedAt: day("2026-03-21")},
		{ID: 4, Name: "Baguette", Category: "bakery", Price: 2.90, Stock: 3, Ingredients: []string{"flour", "water", "salt", "yeast"}, AddedAt: day("2026-04-02")},
		{ID: 5, Name: "Olive oil", Category: "pantry", Price: 11.40, Stock: 25, Ingredients: []string{"olives"}, AddedAt: day("2026-05-19")},
	}

	return &MemoryData{articles: articles, products: products}
}

func (m *MemoryData) GetArticle(_ context.Context, contentKey int) (*Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	article, ok := m.articles[contentKey]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrArticleNotFound, contentKey)
	}
	return &article, nil
}

func (m *MemoryData) SearchArticles(_ context.Context, name string) ([]Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(name)
	var matches []Article
	for _, article := range m.articles {
		if needle == "" || strings.Contains(strings.ToLower(article.Title), needle) {
			matches = append(matches, article)
		}
	}
	sortArticles(matches)
	return matches, nil
}

func (m *MemoryData) SearchProducts(_ context.Context, name, category string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nameNeedle := strings.ToLower(name)
	categoryNeedle := strings.ToLower(category)

	var matches []Product
	for _, p := range m.products {
		if nameNeedle != "" && !strings.Contains(strings.ToLower(p.Name), nameNeedle) {
			continue
		}
		if categoryNeedle != "" && strings.ToLower(p.Category) != categoryNeedle {
			continue
		}
		matches = append(matches, p)
	}
	return matches, nil
}

func (m *MemoryData) ProductsInRange(_ context.Context, from, to time.Time) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Product
	for _, p := range m.products {
		if !from.IsZero() && p.AddedAt.Before(from) {
			continue
		}
		if !to.IsZero() && p.AddedAt.After(to) {
			continue
		}
		matches = append(matches, p)
	}
	return matches, nil
}

func (m *MemoryData) ProductsBelowStock(_ context.Context, threshold int) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Product
	for _, p := range m.products {
		if p.Stock < threshold {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (m *MemoryData) AllProducts(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func sortArticles(articles []Article) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].ContentKey < articles[j].ContentKey
	})
}
