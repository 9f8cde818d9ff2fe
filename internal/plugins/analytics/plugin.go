// Package analytics is the statistics-oriented plugin group. Its tools
// aggregate over the same data service the inventory tools search, and the
// resolver prefers this group when a query carries analytic intent.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/toolgate/toolgate/internal/plugins/inventory"
	"github.com/toolgate/toolgate/pkg/tool"
)

// PluginID identifies the analytics plugin group.
const PluginID = "analytics"

// IngredientCount is one row of an ingredient breakdown.
type IngredientCount struct {
	Ingredient string `json:"ingredient"`
	Products   int    `json:"products"`
}

// CategorySummary is one row of a category overview.
type CategorySummary struct {
	Category string `json:"category"`
	Products int    `json:"products"`
	Stock    int    `json:"stock"`
}

// Plugin bundles the analytics tools.
type Plugin struct {
	data inventory.DataService
}

// New creates the analytics plugin over the given data service. A nil data
// service gets the seeded in-memory implementation.
func New(data inventory.DataService) *Plugin {
	if data == nil {
		data = inventory.NewMemoryData()
	}
	return &Plugin{data: data}
}

func (p *Plugin) ID() string          { return PluginID }
func (p *Plugin) DisplayName() string { return "Analytics" }
func (p *Plugin) RoutePrefix() string { return "/api/analytics" }

func (p *Plugin) Init(ctx context.Context) error {
	if _, err := p.data.AllProducts(ctx); err != nil {
		return fmt.Errorf("analytics data service unavailable: %w", err)
	}
	return nil
}

func (p *Plugin) Tools() []tool.Definition {
	return []tool.Definition{
		{
			Name:         "content_statistics",
			Description:  "Statistics over stored content: article and product counts, categories, average price",
			ResponseType: "json",
			Handler:      p.contentStatistics,
		},
		{
			Name:        "price_summary",
			Description: "Price statistics, optionally narrowed to one category",
			Parameters: []tool.Parameter{
				{Name: "category", Type: "string", Description: "exact category"},
			},
			ResponseType: "json",
			Handler:      p.priceSummary,
		},
		{
			Name:        "ingredient_breakdown",
			Description: "Ingredient frequency across products, optionally narrowed by product name",
			Parameters: []tool.Parameter{
				{Name: "name", Type: "string", Description: "product name or fragment"},
			},
			ResponseType: "json",
			Handler:      p.ingredientBreakdown,
		},
		{
			Name:         "category_overview",
			Description:  "Product counts and stock totals per category",
			ResponseType: "json",
			Handler:      p.categoryOverview,
		},
	}
}

func (p *Plugin) contentStatistics(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	articles, err := p.data.SearchArticles(ctx, "")
	if err != nil {
		return nil, err
	}
	products, err := p.data.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	categories := map[string]struct{}{}
	var priceSum float64
	for _, prod := range products {
		categories[prod.Category] = struct{}{}
		priceSum += prod.Price
	}

	stats := map[string]interface{}{
		"articles":   len(articles),
		"products":   len(products),
		"categories": len(categories),
	}
	if len(products) > 0 {
		stats["averagePrice"] = round2(priceSum / float64(len(products)))
	}
	return stats, nil
}

func (p *Plugin) priceSummary(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	category := cast.ToString(args["category"])

	products, err := p.data.SearchProducts(ctx, "", category)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products found for category %q", category)
	}

	min, max, sum := products[0].Price, products[0].Price, 0.0
	for _, prod := range products {
		if prod.Price < min {
			min = prod.Price
		}
		if prod.Price > max {
			max = prod.Price
		}
		sum += prod.Price
	}

	summary := map[string]interface{}{
		"count":   len(products),
		"min":     min,
		"max":     max,
		"average": round2(sum / float64(len(products))),
	}
	if category != "" {
		summary["category"] = category
	}
	return summary, nil
}

func (p *Plugin) ingredientBreakdown(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	products, err := p.data.SearchProducts(ctx, cast.ToString(args["name"]), "")
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, prod := range products {
		for _, ing := range prod.Ingredients {
			counts[strings.ToLower(ing)]++
		}
	}

	breakdown := make([]IngredientCount, 0, len(counts))
	for ing, n := range counts {
		breakdown = append(breakdown, IngredientCount{Ingredient: ing, Products: n})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Products != breakdown[j].Products {
			return breakdown[i].Products > breakdown[j].Products
		}
		return breakdown[i].Ingredient < breakdown[j].Ingredient
	})

	return map[string]interface{}{"ingredients": breakdown, "products": len(products)}, nil
}

func (p *Plugin) categoryOverview(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	products, err := p.data.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]*CategorySummary{}
	for _, prod := range products {
		e, ok := byCategory[prod.Category]
		if !ok {
			e = &CategorySummary{Category: prod.Category}
			byCategory[prod.Category] = e
		}
		e.Products++
		e.Stock += prod.Stock
	}

	overview := make([]CategorySummary, 0, len(byCategory))
	for _, e := range byCategory {
		overview = append(overview, *e)
	}
	sort.Slice(overview, func(i, j int) bool { return overview[i].Category < overview[j].Category })

	return map[string]interface{}{"categories": overview}, nil
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
