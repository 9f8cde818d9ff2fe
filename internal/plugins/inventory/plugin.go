// Package inventory is the general-purpose plugin group: article lookup and
// product search tools backed by a DataService.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/toolgate/toolgate/pkg/tool"
)

// PluginID identifies the inventory plugin group.
const PluginID = "inventory"

// Plugin bundles the inventory tools.
type Plugin struct {
	data DataService
}

// New creates the inventory plugin. A nil data service gets the seeded
// in-memory implementation.
func New(data DataService) *Plugin {
	if data == nil {
		data = NewMemoryData()
	}
	return &Plugin{data: data}
}

func (p *Plugin) ID() string          { return PluginID }
func (p *Plugin) DisplayName() string { return "Inventory" }
func (p *Plugin) RoutePrefix() string { return "/api/inventory" }

func (p *Plugin) Init(ctx context.Context) error {
	// The seed must be readable before any tool is served.
	if _, err := p.data.AllProducts(ctx); err != nil {
		return fmt.Errorf("inventory data service unavailable: %w", err)
	}
	return nil
}

func (p *Plugin) Tools() []tool.Definition {
	return []tool.Definition{
		{
			Name:        "search_articles",
			Description: "Search stored articles by name",
			Parameters: []tool.Parameter{
				{Name: "name", Type: "string", Description: "article name or fragment"},
			},
			ResponseType: "json",
			Handler:      p.searchArticles,
		},
		{
			Name:        "get_article",
			Description: "Fetch a single article by its content key",
			Parameters: []tool.Parameter{
				{Name: "contentKey", Type: "integer", Description: "numeric article identifier", Required: true},
			},
			ResponseType: "json",
			Handler:      p.getArticle,
		},
		{
			Name:        "search_products",
			Description: "Search products by name and category",
			Parameters: []tool.Parameter{
				{Name: "name", Type: "string", Description: "product name or fragment"},
				{Name: "category", Type: "string", Description: "exact category"},
			},
			ResponseType: "json",
			Handler:      p.searchProducts,
		},
		{
			Name:        "detailed_inventory_search",
			Description: "Detailed inventory search with name, category and date range filters",
			Parameters: []tool.Parameter{
				{Name: "name", Type: "string", Description: "product name or fragment"},
				{Name: "category", Type: "string", Description: "exact category"},
				{Name: "startDate", Type: "string", Description: "range start, YYYY-MM-DD"},
				{Name: "endDate", Type: "string", Description: "range end, YYYY-MM-DD"},
			},
			ResponseType: "json",
			Handler:      p.detailedSearch,
		},
		{
			Name:        "low_stock_report",
			Description: "List products whose stock sits below a threshold",
			Parameters: []tool.Parameter{
				{Name: "threshold", Type: "integer", Description: "stock level bound", Required: true},
			},
			ResponseType: "json",
			Handler:      p.lowStockReport,
		},
	}
}

func (p *Plugin) searchArticles(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	articles, err := p.data.SearchArticles(ctx, cast.ToString(args["name"]))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"articles": articles, "count": len(articles)}, nil
}

func (p *Plugin) getArticle(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return p.data.GetArticle(ctx, cast.ToInt(args["contentKey"]))
}

func (p *Plugin) searchProducts(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	products, err := p.data.SearchProducts(ctx, cast.ToString(args["name"]), cast.ToString(args["category"]))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"products": products, "count": len(products)}, nil
}

func (p *Plugin) detailedSearch(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	from, err := parseDate(cast.ToString(args["startDate"]))
	if err != nil {
		return nil, fmt.Errorf("invalid startDate: %w", err)
	}
	to, err := parseDate(cast.ToString(args["endDate"]))
	if err != nil {
		return nil, fmt.Errorf("invalid endDate: %w", err)
	}

	products, err := p.data.ProductsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(cast.ToString(args["name"]))
	category := strings.ToLower(cast.ToString(args["category"]))
	if name != "" || category != "" {
		filtered := products[:0]
		for _, prod := range products {
			if name != "" && !strings.Contains(strings.ToLower(prod.Name), name) {
				continue
			}
			if category != "" && strings.ToLower(prod.Category) != category {
				continue
			}
			filtered = append(filtered, prod)
		}
		products = filtered
	}

	return map[string]interface{}{"products": products, "count": len(products)}, nil
}

func (p *Plugin) lowStockReport(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	threshold := cast.ToInt(args["threshold"])
	if threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %d", threshold)
	}

	products, err := p.data.ProductsBelowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"threshold": threshold, "products": products, "count": len(products)}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
