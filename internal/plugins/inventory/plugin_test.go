package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolgate/toolgate/pkg/plugin"
)

func TestPluginManifest(t *testing.T) {
	p := New(nil)

	assert.Equal(t, "inventory", p.ID())
	assert.Equal(t, "/api/inventory", p.RoutePrefix())
	require.NoError(t, p.Init(context.Background()))

	names := make(map[string]bool)
	for _, def := range p.Tools() {
		require.NotNil(t, def.Handler, "tool %s has no handler", def.Name)
		names[def.Name] = true
	}
	for _, want := range []string{"search_articles", "get_article", "search_products", "detailed_inventory_search", "low_stock_report"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestPluginRegisters(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), New(nil)))
	assert.Equal(t, 5, reg.ToolCount())
}

func handlerFor(t *testing.T, p *Plugin, name string) func(context.Context, map[string]interface{}) (interface{}, error) {
	t.Helper()
	for _, def := range p.Tools() {
		if def.Name == name {
			return def.Handler
		}
	}
	t.Fatalf("no such tool: %s", name)
	return nil
}

func TestSearchArticles(t *testing.T) {
	p := New(nil)
	handler := handlerFor(t, p, "search_articles")

	out, err := handler(context.Background(), map[string]interface{}{"name": "cheese"})
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.Equal(t, 1, result["count"])
	articles := result["articles"].([]Article)
	assert.Equal(t, 7388, articles[0].ContentKey)
}

func TestGetArticle(t *testing.T) {
	p := New(nil)
	handler := handlerFor(t, p, "get_article")

	t.Run("found", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{"contentKey": 7388})
		require.NoError(t, err)
		assert.Equal(t, "Cheese storage basics", out.(*Article).Title)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := handler(context.Background(), map[string]interface{}{"contentKey": 424242})
		assert.ErrorIs(t, err, ErrArticleNotFound)
	})
}

func TestSearchProducts(t *testing.T) {
	p := New(nil)
	handler := handlerFor(t, p, "search_products")

	t.Run("by name", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{"name": "Brie"})
		require.NoError(t, err)
		assert.Equal(t, 1, out.(map[string]interface{})["count"])
	})

	t.Run("by category", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{"category": "bakery"})
		require.NoError(t, err)
		assert.Equal(t, 2, out.(map[string]interface{})["count"])
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, 5, out.(map[string]interface{})["count"])
	})
}

func TestDetailedInventorySearch(t *testing.T) {
	p := New(nil)
	handler := handlerFor(t, p, "detailed_inventory_search")

	t.Run("date range", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{
			"startDate": "2026-02-01",
			"endDate":   "2026-03-31",
		})
		require.NoError(t, err)
		result := out.(map[string]interface{})
		assert.Equal(t, 2, result["count"])
	})

	t.Run("range plus category", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{
			"startDate": "2026-02-01",
			"endDate":   "2026-03-31",
			"category":  "bakery",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, out.(map[string]interface{})["count"])
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := handler(context.Background(), map[string]interface{}{"startDate": "last tuesday"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid startDate")
	})
}

func TestLowStockReport(t *testing.T) {
	p := New(nil)
	handler := handlerFor(t, p, "low_stock_report")

	t.Run("finds low stock", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{"threshold": 10})
		require.NoError(t, err)
		result := out.(map[string]interface{})
		assert.Equal(t, 2, result["count"])
	})

	t.Run("string threshold is coerced", func(t *testing.T) {
		out, err := handler(context.Background(), map[string]interface{}{"threshold": "5"})
		require.NoError(t, err)
		assert.Equal(t, 1, out.(map[string]interface{})["count"])
	})

	t.Run("non-positive threshold rejected", func(t *testing.T) {
		_, err := handler(context.Background(), map[string]interface{}{"threshold": 0})
		assert.Error(t, err)
	})
}
