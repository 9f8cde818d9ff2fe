package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/tool"
)

func seededProvider(t *testing.T) *catalog.MemoryProvider {
	t.Helper()
	p := catalog.NewMemoryProvider()
	require.NoError(t, p.EnsureIndex(context.Background()))
	require.NoError(t, p.Upload(context.Background(), []tool.Descriptor{
		{
			ID:             "d1",
			Name:           "search_products",
			PluginID:       "inventory",
			Description:    "Search products. Show me products, show me inventory statistics at a glance",
			InvocationPath: "/api/inventory/search-products",
			IsActive:       true,
			LastUpdated:    time.Now(),
		},
		{
			ID:             "d2",
			Name:           "content_statistics",
			PluginID:       "analytics",
			Description:    "Show statistics over stored content",
			InvocationPath: "/api/analytics/content-statistics",
			IsActive:       true,
			LastUpdated:    time.Now(),
		},
		{
			ID:             "d3",
			Name:           "old_statistics",
			PluginID:       "inventory",
			Description:    "Retired statistics endpoint",
			InvocationPath: "/api/inventory/old-statistics",
			IsActive:       false,
			LastUpdated:    time.Now(),
		},
	}))
	return p
}

func TestResolveByName(t *testing.T) {
	r := New(seededProvider(t), zerolog.Nop())

	d, err := r.ResolveByName(context.Background(), "search_products")
	require.NoError(t, err)
	assert.Equal(t, "search_products", d.Name)
	assert.True(t, d.IsActive)
}

func TestResolveByName_NotFound(t *testing.T) {
	r := New(seededProvider(t), zerolog.Nop())

	tests := []string{"", "unknown_tool", "old_statistics"} // inactive counts as absent
	for _, name := range tests {
		_, err := r.ResolveByName(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
}

func TestResolveByQuery_AnalyticsPreference(t *testing.T) {
	// The generic inventory tool outranks the analytics one for this query;
	// the statistics marker must still pull the analytics plugin ahead.
	r := New(seededProvider(t), zerolog.Nop())

	d, err := r.ResolveByQuery(context.Background(), "show me statistics")
	require.NoError(t, err)
	assert.Equal(t, "analytics", d.PluginID)
	assert.Equal(t, "content_statistics", d.Name)
}

func TestResolveByQuery_GenericFirstActiveResult(t *testing.T) {
	r := New(seededProvider(t), zerolog.Nop())

	d, err := r.ResolveByQuery(context.Background(), "search products inventory")
	require.NoError(t, err)
	assert.Equal(t, "search_products", d.Name)
}

func TestResolveByQuery_SkipsInactive(t *testing.T) {
	p := catalog.NewMemoryProvider()
	require.NoError(t, p.Upload(context.Background(), []tool.Descriptor{
		{ID: "d1", Name: "retired_tool", PluginID: "inventory", Description: "inventory lookup", InvocationPath: "/x", IsActive: false},
	}))
	r := New(p, zerolog.Nop())

	_, err := r.ResolveByQuery(context.Background(), "inventory lookup")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveByQuery_NoResults(t *testing.T) {
	r := New(seededProvider(t), zerolog.Nop())

	_, err := r.ResolveByQuery(context.Background(), "zebra xylophone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.ResolveByQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

type unavailableProvider struct {
	*catalog.MemoryProvider
}

func (p *unavailableProvider) Search(ctx context.Context, query string) ([]tool.Descriptor, error) {
	return nil, catalog.ErrUnavailable
}

func (p *unavailableProvider) GetAll(ctx context.Context) ([]tool.Descriptor, error) {
	return nil, catalog.ErrUnavailable
}

func TestResolver_CatalogUnavailable(t *testing.T) {
	r := New(&unavailableProvider{catalog.NewMemoryProvider()}, zerolog.Nop())

	_, err := r.ResolveByQuery(context.Background(), "statistics")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = r.ResolveByName(context.Background(), "search_products")
	assert.True(t, errors.Is(err, catalog.ErrUnavailable))
}

func TestHasAnalyticsIntent(t *testing.T) {
	assert.True(t, hasAnalyticsIntent("show me STATISTICS"))
	assert.True(t, hasAnalyticsIntent("average prices by supplier"))
	assert.True(t, hasAnalyticsIntent("mongodb content summary"))
	assert.False(t, hasAnalyticsIntent("find article 7388"))
}
