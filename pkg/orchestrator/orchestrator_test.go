package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/dispatcher"
	"github.com/toolgate/toolgate/pkg/plugin"
	"github.com/toolgate/toolgate/pkg/resolver"
	"github.com/toolgate/toolgate/pkg/tool"
)

type fakePlugin struct {
	id   string
	defs []tool.Definition
}

func (f *fakePlugin) ID() string                     { return f.id }
func (f *fakePlugin) DisplayName() string            { return f.id }
func (f *fakePlugin) RoutePrefix() string            { return "/api/" + f.id }
func (f *fakePlugin) Tools() []tool.Definition       { return f.defs }
func (f *fakePlugin) Init(ctx context.Context) error { return nil }

// newOrchestrator wires a registry with two plugins, publishes their
// descriptors to an in-memory catalog, and returns the orchestrator.
func newOrchestrator(t *testing.T, calls *[]string, opts ...Option) *Orchestrator {
	t.Helper()

	record := func(name string) tool.Handler {
		return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			if calls != nil {
				*calls = append(*calls, name)
			}
			return map[string]interface{}{"tool": name, "args": args}, nil
		}
	}

	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "inventory", defs: []tool.Definition{
		{
			Name:        "search_articles",
			Description: "Search articles by name",
			Parameters:  []tool.Parameter{{Name: "name", Type: "string", Description: "article name"}},
			Handler:     record("search_articles"),
		},
		{
			Name:        "detailed_inventory_search",
			Description: "Detailed inventory search",
			Handler:     record("detailed_inventory_search"),
		},
	}}))
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "analytics", defs: []tool.Definition{
		{
			Name:        "content_statistics",
			Description: "Statistics over stored content",
			Handler:     record("content_statistics"),
		},
	}}))

	provider := catalog.NewMemoryProvider()
	now := time.Now()
	var descriptors []tool.Descriptor
	for _, p := range reg.Plugins() {
		for _, def := range p.Tools() {
			descriptors = append(descriptors, tool.Descriptor{
				ID:             def.Name + "-id",
				Name:           def.Name,
				PluginID:       p.ID(),
				Description:    def.Description,
				InvocationPath: "/api/" + p.ID() + "/" + def.Name,
				IsActive:       true,
				LastUpdated:    now,
			})
		}
	}
	require.NoError(t, provider.Upload(context.Background(), descriptors))

	disp, err := dispatcher.New(reg)
	require.NoError(t, err)

	return New(resolver.New(provider, zerolog.Nop()), disp, zerolog.Nop(), opts...)
}

func TestRun_ExplicitBatch_OrderPreservedAndFailureIsolated(t *testing.T) {
	var calls []string
	o := newOrchestrator(t, &calls)

	batch := o.Run(context.Background(), tool.CallRequest{
		Tool: MultiToolName,
		Arguments: map[string]interface{}{
			"tool_uses": []interface{}{
				map[string]interface{}{"recipient_name": "search_articles", "parameters": map[string]interface{}{"name": "Brie"}},
				map[string]interface{}{"recipient_name": "no_such_tool"},
				map[string]interface{}{"recipient_name": "content_statistics"},
			},
		},
	})

	require.Len(t, batch.Results, 3)
	assert.True(t, batch.Results[0].Success)
	assert.Equal(t, "search_articles", batch.Results[0].Tool)
	assert.False(t, batch.Results[1].Success)
	assert.Contains(t, batch.Results[1].Error, "unknown tool")
	assert.True(t, batch.Results[2].Success)
	assert.Equal(t, "content_statistics", batch.Results[2].Tool)

	// Entry 2's failure must not have skipped entry 3.
	assert.Equal(t, []string{"search_articles", "content_statistics"}, calls)
}

func TestRun_ExplicitBatch_NormalizesNames(t *testing.T) {
	var calls []string
	o := newOrchestrator(t, &calls)

	batch := o.Run(context.Background(), tool.CallRequest{
		Arguments: map[string]interface{}{
			"tool_uses": []interface{}{
				map[string]interface{}{"recipient_name": "functions.search_articles"},
				map[string]interface{}{"recipient_name": "search_azure_cognitive"},
			},
		},
	})

	require.Len(t, batch.Results, 2)
	assert.Equal(t, "search_articles", batch.Results[0].Tool)
	assert.Equal(t, "detailed_inventory_search", batch.Results[1].Tool)
	assert.True(t, batch.Results[1].Success)
}

func TestRun_ExplicitBatch_MissingRecipientName(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{
		Arguments: map[string]interface{}{
			"tool_uses": []interface{}{
				map[string]interface{}{"parameters": map[string]interface{}{}},
				map[string]interface{}{"recipient_name": "search_articles"},
			},
		},
	})

	require.Len(t, batch.Results, 2)
	assert.False(t, batch.Results[0].Success)
	assert.Contains(t, batch.Results[0].Error, "missing recipient_name")
	assert.True(t, batch.Results[1].Success)
}

func TestRun_ExplicitBatch_Empty(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{
		Arguments: map[string]interface{}{"tool_uses": []interface{}{}},
	})
	assert.Empty(t, batch.Results)
}

func TestRun_QueryMode_ResolvesExtractsAndDispatches(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{
		Tool:              MultiToolName,
		Query:             "search articles",
		OriginalUserInput: `find articles named Brie`,
	})

	require.Len(t, batch.Results, 1)
	res := batch.Results[0]
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "search_articles", res.Tool)

	data := res.Data.(map[string]interface{})
	args := data["args"].(map[string]interface{})
	assert.Equal(t, "Brie", args["name"])
}

func TestRun_QueryMode_AnalyticsPreference(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{Query: "show me statistics"})
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "content_statistics", batch.Results[0].Tool)
	assert.Equal(t, "analytics", batch.Results[0].PluginID)
}

func TestRun_QueryMode_ResolverMiss(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{Query: "zebra xylophone"})
	require.Len(t, batch.Results, 1)
	assert.False(t, batch.Results[0].Success)
	assert.Contains(t, batch.Results[0].Error, "no suitable tool found")
}

func TestRun_MissingQueryAndToolUses(t *testing.T) {
	o := newOrchestrator(t, nil)

	batch := o.Run(context.Background(), tool.CallRequest{Tool: MultiToolName})
	require.Len(t, batch.Results, 1)
	assert.False(t, batch.Results[0].Success)
	assert.Contains(t, batch.Results[0].Error, "missing query or tool_uses")
}

func TestNormalizeToolName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "functions.get_article", want: "get_article"},
		{in: "search_azure_cognitive", want: "detailed_inventory_search"},
		{in: "functions.search_azure_cognitive", want: "detailed_inventory_search"},
		{in: "  plain_tool  ", want: "plain_tool"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeToolName(tt.in), tt.in)
	}
}

type stubResolutionObserver struct {
	modes []string
	hits  []bool
}

func (s *stubResolutionObserver) ObserveResolution(mode string, hit bool) {
	s.modes = append(s.modes, mode)
	s.hits = append(s.hits, hit)
}

func TestRun_QueryMode_ReportsResolutionOutcome(t *testing.T) {
	obs := &stubResolutionObserver{}
	o := newOrchestrator(t, nil, WithResolutionObserver(obs))

	batch := o.Run(context.Background(), tool.CallRequest{Query: "show me statistics"})
	require.Len(t, batch.Results, 1)
	require.True(t, batch.Results[0].Success)

	batch = o.Run(context.Background(), tool.CallRequest{Query: "zebra xylophone"})
	require.Len(t, batch.Results, 1)
	require.False(t, batch.Results[0].Success)

	assert.Equal(t, []string{"query", "query"}, obs.modes)
	assert.Equal(t, []bool{true, false}, obs.hits)
}

func TestRun_ExplicitBatch_NoResolutionReported(t *testing.T) {
	obs := &stubResolutionObserver{}
	o := newOrchestrator(t, nil, WithResolutionObserver(obs))

	o.Run(context.Background(), tool.CallRequest{
		Arguments: map[string]interface{}{
			"tool_uses": []interface{}{
				map[string]interface{}{"recipient_name": "search_articles"},
			},
		},
	})

	assert.Empty(t, obs.modes)
}
