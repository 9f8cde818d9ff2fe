package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolgate/toolgate/pkg/plugin"
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

func newDispatcher(t *testing.T, defs ...tool.Definition) *Dispatcher {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "test", defs: defs}))
	d, err := New(reg)
	require.NoError(t, err)
	return d
}

func TestDispatcher_Execute_Success(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "echo",
		Description: "Echo tool",
		Parameters:  []tool.Parameter{{Name: "message", Type: "string", Description: "message", Required: true}},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args["message"], nil
		},
	})

	res := d.Execute(context.Background(), "echo", map[string]interface{}{"message": "hello"})
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.Data)
	assert.Equal(t, "echo", res.Tool)
	assert.Equal(t, "test", res.PluginID)
	assert.Empty(t, res.Error)
	assert.False(t, res.Timestamp.IsZero())
}

func TestDispatcher_Execute_UnknownTool(t *testing.T) {
	d := newDispatcher(t)

	res := d.Execute(context.Background(), "nope", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool: nope")
}

func TestDispatcher_RoutingCompleteness(t *testing.T) {
	// Every registered tool must reach exactly one handler.
	var aCount, bCount atomic.Int64

	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "a", defs: []tool.Definition{{
		Name:        "tool_a",
		Description: "a",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			aCount.Add(1)
			return nil, nil
		},
	}}}))
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "b", defs: []tool.Definition{{
		Name:        "tool_b",
		Description: "b",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			bCount.Add(1)
			return nil, nil
		},
	}}}))

	d, err := New(reg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tool_a", "tool_b"}, d.ToolNames())

	require.True(t, d.Execute(context.Background(), "tool_a", nil).Success)
	require.True(t, d.Execute(context.Background(), "tool_b", nil).Success)

	assert.Equal(t, int64(1), aCount.Load())
	assert.Equal(t, int64(1), bCount.Load())
}

func TestDispatcher_Execute_HandlerError(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "boom",
		Description: "always fails",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, errors.New("downstream data service unreachable")
		},
	})

	res := d.Execute(context.Background(), "boom", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "downstream data service unreachable", res.Error)
	assert.Equal(t, "test", res.PluginID)
}

func TestDispatcher_Execute_HandlerPanicIsContained(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "panicky",
		Description: "panics",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			panic("nil map write")
		},
	})

	res := d.Execute(context.Background(), "panicky", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "handler panic")
}

func TestDispatcher_Execute_Coercion(t *testing.T) {
	var got map[string]interface{}
	d := newDispatcher(t, tool.Definition{
		Name:        "typed",
		Description: "typed params",
		Parameters: []tool.Parameter{
			{Name: "threshold", Type: "integer", Description: "threshold"},
			{Name: "ratio", Type: "number", Description: "ratio"},
			{Name: "active", Type: "boolean", Description: "active"},
			{Name: "label", Type: "string", Description: "label"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			got = args
			return nil, nil
		},
	})

	res := d.Execute(context.Background(), "typed", map[string]interface{}{
		"threshold": "15",
		"ratio":     "0.5",
		"active":    "true",
		"label":     7,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 15, got["threshold"])
	assert.Equal(t, 0.5, got["ratio"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, "7", got["label"])
}

func TestDispatcher_Execute_CoercionFailure(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "typed",
		Description: "typed params",
		Parameters:  []tool.Parameter{{Name: "threshold", Type: "integer", Description: "threshold"}},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, nil
		},
	})

	res := d.Execute(context.Background(), "typed", map[string]interface{}{"threshold": "plenty"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "argument coercion failed")
}

func TestDispatcher_Execute_MissingRequiredArgument(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "strict",
		Description: "requires input",
		Parameters:  []tool.Parameter{{Name: "input", Type: "string", Description: "input", Required: true}},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, nil
		},
	})

	res := d.Execute(context.Background(), "strict", map[string]interface{}{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "parameter validation failed")
}

func TestDispatcher_Execute_UndeclaredArgumentsPassThrough(t *testing.T) {
	var got map[string]interface{}
	d := newDispatcher(t, tool.Definition{
		Name:        "lenient",
		Description: "ignores extras",
		Parameters:  []tool.Parameter{{Name: "name", Type: "string", Description: "name"}},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			got = args
			return "ok", nil
		},
	})

	res := d.Execute(context.Background(), "lenient", map[string]interface{}{"name": "Brie", "startDate": "2025-01-01"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "2025-01-01", got["startDate"])
}

func TestDispatcher_Execute_ContextCancellation(t *testing.T) {
	d := newDispatcher(t, tool.Definition{
		Name:        "slow",
		Description: "waits forever",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			time.Sleep(2 * time.Second)
			return nil, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := d.Execute(ctx, "slow", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "aborted")
}

func TestDispatcher_WithTimeout(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), &fakePlugin{id: "test", defs: []tool.Definition{{
		Name:        "slow",
		Description: "waits forever",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			time.Sleep(2 * time.Second)
			return nil, nil
		},
	}}}))

	d, err := New(reg, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	res := d.Execute(context.Background(), "slow", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "aborted")

	// Non-positive values keep the default.
	d, err = New(reg, WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, d.timeout)
}

func TestDispatcher_Execute_StampsDuration(t *testing.T) {
	d := newDispatcher(t,
		tool.Definition{
			Name:        "slow",
			Description: "takes a moment",
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				time.Sleep(30 * time.Millisecond)
				return "ok", nil
			},
		},
		tool.Definition{
			Name:        "boom",
			Description: "always fails",
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				time.Sleep(10 * time.Millisecond)
				return nil, errors.New("downstream unreachable")
			},
		},
	)

	res := d.Execute(context.Background(), "slow", nil)
	require.True(t, res.Success)
	assert.GreaterOrEqual(t, res.Duration, 30*time.Millisecond)

	res = d.Execute(context.Background(), "boom", nil)
	require.False(t, res.Success)
	assert.GreaterOrEqual(t, res.Duration, 10*time.Millisecond)
}
