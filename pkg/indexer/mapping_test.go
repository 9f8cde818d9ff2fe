package indexer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolgate/toolgate/pkg/catalog"
)

func TestKebabCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "search_articles", want: "search-articles"},
		{in: "detailedInventorySearch", want: "detailed-inventory-search"},
		{in: "GetArticle", want: "get-article"},
		{in: "already-kebab", want: "already-kebab"},
		{in: "low_stock_report", want: "low-stock-report"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, kebabCase(tt.in))
		})
	}
}

func TestDerivePath(t *testing.T) {
	assert.Equal(t, "/api/inventory/search-articles", DerivePath("/api/inventory", "search_articles"))
	assert.Equal(t, "/api/inventory/search-articles", DerivePath("/api/inventory/", "search_articles"))
}

func TestLoadPathMapping(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"detailed_inventory_search": "/api/legacy/search"}`), 0644))

	m, err := LoadPathMapping(file)
	require.NoError(t, err)

	path, ok := m.Lookup("detailed_inventory_search")
	require.True(t, ok)
	assert.Equal(t, "/api/legacy/search", path)

	_, ok = m.Lookup("unknown_tool")
	assert.False(t, ok)
}

func TestLoadPathMapping_MissingFile(t *testing.T) {
	m, err := LoadPathMapping(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok := m.Lookup("anything")
	assert.False(t, ok)
}

func TestLoadPathMapping_Invalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")
	require.NoError(t, os.WriteFile(file, []byte("not json"), 0644))

	_, err := LoadPathMapping(file)
	assert.Error(t, err)
}

func TestPathMapping_Reload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"a": "/old"}`), 0644))

	m, err := LoadPathMapping(file)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte(`{"a": "/new"}`), 0644))
	require.NoError(t, m.Reload())

	path, _ := m.Lookup("a")
	assert.Equal(t, "/new", path)
}

func TestMappingWatcher_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "paths.json")
	require.NoError(t, os.WriteFile(file, []byte(`{}`), 0644))

	changed := make(chan struct{}, 1)
	w, err := NewMappingWatcher(file, zerolog.Nop(), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(file, []byte(`{"a": "/b"}`), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire on mapping change")
	}
}

func TestNewScheduler(t *testing.T) {
	ix, err := New(newTestRegistry(t), catalog.NewMemoryProvider(), nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = NewScheduler(ix, "not a cron spec", zerolog.Nop())
	assert.Error(t, err)

	s, err := NewScheduler(ix, "@hourly", zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

func TestMappingWatcher_StopCancelsPendingChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "paths.json")
	require.NoError(t, os.WriteFile(file, []byte(`{}`), 0644))

	fired := make(chan struct{}, 1)
	w, err := NewMappingWatcher(file, zerolog.Nop(), func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	// A change still inside its debounce window when Stop runs must not
	// fire afterwards.
	w.debounce = 50 * time.Millisecond
	w.scheduleChange()
	require.NoError(t, w.Stop())

	select {
	case <-fired:
		t.Fatal("change callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}

	// Nor may a change scheduled after Stop.
	w.scheduleChange()
	select {
	case <-fired:
		t.Fatal("change callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}
