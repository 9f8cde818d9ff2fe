// Package catalog provides the searchable store of tool descriptors used for
// query-based resolution. Two providers implement the same contract: a SQLite
// FTS5 index and an in-process inverted index. Both follow full-replace
// publish semantics; callers must tolerate transient empty results while a
// rebuild is between delete and upload.
package catalog

import (
	"context"
	"errors"

	"github.com/toolgate/toolgate/pkg/tool"
)

// ErrUnavailable wraps provider failures so callers can distinguish
// infrastructure trouble from an ordinary empty result.
var ErrUnavailable = errors.New("catalog unavailable")

// Provider is the catalog contract consumed by the indexer and resolver.
type Provider interface {
	// EnsureIndex creates the catalog schema if it does not exist.
	EnsureIndex(ctx context.Context) error

	// Exists reports whether the catalog schema has been created.
	Exists(ctx context.Context) (bool, error)

	// DeleteAll removes every stored descriptor.
	DeleteAll(ctx context.Context) error

	// Upload stores the given descriptors in one batch.
	Upload(ctx context.Context, descriptors []tool.Descriptor) error

	// Search runs a full-text query and returns matches in relevance order.
	Search(ctx context.Context, query string) ([]tool.Descriptor, error)

	// GetAll returns every stored descriptor.
	GetAll(ctx context.Context) ([]tool.Descriptor, error)

	// Close releases provider resources.
	Close() error
}
