package storage

import (
	"context"

	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
)

// Store combines file fingerprint and report storage.
type Store interface {
	FileStore
	ReportStore
	Close() error
}

// FileStore tracks the fingerprint each script had when it was last
// analyzed.
type FileStore interface {
	// FileHashes returns res:// path -> fingerprint for every stored file.
	FileHashes(ctx context.Context) (map[string]string, error)

	UpsertFile(ctx context.Context, path, hash string) error

	// DeleteFile removes a file together with every method stored for it.
	DeleteFile(ctx context.Context, path string) error
}

// ReportStore persists method reports and the cycle list.
type ReportStore interface {
	// SaveReports upserts reports, replacing their parameters.
	SaveReports(ctx context.Context, reports []*inference.MethodReport) error

	DeleteMethods(ctx context.Context, keys []graph.MethodKey) error

	// UpdateOrder rewrites the order index and cycle flag of stored methods.
	UpdateOrder(ctx context.Context, order []graph.OrderEntry) error

	// SaveCycles replaces the stored cycle list.
	SaveCycles(ctx context.Context, cycles [][]graph.MethodKey) error

	GetMethod(ctx context.Context, key graph.MethodKey) (*MethodRecord, error)

	// ListMethods returns the methods of one file, or of every file when
	// path is empty, ordered by inference order.
	ListMethods(ctx context.Context, path string) ([]*MethodRecord, error)

	LoadCycles(ctx context.Context) ([][]graph.MethodKey, error)
}
