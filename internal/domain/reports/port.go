package reports

import "context"

// Repository port (interface untuk persistence). Save is a single atomic insert.
type Repository interface {
	Save(ctx context.Context, r *InjuryReport) error
	Get(ctx context.Context, id ReportID) (*InjuryReport, error)
	// ListAll returns every report, newest first.
	ListAll(ctx context.Context) ([]*InjuryReport, error)
}

// BlobStore port (interface untuk penyimpanan gambar)
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
