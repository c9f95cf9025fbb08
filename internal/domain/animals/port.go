package animals

import "context"

// Repository port for animal records. Save assigns the ID.
type Repository interface {
	Save(ctx context.Context, a *Animal) error
	Get(ctx context.Context, id AnimalID) (*Animal, error)
	List(ctx context.Context) ([]*Animal, error)
	// Delete returns false when no row matched.
	Delete(ctx context.Context, id AnimalID) (bool, error)
}

// Tagger derives tags from the submitted details.
type Tagger interface {
	Tags(details string) []string
}

// BlobStore port for the uploaded photo.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
