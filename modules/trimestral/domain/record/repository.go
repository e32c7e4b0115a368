package record

import "context"

// FindParams narrows and paginates listings.
type FindParams struct {
	Dependencia string
	Limit       int
	Offset      int
}

type Repository interface {
	// Create persists one record. Returns false when the row was omitted
	// by the duplicate policy.
	Create(ctx context.Context, rec *Record) (bool, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Record, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetAll(ctx context.Context) ([]*Record, error)
	// InsertBatch inserts all records in one statement, skipping duplicate
	// (curp, trimestre) pairs. Returns the number of rows inserted.
	InsertBatch(ctx context.Context, recs []*Record) (int64, error)
	// InsertOne is the per-row fallback used when a whole batch fails.
	InsertOne(ctx context.Context, rec *Record) (bool, error)
	// UpdateField sets one whitelisted column on one row.
	UpdateField(ctx context.Context, id int64, field string, value *string) (int64, error)
}
