package services

import (
	"context"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/eventbus"
)

// FieldUpdate is one correction in a batch-update request.
type FieldUpdate struct {
	ID    int64   `json:"id" validate:"required,gt=0"`
	Field string  `json:"field" validate:"required"`
	Value *string `json:"value"`
}

type RecordService struct {
	repo      record.Repository
	publisher eventbus.EventBus
	inTx      func(context.Context, func(context.Context) error) error
}

func NewRecordService(repo record.Repository, publisher eventbus.EventBus) *RecordService {
	return &RecordService{repo: repo, publisher: publisher, inTx: composables.InTx}
}

// Create normalizes and persists one record. The second return value is
// false when the duplicate policy skipped the row.
func (s *RecordService) Create(ctx context.Context, in record.RowInput, usuario string) (*record.Record, bool, error) {
	rec := record.FromInput(in, usuario)
	inserted, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		s.publisher.Publish(record.CreatedEvent{Record: rec, Usuario: usuario})
	}
	return rec, inserted, nil
}

// List returns one page of records plus the total matching count.
func (s *RecordService) List(ctx context.Context, params *record.FindParams) ([]*record.Record, int64, error) {
	recs, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// BatchUpdate applies whitelisted field corrections in one transaction. Any
// disallowed field aborts the whole batch.
func (s *RecordService) BatchUpdate(ctx context.Context, updates []FieldUpdate) (int64, error) {
	var affected int64
	err := s.inTx(ctx, func(txCtx context.Context) error {
		affected = 0
		for _, u := range updates {
			n, err := s.repo.UpdateField(txCtx, u.ID, u.Field, u.Value)
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Export returns every record, ordered by id, for the export and backup
// endpoints.
func (s *RecordService) Export(ctx context.Context) ([]*record.Record, error) {
	return s.repo.GetAll(ctx)
}
