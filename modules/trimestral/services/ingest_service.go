package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/eventbus"
)

var ErrTooManyRows = errors.New("bulk payload exceeds the row limit")

type IngestService struct {
	repo         record.Repository
	publisher    eventbus.EventBus
	maxBatchRows int
	inTx         func(context.Context, func(context.Context) error) error
}

func NewIngestService(repo record.Repository, publisher eventbus.EventBus, maxBatchRows int) *IngestService {
	return &IngestService{
		repo:         repo,
		publisher:    publisher,
		maxBatchRows: maxBatchRows,
		inTx:         composables.InTx,
	}
}

// BulkIngest normalizes the incoming rows and persists them with the
// duplicate policy. The whole batch first goes in as one statement inside a
// transaction; if that statement fails, each row is retried individually so
// one bad row cannot sink the rest.
func (s *IngestService) BulkIngest(ctx context.Context, rows []record.RowInput, usuario string) (*record.Report, error) {
	if len(rows) > s.maxBatchRows {
		return nil, errors.Wrapf(ErrTooManyRows, "%d > %d", len(rows), s.maxBatchRows)
	}

	report := &record.Report{Received: len(rows), Errors: []record.RowError{}}

	kept := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		rec := record.FromInput(row, usuario)
		if rec.IsEmpty() || rec.Trimestre == nil {
			report.EmptyDiscarded++
			continue
		}
		if rec.CURP == nil {
			report.CURPInvalidToNull++
		}
		kept = append(kept, rec)
	}
	report.Processed = len(kept)

	logger := composables.UseLogger(ctx)

	var inserted int64
	err := s.inTx(ctx, func(txCtx context.Context) error {
		n, err := s.repo.InsertBatch(txCtx, kept)
		inserted = n
		return err
	})
	if err == nil {
		report.Inserted = int(inserted)
		report.DuplicatesOmitted = report.Processed - report.Inserted
	} else {
		logger.WithError(err).Warn("batch insert failed, falling back to row-by-row")
		s.insertRowByRow(ctx, kept, report)
	}

	report.Success = report.ErrorsCount == 0
	s.publisher.Publish(record.BulkIngestedEvent{Usuario: usuario, Report: report})
	return report, nil
}

// insertRowByRow retries each row outside a shared transaction, so rows
// already persisted stay persisted even when later ones fail.
func (s *IngestService) insertRowByRow(ctx context.Context, recs []*record.Record, report *record.Report) {
	for _, rec := range recs {
		ok, err := s.repo.InsertOne(ctx, rec)
		switch {
		case err != nil:
			report.AddError(rowError(rec, err))
		case ok:
			report.Inserted++
		default:
			report.DuplicatesOmitted++
		}
	}
}

func rowError(rec *record.Record, err error) record.RowError {
	e := record.RowError{Message: err.Error()}
	if rec.Trimestre != nil {
		e.Trimestre = *rec.Trimestre
	}
	if rec.CURP != nil {
		e.CURP = *rec.CURP
	}
	if rec.IDRusp != nil {
		e.IDRusp = *rec.IDRusp
	}
	if rec.Nombre != nil {
		e.Nombre = *rec.Nombre
	}
	return e
}
