package ingest

import (
	"fmt"
	"io"
	"sort"
)

// MaxErrorSamples caps how many row errors the aggregate keeps.
const MaxErrorSamples = 50

// RowError mirrors the wire shape returned by the bulk endpoint.
type RowError struct {
	Trimestre string `json:"trimestre,omitempty"`
	CURP      string `json:"curp,omitempty"`
	IDRusp    string `json:"id_rusp,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Message   string `json:"message"`
}

// Report is the per-batch response of the bulk endpoint.
type Report struct {
	Success           bool       `json:"success"`
	Received          int        `json:"received"`
	Processed         int        `json:"processed"`
	Inserted          int        `json:"inserted"`
	DuplicatesOmitted int        `json:"duplicates_omitted"`
	CURPInvalidToNull int        `json:"curp_invalid_to_null"`
	EmptyDiscarded    int        `json:"empty_discarded"`
	ErrorsCount       int        `json:"errors_count"`
	Errors            []RowError `json:"errors"`
}

// Summary aggregates batch reports across one upload run.
type Summary struct {
	Report
	Batches       int
	FailedBatches []int
}

// Merge folds one batch report into the aggregate, keeping at most
// MaxErrorSamples sample errors.
func (s *Summary) Merge(r *Report) {
	s.Batches++
	s.Received += r.Received
	s.Processed += r.Processed
	s.Inserted += r.Inserted
	s.DuplicatesOmitted += r.DuplicatesOmitted
	s.CURPInvalidToNull += r.CURPInvalidToNull
	s.EmptyDiscarded += r.EmptyDiscarded
	s.ErrorsCount += r.ErrorsCount
	for _, e := range r.Errors {
		if len(s.Errors) >= MaxErrorSamples {
			break
		}
		s.Errors = append(s.Errors, e)
	}
}

// MarkFailed records a batch that exhausted its retries.
func (s *Summary) MarkFailed(batchIdx, rows int, err error) {
	s.Batches++
	s.FailedBatches = append(s.FailedBatches, batchIdx)
	s.ErrorsCount += rows
	if len(s.Errors) < MaxErrorSamples {
		s.Errors = append(s.Errors, RowError{
			Message: fmt.Sprintf("lote %d no aplicado (%d filas): %v", batchIdx+1, rows, err),
		})
	}
}

// OK reports whether every row made it in without errors.
func (s *Summary) OK() bool {
	return s.ErrorsCount == 0 && len(s.FailedBatches) == 0
}

// Render writes a human-readable closing report.
func (s *Summary) Render(w io.Writer) {
	fmt.Fprintf(w, "Lotes enviados:        %d\n", s.Batches)
	fmt.Fprintf(w, "Filas recibidas:       %d\n", s.Received)
	fmt.Fprintf(w, "Filas procesadas:      %d\n", s.Processed)
	fmt.Fprintf(w, "Insertadas:            %d\n", s.Inserted)
	fmt.Fprintf(w, "Duplicadas (omitidas): %d\n", s.DuplicatesOmitted)
	fmt.Fprintf(w, "CURP inválida a NULL:  %d\n", s.CURPInvalidToNull)
	fmt.Fprintf(w, "Filas vacías:          %d\n", s.EmptyDiscarded)
	fmt.Fprintf(w, "Errores:               %d\n", s.ErrorsCount)

	if len(s.FailedBatches) > 0 {
		failed := append([]int(nil), s.FailedBatches...)
		sort.Ints(failed)
		fmt.Fprintf(w, "Lotes sin aplicar:     %v\n", failed)
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "\nPrimeros errores (máx %d):\n", MaxErrorSamples)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  - [%s %s] %s\n", e.Trimestre, e.CURP, e.Message)
		}
	}
}
