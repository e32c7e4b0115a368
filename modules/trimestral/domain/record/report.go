package record

// MaxReportErrors caps how many row errors travel back in one response.
const MaxReportErrors = 50

// RowError identifies one row that could not be persisted.
type RowError struct {
	Trimestre string `json:"trimestre,omitempty"`
	CURP      string `json:"curp,omitempty"`
	IDRusp    string `json:"id_rusp,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Message   string `json:"message"`
}

// Report is the outcome of one bulk ingestion request.
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

// AddError records a failed row, keeping at most MaxReportErrors samples
// while ErrorsCount keeps the true total.
func (r *Report) AddError(e RowError) {
	r.ErrorsCount++
	if len(r.Errors) < MaxReportErrors {
		r.Errors = append(r.Errors, e)
	}
}
