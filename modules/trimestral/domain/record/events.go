package record

// CreatedEvent is published after a single record is persisted.
type CreatedEvent struct {
	Record  *Record
	Usuario string
}

// BulkIngestedEvent is published after a bulk request completes, whether or
// not every row made it in.
type BulkIngestedEvent struct {
	Usuario string
	Report  *Report
}
