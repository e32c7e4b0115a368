package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// Defaults match the batch sizing the capture teams have been running with.
const (
	DefaultBatchSize   = 120
	DefaultConcurrency = 2
	DefaultMaxAttempts = 3
	DefaultBackoffStep = 350 * time.Millisecond
)

// Doer lets tests swap the HTTP client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy controls how a failed batch send is retried. Backoff receives
// the attempt number starting at 1.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * DefaultBackoffStep
		},
	}
}

// permanentError marks an HTTP failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Uploader pushes normalized rows to the bulk endpoint in batches, with a
// small worker pool, retries and an optional resume cursor.
type Uploader struct {
	Endpoint    string
	Client      Doer
	CookieName  string
	Token       string
	BatchSize   int
	Concurrency int
	Retry       RetryPolicy
	Cursor      CursorStore
	CursorKey   string
	Logger      *logrus.Entry
	// Progress, when set, is called after each finished batch with the
	// number of completed batches and the total.
	Progress func(done, total int)
}

func (u *Uploader) batchSize() int {
	if u.BatchSize > 0 {
		return u.BatchSize
	}
	return DefaultBatchSize
}

func (u *Uploader) concurrency() int {
	if u.Concurrency > 0 {
		return u.Concurrency
	}
	return DefaultConcurrency
}

func (u *Uploader) retry() RetryPolicy {
	r := u.Retry
	if r.MaxAttempts < 1 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if r.Backoff == nil {
		r.Backoff = DefaultRetryPolicy().Backoff
	}
	return r
}

func (u *Uploader) cursor() CursorStore {
	if u.Cursor != nil {
		return u.Cursor
	}
	return NopCursorStore{}
}

func (u *Uploader) logger() *logrus.Entry {
	if u.Logger != nil {
		return u.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func chunk(rows []Row, size int) [][]Row {
	batches := make([][]Row, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

// Upload sends all rows and returns the aggregated summary. Batches already
// covered by the resume cursor are skipped. A batch that exhausts its
// retries is recorded in the summary and the run continues; only a canceled
// context aborts the whole upload.
func (u *Uploader) Upload(ctx context.Context, rows []Row) (*Summary, error) {
	batches := chunk(rows, u.batchSize())
	summary := &Summary{Report: Report{Errors: []RowError{}}}

	start, err := u.cursor().Load(u.CursorKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load resume cursor")
	}
	if start > len(batches) {
		start = len(batches)
	}
	if start > 0 {
		u.logger().WithField("batches", start).Info("resuming, skipping already uploaded batches")
	}

	var (
		next atomic.Int64
		mu   sync.Mutex
		done = start
		wg   sync.WaitGroup
	)
	next.Store(int64(start))

	workers := u.concurrency()
	if workers > len(batches)-start {
		workers = len(batches) - start
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(batches) || ctx.Err() != nil {
					return
				}

				report, err := u.sendBatch(ctx, batches[i])

				mu.Lock()
				if err != nil {
					if ctx.Err() == nil {
						u.logger().WithError(err).WithField("batch", i+1).Error("batch given up")
						summary.MarkFailed(i, len(batches[i]), err)
					}
				} else {
					summary.Merge(report)
				}
				// the cursor also moves past exhausted batches, so a
				// resumed run does not retry them forever
				if ctx.Err() == nil {
					if err := u.cursor().Save(u.CursorKey, i+1); err != nil {
						u.logger().WithError(err).Warn("failed to persist resume cursor")
					}
				}
				done++
				if u.Progress != nil {
					u.Progress(done, len(batches))
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	summary.Success = summary.OK()
	return summary, nil
}

func (u *Uploader) sendBatch(ctx context.Context, batch []Row) (*Report, error) {
	policy := u.retry()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		report, err := u.post(ctx, batch)
		if err == nil {
			return report, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
		u.logger().WithError(err).WithField("attempt", attempt).Warn("batch send failed")

		if attempt < policy.MaxAttempts {
			if err := sleep(ctx, policy.Backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (u *Uploader) post(ctx context.Context, batch []Row) (*Report, error) {
	payload, err := json.Marshal(map[string]any{"rows": batch})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if u.Token != "" {
		name := u.CookieName
		if name == "" {
			name = "session_token"
		}
		req.AddCookie(&http.Cookie{Name: name, Value: u.Token})
	}

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var report Report
		if err := json.Unmarshal(body, &report); err != nil {
			return nil, errors.Wrap(err, "failed to decode batch report")
		}
		return &report, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return nil, &permanentError{errors.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))}
	default:
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
