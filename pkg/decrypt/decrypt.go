// Package decrypt removes PDF encryption before documents reach the
// analysis engine. Capabilities are probed lazily in configured order and
// each attempt is timed, bounded, and reported to the audit log.
package decrypt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/courier/pkg/audit"
)

// Adapter detects encrypted PDFs and decrypts them through the first
// available capability that succeeds.
type Adapter struct {
	caps     []Capability
	timeout  time.Duration
	sem      *semaphore.Weighted
	probes   singleflight.Group
	recorder audit.Recorder
	logger   *slog.Logger
}

// New creates an Adapter over caps, tried in slice order.
func New(caps []Capability, cfg *Config, recorder audit.Recorder, logger *slog.Logger) *Adapter {
	return &Adapter{
		caps:     caps,
		timeout:  cfg.TimeoutDuration(),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		recorder: recorder,
		logger:   logger.With("system", "decrypt"),
	}
}

// Attempt describes a single capability invocation. It is never persisted.
type Attempt struct {
	Method    string
	SizeBytes int
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

func (a Attempt) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("method", a.Method),
		slog.Int("size_bytes", a.SizeBytes),
		slog.Int64("duration_ms", a.Duration.Milliseconds()),
	}
	if a.Err != nil {
		attrs = append(attrs, slog.String("outcome", "failure"), slog.String("error", a.Err.Error()))
	} else {
		attrs = append(attrs, slog.String("outcome", "success"))
	}
	return slog.GroupValue(attrs...)
}

// EnsureDecrypted returns data unchanged with wasEncrypted false when data is
// not an encrypted PDF. Otherwise it returns the decrypted bytes, or an *Error
// and never partial output.
func (a *Adapter) EnsureDecrypted(ctx context.Context, data []byte) ([]byte, bool, error) {
	if !IsEncrypted(data) {
		return data, false, nil
	}

	var lastErr *Error
	for _, c := range a.caps {
		if !a.probe(ctx, c) {
			continue
		}

		plain, err := a.attempt(ctx, c, data)
		if err == nil {
			return plain, true, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		a.logger.Warn("decryption attempt failed, trying next capability", "method", c.Name(), "error", err)
	}

	if lastErr != nil {
		return nil, true, lastErr
	}

	err := &Error{Kind: KindUnavailable, Method: a.methods(), Err: errors.New("no decryption capability available")}
	a.logger.Error("encrypted document rejected", "error", err)
	return nil, true, err
}

// probe reports availability for c. Concurrent probes of the same capability
// share one check.
func (a *Adapter) probe(ctx context.Context, c Capability) bool {
	v, _, _ := a.probes.Do(c.Name(), func() (any, error) {
		return c.Available(ctx), nil
	})
	available := v.(bool)

	a.recorder.Record(audit.DecryptionAvailability, audit.Attributes{
		"method":    c.Name(),
		"available": available,
	})
	return available
}

func (a *Adapter) attempt(ctx context.Context, c Capability, data []byte) ([]byte, *Error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		derr := &Error{Kind: KindToolError, Method: c.Name(), Err: err}
		a.recordFailure(Attempt{Method: c.Name(), SizeBytes: len(data), StartedAt: time.Now(), Err: derr})
		return nil, derr
	}

	a.recorder.Record(audit.DecryptionStart, audit.Attributes{
		"sizeBytes": len(data),
		"method":    c.Name(),
	})

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	att := Attempt{Method: c.Name(), SizeBytes: len(data), StartedAt: time.Now()}
	plain, err := a.run(runCtx, c, data)
	if err == nil {
		err = validateOutput(plain)
	}
	att.Duration = time.Since(att.StartedAt)

	if err != nil {
		derr := classify(runCtx, c.Name(), err)
		att.Err = derr
		a.recordFailure(att)
		return nil, derr
	}

	a.recorder.Record(audit.DecryptionSuccess, audit.Attributes{
		"sizeBytes":  len(data),
		"durationMs": att.Duration.Milliseconds(),
		"method":     c.Name(),
	})
	a.logger.Info("document decrypted", "attempt", att)
	return plain, nil
}

// run invokes c on its own goroutine, which owns the semaphore slot acquired
// by attempt. The slot is released when c returns, not when ctx expires, so a
// capability that ignores cancellation still counts against MaxConcurrent.
func (a *Adapter) run(ctx context.Context, c Capability, data []byte) ([]byte, error) {
	type result struct {
		out []byte
		err error
	}

	done := make(chan result, 1)
	go func() {
		defer a.sem.Release(1)
		out, err := c.Decrypt(ctx, data)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) recordFailure(att Attempt) {
	attrs := audit.ErrorAttributes(att.Err).With(audit.Attributes{
		"sizeBytes":    att.SizeBytes,
		"method":       att.Method,
		"errorMessage": att.Err.Error(),
		"durationMs":   att.Duration.Milliseconds(),
	})
	a.recorder.Record(audit.DecryptionError, attrs)
	a.logger.Error("decryption failed", "attempt", att)
}

func (a *Adapter) methods() string {
	if len(a.caps) == 0 {
		return "none"
	}
	names := a.caps[0].Name()
	for _, c := range a.caps[1:] {
		names += "," + c.Name()
	}
	return names
}

func classify(runCtx context.Context, method string, err error) *Error {
	var derr *Error
	if errors.As(err, &derr) {
		if derr.Method == "" {
			derr.Method = method
		}
		return derr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Method: method, Err: err}
	}
	return &Error{Kind: KindToolError, Method: method, Err: err}
}

// validateOutput rejects output that is not a PDF or still carries an
// encryption dictionary.
func validateOutput(plain []byte) error {
	if len(plain) == 0 || !IsPDF(plain) {
		return &Error{Kind: KindMalformedOutput, Err: ErrMalformedOutput}
	}
	if IsEncrypted(plain) {
		return &Error{Kind: KindMalformedOutput, Err: ErrStillEncrypted}
	}
	return nil
}
