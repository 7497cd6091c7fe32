// Package journal records per-check outcomes as a msgpack append log.
//
// One record is written per check invocation, whatever its outcome, so a
// session's polling history can be reconstructed after the fact
// (freshen journal <file>). The stream is plain concatenated msgpack maps;
// readers decode until EOF.
package journal

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Outcome classifies one check invocation.
type Outcome string

// Check outcomes.
const (
	// OutcomeSkippedOffline: the offline guard fired; no network call.
	OutcomeSkippedOffline Outcome = "skipped_offline"
	// OutcomeFetchError: transport failure or non-success response.
	OutcomeFetchError Outcome = "fetch_error"
	// OutcomeParseError: response body was not a usable manifest.
	OutcomeParseError Outcome = "parse_error"
	// OutcomeMatch: manifest observed, version matches the running build.
	OutcomeMatch Outcome = "match"
	// OutcomeMismatch: manifest observed, version differs.
	OutcomeMismatch Outcome = "mismatch"
)

// Record is one journaled check.
type Record struct {
	// Seq is the check sequence number within the session, starting at 1.
	Seq int64 `msgpack:"seq"`
	// At is the check time in ISO 8601 UTC.
	At string `msgpack:"at"`
	// Trigger names what initiated the check (startup, tick, wake,
	// online, manual).
	Trigger string `msgpack:"trigger"`
	// Outcome classifies the result.
	Outcome Outcome `msgpack:"outcome"`
	// RemoteVersion is the observed manifest version, when any.
	RemoteVersion string `msgpack:"remote_version,omitempty"`
	// Latched reports whether the update latch was set after this check.
	Latched bool `msgpack:"latched"`
}

// Writer appends records to a stream. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
	seq int64
	now func() time.Time
}

// NewWriter creates a journal writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		enc: msgpack.NewEncoder(w),
		now: time.Now,
	}
}

// Append journals one check outcome. Sequence and timestamp are assigned
// here. Callers treat failures as best-effort (log and continue).
func (w *Writer) Append(trigger string, outcome Outcome, remoteVersion string, latched bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	rec := Record{
		Seq:           w.seq,
		At:            w.now().UTC().Format(time.RFC3339Nano),
		Trigger:       trigger,
		Outcome:       outcome,
		RemoteVersion: remoteVersion,
		Latched:       latched,
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}

// Read decodes every record from a journal stream.
func Read(r io.Reader) ([]Record, error) {
	dec := msgpack.NewDecoder(r)

	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("journal read: record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}
