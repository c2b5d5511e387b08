package database

import (
	"context"
	"errors"
)

// Record is a generic keyed attribute map, the shape both stores persist.
type Record map[string]interface{}

// Key identifies one ledger row by its key-column values.
type Key map[string]interface{}

// Filter restricts a ledger scan. A string value matches equality; a []string
// value matches any of the listed values (IN semantics). A nil or empty
// filter scans the whole table.
type Filter map[string]interface{}

// ScanPage is one page of a ledger scan. A page with a non-nil Err is the
// terminal event of a failed scan; a closed channel without one means the
// scan completed.
type ScanPage struct {
	Rows []Record
	Err  error
}

// ErrRecordNotFound is returned by GetByKey and Update when no row matches.
var ErrRecordNotFound = errors.New("ledger: record not found")

// LedgerStore is the authoritative column store for enrollment and batch
// records. Implementations must be safe for concurrent use.
type LedgerStore interface {
	// Insert writes one record. Inserting the same logical key again
	// overwrites the previous row.
	Insert(ctx context.Context, table string, rec Record) error

	// BatchInsert writes all records in a single store call. It is
	// all-or-nothing: on error no record is guaranteed written and the
	// caller is expected to fall back to per-record Insert.
	BatchInsert(ctx context.Context, table string, recs []Record) error

	// Update merges attrs into the row identified by key.
	Update(ctx context.Context, table string, key Key, attrs Record) error

	// GetByKey returns the row identified by key, or ErrRecordNotFound.
	GetByKey(ctx context.Context, table string, key Key) (Record, error)

	// ScanPages streams matching rows in pages of at most pageSize. The
	// returned channel is closed after the terminal event.
	ScanPages(ctx context.Context, table string, filter Filter, pageSize int) <-chan ScanPage
}
