package services

import (
	"context"
	"strings"
	"sync"

	"lms/database"
	"lms/models"
)

// ledgerKeyOf derives the fake's storage key the same way the real ledger
// does: the registered key columns joined in order.
func ledgerKeyOf(table string, values map[string]interface{}) string {
	cols := models.LedgerKeyColumns()[table]
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		s, _ := values[col].(string)
		parts = append(parts, s)
	}
	return table + "|" + strings.Join(parts, ":")
}

type updateCall struct {
	table string
	key   database.Key
	attrs database.Record
}

type fakeLedger struct {
	mu sync.Mutex

	rows map[string]database.Record

	batchErr  error
	insertErr map[string]error // keyed by userId
	updateErr error

	batchCalls  [][]database.Record
	insertCalls []database.Record
	updateCalls []updateCall

	scanRows map[string][]database.Record
	failScan func(filter database.Filter) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		rows:      make(map[string]database.Record),
		insertErr: make(map[string]error),
		scanRows:  make(map[string][]database.Record),
	}
}

func (f *fakeLedger) Insert(ctx context.Context, table string, rec database.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls = append(f.insertCalls, rec)
	if userID, ok := rec[models.ColUserID].(string); ok {
		if err := f.insertErr[userID]; err != nil {
			return err
		}
	}
	f.rows[ledgerKeyOf(table, rec)] = rec
	return nil
}

func (f *fakeLedger) BatchInsert(ctx context.Context, table string, recs []database.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// The writer reuses its buffer across flushes; keep our own copy.
	copied := make([]database.Record, len(recs))
	copy(copied, recs)
	f.batchCalls = append(f.batchCalls, copied)
	if f.batchErr != nil {
		return f.batchErr
	}
	for _, rec := range recs {
		f.rows[ledgerKeyOf(table, rec)] = rec
	}
	return nil
}

func (f *fakeLedger) Update(ctx context.Context, table string, key database.Key, attrs database.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	row, ok := f.rows[ledgerKeyOf(table, key)]
	if !ok {
		return database.ErrRecordNotFound
	}
	for k, v := range attrs {
		row[k] = v
	}
	f.updateCalls = append(f.updateCalls, updateCall{table: table, key: key, attrs: attrs})
	return nil
}

func (f *fakeLedger) GetByKey(ctx context.Context, table string, key database.Key) (database.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[ledgerKeyOf(table, key)]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	out := make(database.Record, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func (f *fakeLedger) ScanPages(ctx context.Context, table string, filter database.Filter, pageSize int) <-chan database.ScanPage {
	out := make(chan database.ScanPage)
	go func() {
		defer close(out)
		f.mu.Lock()
		failScan := f.failScan
		rows := matchRows(f.scanRows[table], filter)
		f.mu.Unlock()

		if failScan != nil {
			if err := failScan(filter); err != nil {
				out <- database.ScanPage{Err: err}
				return
			}
		}
		for start := 0; start < len(rows); start += pageSize {
			end := start + pageSize
			if end > len(rows) {
				end = len(rows)
			}
			out <- database.ScanPage{Rows: rows[start:end]}
		}
	}()
	return out
}

func matchRows(rows []database.Record, filter database.Filter) []database.Record {
	if len(filter) == 0 {
		return rows
	}
	var matched []database.Record
	for _, row := range rows {
		ok := true
		for col, want := range filter {
			have, _ := row[col].(string)
			switch w := want.(type) {
			case []string:
				found := false
				for _, v := range w {
					if v == have {
						found = true
						break
					}
				}
				ok = ok && found
			case string:
				ok = ok && have == w
			default:
				ok = false
			}
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched
}

type upsertCall struct {
	index string
	docID string
	doc   database.Record
}

type bulkCall struct {
	index string
	docs  []database.Document
}

type fakeIndex struct {
	mu sync.Mutex

	upsertErr error
	updateErr error
	bulkErr   error

	upsertCalls []upsertCall
	updateCalls []upsertCall
	bulkCalls   []bulkCall
}

func (f *fakeIndex) Upsert(ctx context.Context, index, docID string, doc database.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertCalls = append(f.upsertCalls, upsertCall{index: index, docID: docID, doc: doc})
	return nil
}

func (f *fakeIndex) BulkInsert(ctx context.Context, index string, docs []database.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bulkErr != nil {
		return f.bulkErr
	}
	copied := make([]database.Document, len(docs))
	copy(copied, docs)
	f.bulkCalls = append(f.bulkCalls, bulkCall{index: index, docs: copied})
	return nil
}

func (f *fakeIndex) Update(ctx context.Context, index, docID string, attrs database.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updateCalls = append(f.updateCalls, upsertCall{index: index, docID: docID, doc: attrs})
	return nil
}

func (f *fakeIndex) GetByID(ctx context.Context, index, docID string) (database.Record, error) {
	return nil, database.ErrDocumentNotFound
}

func (f *fakeIndex) Search(ctx context.Context, index, field string, values []string) ([]database.Record, error) {
	return nil, nil
}

type fakeCapacity struct {
	mu sync.Mutex

	counters map[string]int
	getErr   error
	setErr   error

	setCalls []struct {
		entityID string
		counter  string
		value    int
	}
}

func newFakeCapacity() *fakeCapacity {
	return &fakeCapacity{counters: make(map[string]int)}
}

func (f *fakeCapacity) GetCounter(ctx context.Context, entityID, counterName string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.counters[entityID+"/"+counterName], nil
}

func (f *fakeCapacity) SetCounter(ctx context.Context, entityID, counterName string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.counters[entityID+"/"+counterName] = value
	f.setCalls = append(f.setCalls, struct {
		entityID string
		counter  string
		value    int
	}{entityID, counterName, value})
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []struct {
		objectType string
		scanID     string
		cause      error
	}
}

func (f *fakeNotifier) NotifyScanFailure(objectType, scanID string, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		objectType string
		scanID     string
		cause      error
	}{objectType, scanID, cause})
}
