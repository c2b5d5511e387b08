package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRow is the physical storage row: one JSON attribute map per logical
// record, keyed by table name plus the derived row key.
type LedgerRow struct {
	SourceTable string            `gorm:"primaryKey;size:64;column:source_table"`
	RowKey      string            `gorm:"primaryKey;size:191;column:row_key"`
	Attrs       datatypes.JSONMap `gorm:"column:attrs"`
	UpdatedAt   time.Time
}

// TableName overrides the GORM table name
func (LedgerRow) TableName() string {
	return "ledger_rows"
}

// ConnectLedger establishes a connection to PostgreSQL and runs migrations
func ConnectLedger(host, user, password, dbName, port string) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbName, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	log.Println("Running Migrations...")
	if err := db.AutoMigrate(&LedgerRow{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// GormLedger implements LedgerStore on a relational database. Row keys are
// derived from the key columns registered per table, so writes for the same
// logical key are idempotent overwrites.
type GormLedger struct {
	db         *gorm.DB
	keyColumns map[string][]string
}

// NewGormLedger wraps db as a LedgerStore. keyColumns maps each logical table
// to the ordered attribute names forming its primary key.
func NewGormLedger(db *gorm.DB, keyColumns map[string][]string) *GormLedger {
	return &GormLedger{db: db, keyColumns: keyColumns}
}

// rowKey derives the storage key for one record. Every registered key column
// must be present and non-empty.
func (g *GormLedger) rowKey(table string, rec Record) (string, error) {
	cols, ok := g.keyColumns[table]
	if !ok {
		return "", fmt.Errorf("ledger: unknown table %q", table)
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		val, _ := rec[col].(string)
		if val == "" {
			return "", fmt.Errorf("ledger: record for table %q is missing key column %q", table, col)
		}
		parts = append(parts, val)
	}
	return strings.Join(parts, ":"), nil
}

func (g *GormLedger) keyToRowKey(table string, key Key) (string, error) {
	rec := make(Record, len(key))
	for k, v := range key {
		rec[k] = v
	}
	return g.rowKey(table, rec)
}

func (g *GormLedger) Insert(ctx context.Context, table string, rec Record) error {
	rk, err := g.rowKey(table, rec)
	if err != nil {
		return err
	}
	row := LedgerRow{
		SourceTable: table,
		RowKey:      rk,
		Attrs:       datatypes.JSONMap(rec),
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (g *GormLedger) BatchInsert(ctx context.Context, table string, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]LedgerRow, 0, len(recs))
	for _, rec := range recs {
		rk, err := g.rowKey(table, rec)
		if err != nil {
			// One malformed record fails the whole batch; the caller's
			// per-record fallback isolates it.
			return err
		}
		rows = append(rows, LedgerRow{
			SourceTable: table,
			RowKey:      rk,
			Attrs:       datatypes.JSONMap(rec),
		})
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

func (g *GormLedger) Update(ctx context.Context, table string, key Key, attrs Record) error {
	rk, err := g.keyToRowKey(table, key)
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row LedgerRow
		err := tx.Where("source_table = ? AND row_key = ?", table, rk).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		if row.Attrs == nil {
			row.Attrs = datatypes.JSONMap{}
		}
		for k, v := range attrs {
			row.Attrs[k] = v
		}
		return tx.Save(&row).Error
	})
}

func (g *GormLedger) GetByKey(ctx context.Context, table string, key Key) (Record, error) {
	rk, err := g.keyToRowKey(table, key)
	if err != nil {
		return nil, err
	}
	var row LedgerRow
	err = g.db.WithContext(ctx).
		Where("source_table = ? AND row_key = ?", table, rk).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return Record(row.Attrs), nil
}

// applyFilter compiles a Filter into JSON-attribute conditions. Multi-value
// entries become an OR group over the column.
func (g *GormLedger) applyFilter(tx *gorm.DB, filter Filter) *gorm.DB {
	for col, val := range filter {
		var alternatives []interface{}
		switch v := val.(type) {
		case []string:
			for _, alt := range v {
				alternatives = append(alternatives, alt)
			}
		case []interface{}:
			alternatives = v
		default:
			alternatives = []interface{}{v}
		}
		if len(alternatives) == 0 {
			continue
		}
		cond := g.db.Where(datatypes.JSONQuery("attrs").Equals(alternatives[0], col))
		for _, alt := range alternatives[1:] {
			cond = cond.Or(datatypes.JSONQuery("attrs").Equals(alt, col))
		}
		tx = tx.Where(cond)
	}
	return tx
}

func (g *GormLedger) ScanPages(ctx context.Context, table string, filter Filter, pageSize int) <-chan ScanPage {
	if pageSize <= 0 {
		pageSize = 100
	}
	out := make(chan ScanPage)
	go func() {
		defer close(out)
		offset := 0
		for {
			var rows []LedgerRow
			tx := g.db.WithContext(ctx).
				Where("source_table = ?", table)
			tx = g.applyFilter(tx, filter)
			err := tx.Order("row_key").
				Offset(offset).
				Limit(pageSize).
				Find(&rows).Error
			if err != nil {
				select {
				case out <- ScanPage{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(rows) == 0 {
				return
			}
			page := make([]Record, 0, len(rows))
			for _, row := range rows {
				page = append(page, Record(row.Attrs))
			}
			select {
			case out <- ScanPage{Rows: page}:
			case <-ctx.Done():
				return
			}
			if len(rows) < pageSize {
				return
			}
			offset += pageSize
		}
	}()
	return out
}
