package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	pg "github.com/heartcheck/heartcheck/pkg/postgres"
)

const recordTable = "heart_disease"

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pg.Querier
	pg.TxBeginner
}

// RecordStore implements port.RecordStore on the heart_disease table.
type RecordStore struct {
	db DB
}

var _ port.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a PostgreSQL-backed record store.
func NewRecordStore(db DB) *RecordStore {
	return &RecordStore{db: db}
}

// ReplaceAll truncates the table and bulk-loads records in one transaction,
// so readers see either the previous contents or the new ones.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []model.ClinicalRecord) (int64, error) {
	columns := schema.Columns()
	rows := make([][]any, len(records))
	for i, rec := range records {
		row, err := recordRow(rec, columns)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}

	var copied int64
	err := pg.WithTransaction(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+recordTable+" RESTART IDENTITY"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", recordTable, err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{recordTable}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy records: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// LoadAll returns every stored record in insertion order.
func (s *RecordStore) LoadAll(ctx context.Context) ([]model.ClinicalRecord, error) {
	columns := schema.Columns()
	selects := make([]string, len(columns))
	for i, col := range columns {
		selects[i] = col + "::float8"
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(selects, ", "), recordTable)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.ClinicalRecord
	values := make([]*float64, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec := make(model.ClinicalRecord, len(columns))
		for i, col := range columns {
			if values[i] == nil {
				rec[col] = math.NaN()
				continue
			}
			rec[col] = *values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+recordTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// recordRow orders a record's values by column. Missing values become NULL;
// categorical fields and the label go to SMALLINT columns and must fit them.
func recordRow(rec model.ClinicalRecord, columns []string) ([]any, error) {
	row := make([]any, len(columns))
	for i, col := range columns {
		v, ok := rec[col]
		if !ok || math.IsNaN(v) {
			row[i] = nil
			continue
		}
		if f, known := schema.Lookup(col); col == schema.Label || (known && f.Kind == schema.Categorical) {
			if v != math.Trunc(v) || v < math.MinInt16 || v > math.MaxInt16 {
				return nil, fmt.Errorf("%s value %v does not fit a smallint column", col, v)
			}
			row[i] = int16(v)
			continue
		}
		row[i] = v
	}
	return row, nil
}
