package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Dialect renders the engine-specific parts of the analytics queries.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument, starting at 1.
	Placeholder(n int) string
	Month(column string) string
	Weekday(column string) string
	Hour(column string) string
}

// PostgresDialect targets PostgreSQL through lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (PostgresDialect) Month(column string) string {
	return "CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
}
func (PostgresDialect) Weekday(column string) string {
	return "CAST(EXTRACT(DOW FROM " + column + ") AS INTEGER)"
}
func (PostgresDialect) Hour(column string) string {
	return "CAST(EXTRACT(HOUR FROM " + column + ") AS INTEGER)"
}

// SQLiteDialect targets SQLite through modernc.org/sqlite.
// Timestamps are expected as "YYYY-MM-DD HH:MM[:SS]" text without an offset:
// strftime buckets offset timestamps in UTC while time labels keep the offset.
type SQLiteDialect struct{}

func (SQLiteDialect) Placeholder(int) string { return "?" }
func (SQLiteDialect) Month(column string) string {
	return "CAST(strftime('%m', " + column + ") AS INTEGER)"
}
func (SQLiteDialect) Weekday(column string) string {
	return "CAST(strftime('%w', " + column + ") AS INTEGER)"
}
func (SQLiteDialect) Hour(column string) string {
	return "CAST(strftime('%H', " + column + ") AS INTEGER)"
}

// SQLStorage implements Storage over the sales and customers tables.
type SQLStorage struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStorage wraps an open database handle.
func NewSQLStorage(db *sql.DB, dialect Dialect) *SQLStorage {
	return &SQLStorage{db: db, dialect: dialect}
}

// OpenSQLStorage opens and pings a database for the given driver ("postgres" or "sqlite").
func OpenSQLStorage(ctx context.Context, driver, dsn string) (*SQLStorage, error) {
	var dialect Dialect
	switch driver {
	case "postgres":
		dialect = PostgresDialect{}
	case "sqlite":
		dialect = SQLiteDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	return NewSQLStorage(db, dialect), nil
}

// Close releases the underlying connection pool.
func (s *SQLStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStorage) SumSaleAmount(ctx context.Context, filter SaleFilter) (decimal.Decimal, error) {
	where, args := s.saleWhere(filter)
	var total decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, "SELECT SUM(total_amount) FROM sales"+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sale amount: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *SQLStorage) CountSales(ctx context.Context, filter SaleFilter) (int64, error) {
	where, args := s.saleWhere(filter)
	return s.count(ctx, "SELECT COUNT(*) FROM sales"+where, args...)
}

func (s *SQLStorage) CountCustomers(ctx context.Context) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM customers")
}

func (s *SQLStorage) CountDistinctSaleCustomers(ctx context.Context, filter SaleFilter) (int64, error) {
	where, args := s.saleWhere(filter)
	return s.count(ctx, "SELECT COUNT(DISTINCT customer_id) FROM sales"+where, args...)
}

func (s *SQLStorage) RecentCustomers(ctx context.Context, limit int) ([]*Customer, error) {
	query := "SELECT id, customer_name, created_at FROM customers ORDER BY created_at DESC, id DESC LIMIT " + s.dialect.Placeholder(1)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent customers: %w", err)
	}
	defer rows.Close()

	var customers []*Customer
	for rows.Next() {
		var (
			c       Customer
			name    sql.NullString
			created timestamp
		)
		if err := rows.Scan(&c.ID, &name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Name = name.String
		c.CreatedAt = created.Time
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

func (s *SQLStorage) RecentSales(ctx context.Context, limit int) ([]*Sale, error) {
	query := "SELECT id, store_id, customer_id, total_amount, created_at FROM sales ORDER BY created_at DESC, id DESC LIMIT " + s.dialect.Placeholder(1)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sales: %w", err)
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		var (
			sale       Sale
			customerID sql.NullInt64
			created    timestamp
		)
		if err := rows.Scan(&sale.ID, &sale.StoreID, &customerID, &sale.TotalAmount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if customerID.Valid {
			id := customerID.Int64
			sale.CustomerID = &id
		}
		sale.CreatedAt = created.Time
		sales = append(sales, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}
	return sales, nil
}

func (s *SQLStorage) CountSalesByWeekdayHour(ctx context.Context) ([]WeekdayHourCount, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, COUNT(*) FROM sales GROUP BY 1, 2 ORDER BY 1, 2",
		s.dialect.Weekday("created_at"), s.dialect.Hour("created_at"),
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group sales by weekday and hour: %w", err)
	}
	defer rows.Close()

	var groups []WeekdayHourCount
	for rows.Next() {
		var g WeekdayHourCount
		if err := rows.Scan(&g.Weekday, &g.Hour, &g.Sales); err != nil {
			return nil, fmt.Errorf("failed to scan weekday/hour group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weekday/hour groups: %w", err)
	}
	return groups, nil
}

func (s *SQLStorage) saleWhere(filter SaleFilter) (string, []any) {
	if filter.Month == 0 {
		return "", nil
	}
	return " WHERE " + s.dialect.Month("created_at") + " = " + s.dialect.Placeholder(1), []any{int(filter.Month)}
}

func (s *SQLStorage) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

// timestamp scans DATETIME columns that drivers hand back either as
// time.Time or as text.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestamp) parse(v string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", v)
}
