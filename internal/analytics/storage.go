package analytics

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrStorage marks failures coming from the data store.
var ErrStorage = errors.New("storage failure")

// ErrInvalidID is returned when trying to store a record without a positive ID.
var ErrInvalidID = errors.New("invalid record ID")

// Storage is the read-only query surface the analytics engine needs.
type Storage interface {
	SumSaleAmount(ctx context.Context, filter SaleFilter) (decimal.Decimal, error)
	CountSales(ctx context.Context, filter SaleFilter) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	// CountDistinctSaleCustomers counts distinct non-null customer references on sales.
	CountDistinctSaleCustomers(ctx context.Context, filter SaleFilter) (int64, error)
	// RecentCustomers returns up to limit customers, newest first.
	RecentCustomers(ctx context.Context, limit int) ([]*Customer, error)
	// RecentSales returns up to limit sales, newest first.
	RecentSales(ctx context.Context, limit int) ([]*Sale, error)
	// CountSalesByWeekdayHour groups sales by weekday and hour, ordered by both.
	CountSalesByWeekdayHour(ctx context.Context) ([]WeekdayHourCount, error)
}

// LocalStorage provides an in-memory implementation of Storage.
type LocalStorage struct {
	mu        sync.RWMutex
	sales     map[int64]*Sale
	customers map[int64]*Customer
}

// NewLocalStorage instantiates a new LocalStorage with empty maps.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		sales:     map[int64]*Sale{},
		customers: map[int64]*Customer{},
	}
}

// SetSale stores or replaces a sale.
// Returns ErrInvalidID if the sale has no positive ID.
func (l *LocalStorage) SetSale(sale *Sale) error {
	if sale.ID <= 0 {
		return ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sales[sale.ID] = sale
	return nil
}

// SetCustomer stores or replaces a customer.
// Returns ErrInvalidID if the customer has no positive ID.
func (l *LocalStorage) SetCustomer(customer *Customer) error {
	if customer.ID <= 0 {
		return ErrInvalidID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.customers[customer.ID] = customer
	return nil
}

// SumSaleAmount adds up the amounts of the sales matching filter.
func (l *LocalStorage) SumSaleAmount(_ context.Context, filter SaleFilter) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, s := range l.sales {
		if filter.matches(s) {
			total = total.Add(s.TotalAmount)
		}
	}
	return total, nil
}

// CountSales counts the sales matching filter.
func (l *LocalStorage) CountSales(_ context.Context, filter SaleFilter) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int64
	for _, s := range l.sales {
		if filter.matches(s) {
			n++
		}
	}
	return n, nil
}

// CountCustomers counts every stored customer.
func (l *LocalStorage) CountCustomers(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.customers)), nil
}

// CountDistinctSaleCustomers counts the customers referenced by matching sales.
func (l *LocalStorage) CountDistinctSaleCustomers(_ context.Context, filter SaleFilter) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, s := range l.sales {
		if s.CustomerID == nil || !filter.matches(s) {
			continue
		}
		seen[*s.CustomerID] = struct{}{}
	}
	return int64(len(seen)), nil
}

// RecentCustomers returns up to limit customers, newest first and then by descending ID.
func (l *LocalStorage) RecentCustomers(_ context.Context, limit int) ([]*Customer, error) {
	l.mu.RLock()
	customers := make([]*Customer, 0, len(l.customers))
	for _, c := range l.customers {
		customers = append(customers, c)
	}
	l.mu.RUnlock()

	slices.SortFunc(customers, func(a, b *Customer) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return truncate(customers, limit), nil
}

// RecentSales returns up to limit sales, newest first and then by descending ID.
func (l *LocalStorage) RecentSales(_ context.Context, limit int) ([]*Sale, error) {
	l.mu.RLock()
	sales := make([]*Sale, 0, len(l.sales))
	for _, s := range l.sales {
		sales = append(sales, s)
	}
	l.mu.RUnlock()

	slices.SortFunc(sales, func(a, b *Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return truncate(sales, limit), nil
}

// CountSalesByWeekdayHour groups sales by weekday and hour in the timestamp's own location.
func (l *LocalStorage) CountSalesByWeekdayHour(_ context.Context) ([]WeekdayHourCount, error) {
	type key struct{ weekday, hour int }

	l.mu.RLock()
	counts := make(map[key]int64)
	for _, s := range l.sales {
		counts[key{int(s.CreatedAt.Weekday()), s.CreatedAt.Hour()}]++
	}
	l.mu.RUnlock()

	rows := make([]WeekdayHourCount, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, WeekdayHourCount{Weekday: k.weekday, Hour: k.hour, Sales: n})
	}
	slices.SortFunc(rows, func(a, b WeekdayHourCount) int {
		if c := cmp.Compare(a.Weekday, b.Weekday); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return rows, nil
}

func (f SaleFilter) matches(s *Sale) bool {
	return f.Month == 0 || s.CreatedAt.Month() == f.Month
}

func truncate[T any](items []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
