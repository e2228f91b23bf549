package analytics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidGroup is returned when the store reports a weekday or hour out of range.
var ErrInvalidGroup = errors.New("invalid weekday/hour group")

// DefaultCurrencySymbol prefixes sale amounts in activity descriptions.
const DefaultCurrencySymbol = "R$"

// Service computes dashboard aggregates. It holds no data; every operation
// reads from the Storage it is given.
type Service struct {
	logger         *zap.Logger
	currencySymbol string
}

// NewService creates a new Service.
func NewService(logger *zap.Logger, currencySymbol string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currencySymbol == "" {
		currencySymbol = DefaultCurrencySymbol
	}

	return &Service{
		logger:         logger,
		currencySymbol: currencySymbol,
	}
}

// ComputeStats returns GlobalStats when month is zero and MonthStats otherwise.
// The month filter matches that month of any year.
func (s *Service) ComputeStats(ctx context.Context, store Storage, month time.Month) (Stats, error) {
	filter := SaleFilter{Month: month}

	revenue, err := store.SumSaleAmount(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: sum sale amount: %w", ErrStorage, err)
	}
	totalSales, err := store.CountSales(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: count sales: %w", ErrStorage, err)
	}
	totalCustomers, err := store.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count customers: %w", ErrStorage, err)
	}
	totalRevenue := revenue.Round(2).InexactFloat64()

	if month != 0 {
		stats := MonthStats{
			Month:          month,
			TotalRevenue:   totalRevenue,
			TotalSales:     totalSales,
			TotalCustomers: totalCustomers,
		}
		s.logger.Info("monthly stats computed",
			zap.Int("month", int(month)),
			zap.Int64("total_sales", totalSales),
			zap.Float64("total_revenue", totalRevenue),
		)
		return stats, nil
	}

	var conversionRate float64
	if totalCustomers > 0 {
		buyers, err := store.CountDistinctSaleCustomers(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%w: count distinct sale customers: %w", ErrStorage, err)
		}
		conversionRate = float64(buyers) / float64(totalCustomers) * 100
	}

	stats := GlobalStats{
		TotalRevenue:   totalRevenue,
		TotalSales:     totalSales,
		TotalCustomers: totalCustomers,
		ConversionRate: conversionRate,
	}
	s.logger.Info("global stats computed",
		zap.Int64("total_sales", totalSales),
		zap.Int64("total_customers", totalCustomers),
		zap.Float64("conversion_rate", conversionRate),
	)
	return stats, nil
}

// BuildWeekdayHourMatrix groups sales by weekday (0 = Sunday) and hour of day.
func (s *Service) BuildWeekdayHourMatrix(ctx context.Context, store Storage) (WeekdayHourMatrix, error) {
	var matrix WeekdayHourMatrix
	for day := range matrix {
		matrix[day] = []HourBucket{}
	}

	rows, err := store.CountSalesByWeekdayHour(ctx)
	if err != nil {
		return WeekdayHourMatrix{}, fmt.Errorf("%w: count sales by weekday and hour: %w", ErrStorage, err)
	}

	for _, row := range rows {
		if row.Weekday < 0 || row.Weekday > 6 || row.Hour < 0 || row.Hour > 23 {
			return WeekdayHourMatrix{}, fmt.Errorf("%w: weekday %d hour %d", ErrInvalidGroup, row.Weekday, row.Hour)
		}
		matrix[row.Weekday] = append(matrix[row.Weekday], HourBucket{Hour: row.Hour, Sales: row.Sales})
	}
	for day := range matrix {
		slices.SortStableFunc(matrix[day], func(a, b HourBucket) int {
			return a.Hour - b.Hour
		})
	}

	s.logger.Info("weekday analysis built", zap.Int("groups", len(rows)))
	return matrix, nil
}

// BuildActivityFeed merges the newest customers and the newest sales into one
// feed, newest first.
//
// Each stream is cut to limit before merging, so the feed holds the latest
// limit entries of each kind rather than a global top limit. On equal
// timestamps customers come before sales.
func (s *Service) BuildActivityFeed(ctx context.Context, store Storage, limit int) ([]Activity, error) {
	if limit <= 0 {
		return []Activity{}, nil
	}

	customers, err := store.RecentCustomers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent customers: %w", ErrStorage, err)
	}
	sales, err := store.RecentSales(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent sales: %w", ErrStorage, err)
	}

	feed := make([]Activity, 0, len(customers)+len(sales))
	for _, c := range customers {
		feed = append(feed, s.customerActivity(c))
	}
	for _, sale := range sales {
		feed = append(feed, s.saleActivity(sale))
	}

	slices.SortStableFunc(feed, func(a, b Activity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}

	s.logger.Info("activity feed built",
		zap.Int("limit", limit),
		zap.Int("customers", len(customers)),
		zap.Int("sales", len(sales)),
		zap.Int("results_count", len(feed)),
	)
	return feed, nil
}

func (s *Service) customerActivity(c *Customer) Activity {
	return Activity{
		Type:        ActivityCustomer,
		ID:          c.ID,
		Description: "New customer: " + c.Name,
		TimeLabel:   timeLabel(c.CreatedAt),
		CreatedAt:   c.CreatedAt,
	}
}

func (s *Service) saleActivity(sale *Sale) Activity {
	return Activity{
		Type:        ActivitySale,
		ID:          sale.ID,
		Description: fmt.Sprintf("Sale of %s %s completed", s.currencySymbol, sale.TotalAmount.StringFixed(2)),
		TimeLabel:   timeLabel(sale.CreatedAt),
		CreatedAt:   sale.CreatedAt,
	}
}

func timeLabel(t time.Time) string {
	return t.Format("15:04")
}
