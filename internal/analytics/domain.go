package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents a completed sales transaction as read from the data store.
type Sale struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	CustomerID  *int64          `json:"customer_id"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Customer represents a registered customer.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"customer_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityType tags the entity an Activity was derived from.
type ActivityType string

const (
	ActivityCustomer ActivityType = "customer"
	ActivitySale     ActivityType = "sale"
)

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type        ActivityType `json:"type"`
	ID          int64        `json:"id"`
	Description string       `json:"desc"`
	TimeLabel   string       `json:"time"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Stats is the result of ComputeStats. It is either GlobalStats or MonthStats.
type Stats interface {
	isStats()
}

// GlobalStats aggregates over every sale and customer.
type GlobalStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalSales     int64   `json:"total_sales"`
	TotalCustomers int64   `json:"total_customers"`
	ConversionRate float64 `json:"conversion_rate"`
}

// MonthStats restricts revenue and sale count to one month of the year.
// TotalCustomers is still the global customer count.
type MonthStats struct {
	Month          time.Month `json:"-"`
	TotalRevenue   float64    `json:"total_revenue"`
	TotalSales     int64      `json:"total_sales"`
	TotalCustomers int64      `json:"total_customers"`
}

func (GlobalStats) isStats() {}
func (MonthStats) isStats() {}

// SaleFilter narrows sale aggregates. A zero Month matches every sale.
type SaleFilter struct {
	Month time.Month
}

// WeekdayHourCount is one row of the weekday/hour grouping.
// Weekday follows time.Weekday: 0 is Sunday.
type WeekdayHourCount struct {
	Weekday int
	Hour    int
	Sales   int64
}

// HourBucket holds the number of sales recorded within one hour of a weekday.
type HourBucket struct {
	Hour  int
	Sales int64
}

// Label renders the hour as the dashboard expects it, e.g. "09h".
func (b HourBucket) Label() string {
	return fmt.Sprintf("%02dh", b.Hour)
}

// MarshalJSON encodes the bucket as {"hour": "09h", "sales": n}.
func (b HourBucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Hour  string `json:"hour"`
		Sales int64  `json:"sales"`
	}{
		Hour:  b.Label(),
		Sales: b.Sales,
	})
}

// WeekdayHourMatrix indexes hour buckets by weekday, Sunday first.
// Every weekday slot exists; the hours inside are sparse and ascending.
type WeekdayHourMatrix [7][]HourBucket

// MarshalJSON encodes the matrix as an object keyed "0".."6".
func (m WeekdayHourMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string][]HourBucket, len(m))
	for day, buckets := range m {
		if buckets == nil {
			buckets = []HourBucket{}
		}
		out[strconv.Itoa(day)] = buckets
	}
	return json.Marshal(out)
}
