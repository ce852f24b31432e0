package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Stats keeps per-day order counts and revenue per restaurant in redis.
// Revenue is stored in cents.
type Stats struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStats(client *redis.Client, ttl time.Duration) *Stats {
	return &Stats{Client: client, TTL: ttl}
}

type DailyStats struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"dailyOrders"`
	Revenue decimal.Decimal `json:"dailyRevenue"`
}

func ordersKey(date string) string {
	return "stats:orders:" + date
}

func revenueKey(date string, restaurantID uuid.UUID) string {
	return "stats:revenue:" + date + ":" + restaurantID.String()
}

func seenKey(orderID uuid.UUID) string {
	return "stats:seen:" + orderID.String()
}

// recordScript bumps both counters and marks the order seen as one unit.
// The seen marker is written last, so a failed attempt leaves the order
// countable on redelivery. A failed revenue write undoes the order count.
//
// KEYS: seen, orders, revenue. ARGV: restaurant id, cents, ttl ms.
var recordScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local counted = redis.pcall('ZINCRBY', KEYS[2], 1, ARGV[1])
if type(counted) == 'table' and counted.err then
	return counted
end
local revenue = redis.pcall('INCRBY', KEYS[3], ARGV[2])
if type(revenue) == 'table' and revenue.err then
	redis.call('ZINCRBY', KEYS[2], -1, ARGV[1])
	return revenue
end
redis.call('PEXPIRE', KEYS[2], ARGV[3])
redis.call('PEXPIRE', KEYS[3], ARGV[3])
redis.call('SET', KEYS[1], '1', 'PX', ARGV[3])
return 1
`)

// RecordOrder counts event once per order id; redelivered events are ignored.
// A failed attempt records nothing and can be retried.
func (s *Stats) RecordOrder(ctx context.Context, event OrderEvent) error {
	date := event.PlacedAt.UTC().Format(dateLayout)
	cents := event.TotalAmount.Shift(2).Round(0).IntPart()

	keys := []string{seenKey(event.OrderID), ordersKey(date), revenueKey(date, event.RestaurantID)}
	err := recordScript.Run(ctx, s.Client, keys, event.RestaurantID.String(), cents, s.TTL.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("record order stats: %w", err)
	}

	return nil
}

func (s *Stats) Daily(ctx context.Context, restaurantID uuid.UUID, day time.Time) (*DailyStats, error) {
	date := day.UTC().Format(dateLayout)
	stats := &DailyStats{Date: date, Revenue: decimal.Zero}

	score, err := s.Client.ZScore(ctx, ordersKey(date), restaurantID.String()).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("get daily orders: %w", err)
	default:
		stats.Orders = int64(score)
	}

	cents, err := s.Client.Get(ctx, revenueKey(date, restaurantID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("get daily revenue: %w", err)
	default:
		stats.Revenue = decimal.New(cents, -2)
	}

	return stats, nil
}
