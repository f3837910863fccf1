package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mokcj0825/mall-order-api/internal/storage/postgres"
)

const (
	upsertUserSQL = `INSERT INTO users (id, username, status, tier) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username = $2, status = $3, tier = $4`

	upsertProductSQL = `INSERT INTO products (id, name, price, image, stock, reserved)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (id) DO UPDATE SET name = $2, price = $3, image = $4, stock = $5, reserved = 0`

	upsertCouponSQL = `INSERT INTO coupons (id, code, user_id, discount_type, value, min_amount, max_discount, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'ACTIVE')
		ON CONFLICT (id) DO UPDATE SET code = $2, user_id = $3, discount_type = $4, value = $5,
		min_amount = $6, max_discount = $7, expires_at = $8, status = 'ACTIVE', locked_by = NULL`

	upsertAddressSQL = `INSERT INTO shipping_addresses (id, user_id, receiver, phone, region, detail, is_remote, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET user_id = $2, receiver = $3, phone = $4, region = $5,
		detail = $6, is_remote = $7, is_default = $8`
)

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUsers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAddresses(ctx, pool); err != nil {
		return errors.Wrap(err, "seed addresses")
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	users := []struct {
		id, username, status, tier string
	}{
		{"u-standard", "alice", "ENABLED", "STANDARD"},
		{"u-vip", "bob", "ENABLED", "VIP"},
		{"u-svip", "carol", "ENABLED", "SVIP"},
		{"u-disabled", "mallory", "DISABLED", "STANDARD"},
	}

	slog.Info("upserting users", slog.Int("count", len(users)))

	for _, u := range users {
		if _, err := pool.Exec(ctx, upsertUserSQL, u.id, u.username, u.status, u.tier); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.id)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	products := []struct {
		id, name string
		price    decimal.Decimal
		image    string
		stock    int
	}{
		{"p-keyboard", "Mechanical Keyboard", decimal.RequireFromString("150.00"), "/images/keyboard.png", 50},
		{"p-mouse", "Wireless Mouse", decimal.RequireFromString("89.90"), "/images/mouse.png", 120},
		{"p-monitor", "27in 4K Monitor", decimal.RequireFromString("1999.00"), "/images/monitor.png", 15},
		{"p-cable", "USB-C Cable", decimal.RequireFromString("19.90"), "/images/cable.png", 500},
		{"p-stand", "Laptop Stand", decimal.RequireFromString("100.10"), "/images/stand.png", 80},
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL, p.id, p.name, p.price, p.image, p.stock); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.id)
		}
		slog.Info("upserted product", slog.String("id", p.id), slog.String("name", p.name))
	}
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	nextMonth := time.Now().AddDate(0, 1, 0)
	yesterday := time.Now().AddDate(0, 0, -1)

	coupons := []struct {
		id, code, userID, discountType string
		value, minAmount, maxDiscount  decimal.Decimal
		expiresAt                      time.Time
	}{
		{"c-flat50", "FLAT50", "u-standard", "FIXED_AMOUNT",
			decimal.NewFromInt(50), decimal.NewFromInt(200), decimal.Zero, nextMonth},
		{"c-save20", "SAVE20", "u-vip", "PERCENTAGE",
			decimal.NewFromInt(20), decimal.NewFromInt(100), decimal.NewFromInt(100), nextMonth},
		{"c-expired", "OLDTIMES", "u-standard", "PERCENTAGE",
			decimal.NewFromInt(10), decimal.Zero, decimal.Zero, yesterday},
	}

	slog.Info("upserting coupons", slog.Int("count", len(coupons)))

	for _, c := range coupons {
		_, err := pool.Exec(ctx, upsertCouponSQL,
			c.id, c.code, c.userID, c.discountType, c.value, c.minAmount, c.maxDiscount, c.expiresAt)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code))
	}
	return nil
}

func seedAddresses(ctx context.Context, pool *pgxpool.Pool) error {
	addresses := []struct {
		id, userID, receiver, phone, region, detail string
		isRemote, isDefault                         bool
	}{
		{"addr-city", "u-standard", "Alice", "13800000001", "Shanghai", "1 Nanjing Rd", false, true},
		{"addr-remote", "u-standard", "Alice", "13800000001", "Tibet", "8 Mountain Pass", true, false},
		{"addr-vip", "u-vip", "Bob", "13800000002", "Beijing", "2 Chang'an Ave", false, true},
		{"addr-svip", "u-svip", "Carol", "13800000003", "Shenzhen", "3 Shennan Blvd", false, true},
	}

	slog.Info("upserting addresses", slog.Int("count", len(addresses)))

	for _, a := range addresses {
		_, err := pool.Exec(ctx, upsertAddressSQL,
			a.id, a.userID, a.receiver, a.phone, a.region, a.detail, a.isRemote, a.isDefault)
		if err != nil {
			return errors.Wrapf(err, "upsert address %s", a.id)
		}
	}
	return nil
}
