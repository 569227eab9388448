package db

import (
	"context"
	"database/sql"
	"fmt"
)

type demoConnection struct {
	id, description, marketplace string
}

type demoProduct struct {
	id, description, article string
	price                    float64
}

// DemoSale is one row of the demo sales register.
type DemoSale struct {
	Date         string
	RegisteredAt string
	Connection   string
	Product      string
	Article      string
	IsReturn     bool
	Quantity     int64
	Total        float64
	Commission   float64
}

var demoConnections = []demoConnection{
	{"c1", "Ozon Основной", "ozon"},
	{"c2", "Wildberries", "wildberries"},
	{"c3", "Яндекс Маркет", "yandex"},
}

var demoProducts = []demoProduct{
	{"p1", "Чехол для телефона", "A-100", 499},
	{"p2", "Зарядное устройство", "A-200", 1290},
	{"p3", "Кабель USB-C", "A-300", 350},
}

// DemoSales is the deterministic sales register written by SeedDemo.
var DemoSales = []DemoSale{
	{"2023-12-28", "2023-12-28 09:15:00", "c3", "p1", "A-100", false, 1, 499, 50},
	{"2024-01-05", "2024-01-05 10:00:00", "c1", "p1", "A-100", false, 2, 998, 99.8},
	{"2024-01-05", "2024-01-05 11:30:00", "c1", "p2", "A-200", false, 1, 1290, 129},
	{"2024-01-17", "2024-01-17 16:45:00", "c2", "p3", "A-300", false, 4, 1400, 140},
	{"2024-01-20", "2024-01-20 12:00:00", "c1", "p1", "A-100", true, 1, 499, 49.9},
	{"2024-02-03", "2024-02-03 08:05:00", "c2", "p1", "A-100", false, 3, 1497, 149.7},
	{"2024-02-10", "2024-02-10 19:20:00", "c2", "p2", "A-200", false, 1, 1290, 129},
	{"2024-02-14", "2024-02-14 14:00:00", "c1", "p3", "A-300", false, 5, 1750, 175},
}

// SeedDemo fills empty marketplace tables with the demo catalog. It does
// nothing when connections already exist.
func SeedDemo(ctx context.Context, db *sql.DB) (seeded bool, err error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM a006_connection_mp`).Scan(&n); err != nil {
		return false, fmt.Errorf("count connections: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range demoConnections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO a006_connection_mp (id, description, marketplace) VALUES (?, ?, ?)`,
			c.id, c.description, c.marketplace); err != nil {
			return false, fmt.Errorf("seed connection %s: %w", c.id, err)
		}
	}
	for _, p := range demoProducts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO a007_marketplace_product (id, description, article, price) VALUES (?, ?, ?, ?)`,
			p.id, p.description, p.article, p.price); err != nil {
			return false, fmt.Errorf("seed product %s: %w", p.id, err)
		}
	}
	if err := insertSales(ctx, tx, DemoSales); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// InsertSales appends rows to the sales register.
func InsertSales(ctx context.Context, db *sql.DB, sales []DemoSale) error {
	return insertSales(ctx, db, sales)
}

func insertSales(ctx context.Context, db execer, sales []DemoSale) error {
	for i, s := range sales {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO p904_sales_data (date, registered_at, connection_mp_ref, marketplace_product_ref, article, is_return, quantity, total, commission)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Date, s.RegisteredAt, nullable(s.Connection), nullable(s.Product), nullable(s.Article),
			s.IsReturn, s.Quantity, s.Total, s.Commission); err != nil {
			return fmt.Errorf("seed sale %d: %w", i, err)
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
