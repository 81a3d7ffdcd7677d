package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func insertProduct(t *testing.T, db *sqlx.DB, name string, price float64, stock int) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO products(name,price,category,stock) VALUES(?,?,'MILK',?)`, name, price, stock)
	if err != nil {
		t.Fatal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// Cart scenario from the storefront: stock 5, add 1, grow to 3, remove all.
func TestApplyStockDelta_CartRoundTrip(t *testing.T) {
	db := memdb(t)
	inv := services.NewInventoryService(repos.NewProductRepo(db))
	pid := insertProduct(t, db, "Test Milk", 65, 5)

	p, err := inv.ApplyStockDelta(pid, -1) // add 1 to cart
	require.NoError(t, err)
	require.Equal(t, 4, p.Stock)

	p, err = inv.ApplyStockDelta(pid, -2) // quantity 1 -> 3
	require.NoError(t, err)
	require.Equal(t, 2, p.Stock)

	p, err = inv.ApplyStockDelta(pid, 3) // remove item entirely
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
}

func TestApplyStockDelta_InsufficientStock(t *testing.T) {
	db := memdb(t)
	inv := services.NewInventoryService(repos.NewProductRepo(db))
	pid := insertProduct(t, db, "Empty Shelf", 95, 0)

	_, err := inv.ApplyStockDelta(pid, -1)
	require.ErrorIs(t, err, services.ErrInsufficientStock)

	// cart unchanged: stock still zero
	p, err := repos.NewProductRepo(db).Get(pid)
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
}

func TestApplyStockDelta_Errors(t *testing.T) {
	db := memdb(t)
	inv := services.NewInventoryService(repos.NewProductRepo(db))
	pid := insertProduct(t, db, "Test Butter", 140, 3)

	_, err := inv.ApplyStockDelta(pid, 0)
	require.ErrorIs(t, err, services.ErrInvalidDelta)

	_, err = inv.ApplyStockDelta(99999, -1)
	require.ErrorIs(t, err, services.ErrProductNotFound)

	_, err = inv.ApplyStockDelta(-4, -1)
	require.ErrorIs(t, err, services.ErrProductNotFound)
}

// Stock is never observed negative across arbitrary delta sequences.
func TestApplyStockDelta_NeverNegative(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)
	inv := services.NewInventoryService(repo)
	pid := insertProduct(t, db, "Test Yogurt", 85, 3)

	deltas := []int{-2, -2, 1, -3, 5, -6, -1}
	for _, d := range deltas {
		_, _ = inv.ApplyStockDelta(pid, d)
		p, err := repo.Get(pid)
		require.NoError(t, err)
		require.GreaterOrEqual(t, p.Stock, 0, "stock went negative after delta %d", d)
	}
}

func TestAvailabilityBuckets(t *testing.T) {
	db := memdb(t)
	inv := services.NewInventoryService(repos.NewProductRepo(db))

	cases := []struct {
		stock int
		want  string
	}{
		{8, "IN_STOCK"},
		{2, "LOW_STOCK"},
		{0, "OUT_OF_STOCK"},
	}
	for _, tc := range cases {
		pid := insertProduct(t, db, "Bucket", 10, tc.stock)
		a, err := inv.Availability(pid)
		require.NoError(t, err)
		require.Equal(t, tc.want, a.Status)
		require.Equal(t, tc.stock, a.Qty)
	}
}
