package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"milkpukki/internal/domain"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

func newOrderService(t *testing.T, db *sqlx.DB) (*services.OrderService, *repos.ProductRepo) {
	t.Helper()
	prodRepo := repos.NewProductRepo(db)
	inv := services.NewInventoryService(prodRepo)
	return services.NewOrderService(repos.NewOrderRepo(db), prodRepo, inv), prodRepo
}

var ship = services.ShippingInput{Name: "Hana Bekele", Phone: "0911223344", Address: "Bole, Addis Ababa"}

func TestCheckout_TotalsAndAtomicCreate(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderService(t, db)
	pid := insertProduct(t, db, "Sample Milk", 3.99, 5)

	o, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 2}}, ship)
	require.NoError(t, err)

	// subtotal 7.98 plus 15% tax, rounded to cents
	require.Equal(t, 9.18, o.Total)
	require.Equal(t, domain.StatusPending, o.Status)
	require.Len(t, o.Items, 1)
	require.Equal(t, 3.99, o.Items[0].Price)
	require.NotNil(t, o.Shipping)
	require.Equal(t, "Hana Bekele", o.Shipping.Name)
	require.NotEmpty(t, o.CreatedAt)
}

// The client cart can send the same product on several lines; they must
// collapse into one order_items row or the composite key rejects the insert.
func TestCheckout_MergesDuplicateLines(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderService(t, db)
	pid := insertProduct(t, db, "Sample Milk", 3.99, 10)

	o, err := svc.Checkout("u-hana", []services.ItemInput{
		{ProductID: pid, Qty: 1},
		{ProductID: pid, Qty: 2},
	}, ship)
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	require.Equal(t, 3, o.Items[0].Qty)
	require.Equal(t, 13.77, o.Total) // 3 * 3.99 * 1.15, rounded to cents

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM order_items WHERE order_id=?`, o.ID))
	require.Equal(t, 1, n)
}

func TestCheckout_ValidationBeforeAnyWrite(t *testing.T) {
	db := memdb(t)
	svc, prodRepo := newOrderService(t, db)
	pid := insertProduct(t, db, "Sample Milk", 3.99, 5)

	bad := ship
	bad.Name = "   "
	_, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 1}}, bad)
	require.ErrorIs(t, err, services.ErrValidation)

	// empty cart rejected too
	_, err = svc.Checkout("u-hana", nil, ship)
	require.ErrorIs(t, err, services.ErrValidation)

	// no partial rows, no stock mutation
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
	require.Zero(t, n)
	p, err := prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
}

func TestCancelAndReverse_RestoresStockOnce(t *testing.T) {
	db := memdb(t)
	svc, prodRepo := newOrderService(t, db)
	inv := services.NewInventoryService(prodRepo)
	pid := insertProduct(t, db, "Sample Milk", 3.99, 5)

	// reserve through the ledger as the cart is built, then record the order
	_, err := inv.ApplyStockDelta(pid, -2)
	require.NoError(t, err)
	o, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 2}}, ship)
	require.NoError(t, err)

	p, err := prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 3, p.Stock)

	require.NoError(t, svc.CancelAndReverse(o.ID))

	// stock back at its pre-order value, order and items fully gone
	p, err = prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM order_items WHERE order_id=?`, o.ID))
	require.Zero(t, n)

	// cancelling again must not double-release
	err = svc.CancelAndReverse(o.ID)
	require.ErrorIs(t, err, services.ErrOrderNotFound)
	p, err = prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
}

func TestSetStatus(t *testing.T) {
	db := memdb(t)
	svc, _ := newOrderService(t, db)
	pid := insertProduct(t, db, "Sample Milk", 3.99, 5)

	o, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 1}}, ship)
	require.NoError(t, err)

	require.ErrorIs(t, svc.SetStatus(o.ID, "PAID"), services.ErrInvalidStatus)
	require.ErrorIs(t, svc.SetStatus("missing-id", domain.StatusProcessing), services.ErrOrderNotFound)

	require.NoError(t, svc.SetStatus(o.ID, domain.StatusProcessing))
	got, err := repos.NewOrderRepo(db).Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, got.Status)
	require.NotEqual(t, got.CreatedAt, "")

	// Back-office corrections may move an order to any recognized status,
	// including backwards.
	require.NoError(t, svc.SetStatus(o.ID, domain.StatusDelivered))
	require.NoError(t, svc.SetStatus(o.ID, domain.StatusPending))
	got, err = repos.NewOrderRepo(db).Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
}

// Conservation law: stock plus outstanding reservations equals the baseline
// after any mix of cart, checkout and cancel operations.
func TestStockConservation(t *testing.T) {
	db := memdb(t)
	svc, prodRepo := newOrderService(t, db)
	inv := services.NewInventoryService(prodRepo)
	pid := insertProduct(t, db, "Sample Cream", 95, 10)

	// shopper A reserves 3, shopper B reserves 2
	_, err := inv.ApplyStockDelta(pid, -3)
	require.NoError(t, err)
	_, err = inv.ApplyStockDelta(pid, -2)
	require.NoError(t, err)

	p, _ := prodRepo.Get(pid)
	require.Equal(t, 10, p.Stock+3+2)

	// A checks out, B abandons the cart (release)
	oA, err := svc.Checkout("u-a", []services.ItemInput{{ProductID: pid, Qty: 3}}, ship)
	require.NoError(t, err)
	_, err = inv.ApplyStockDelta(pid, +2)
	require.NoError(t, err)

	p, _ = prodRepo.Get(pid)
	require.Equal(t, 10, p.Stock+3) // 3 still held by A's pending order

	// A's order expires
	require.NoError(t, svc.CancelAndReverse(oA.ID))
	p, _ = prodRepo.Get(pid)
	require.Equal(t, 10, p.Stock)
}
