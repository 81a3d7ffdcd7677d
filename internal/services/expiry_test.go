package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"milkpukki/internal/domain"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

func backdateOrder(t *testing.T, db *sqlx.DB, orderID string, createdAt time.Time) {
	t.Helper()
	_, err := db.Exec(`UPDATE orders SET created_at=? WHERE id=?`, createdAt.UTC().Format(time.RFC3339), orderID)
	require.NoError(t, err)
}

func TestExpiredBoundary(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := domain.Order{Status: domain.StatusPending, CreatedAt: created.Format(time.RFC3339)}

	eps := time.Second
	require.False(t, services.Expired(o, created.Add(services.PaymentWindow-eps)))
	require.True(t, services.Expired(o, created.Add(services.PaymentWindow+eps)))

	// non-pending orders never expire
	o.Status = domain.StatusProcessing
	require.False(t, services.Expired(o, created.Add(48*time.Hour)))
}

func TestCountdownFormat(t *testing.T) {
	require.Equal(t, "23h 59m 5s", services.Countdown(23*time.Hour+59*time.Minute+5*time.Second))
	require.Equal(t, "0h 0m 30s", services.Countdown(30*time.Second))
	require.Equal(t, "0h 0m 0s", services.Countdown(0))
	require.Equal(t, "0h 0m 0s", services.Countdown(-time.Minute))
}

func TestRemaining(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := domain.Order{Status: domain.StatusPending, CreatedAt: created.Format(time.RFC3339)}

	require.Equal(t, services.PaymentWindow, services.Remaining(o, created))
	require.Equal(t, time.Duration(0), services.Remaining(o, created.Add(services.PaymentWindow+time.Hour)))
}

func TestSweepUser_ExpiresOnlyOverdueOrders(t *testing.T) {
	db := memdb(t)
	orderRepo := repos.NewOrderRepo(db)
	svc, prodRepo := newOrderService(t, db)
	inv := services.NewInventoryService(prodRepo)
	watcher := services.NewExpiryWatcher(orderRepo, svc)
	pid := insertProduct(t, db, "Sweep Milk", 65, 10)

	// reserve + place two orders for the same user
	_, err := inv.ApplyStockDelta(pid, -4)
	require.NoError(t, err)
	stale, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 3}}, ship)
	require.NoError(t, err)
	fresh, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 1}}, ship)
	require.NoError(t, err)

	now := time.Now().UTC()
	backdateOrder(t, db, stale.ID, now.Add(-services.PaymentWindow-time.Minute))

	expired, err := watcher.SweepUser("u-hana", now)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	// stale order gone, its 3 units returned; fresh order untouched
	_, err = orderRepo.Get(stale.ID)
	require.ErrorIs(t, err, services.ErrOrderNotFound)
	_, err = orderRepo.Get(fresh.ID)
	require.NoError(t, err)
	p, err := prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 9, p.Stock)
}

func TestSweepAll_CrossesUsers(t *testing.T) {
	db := memdb(t)
	orderRepo := repos.NewOrderRepo(db)
	svc, prodRepo := newOrderService(t, db)
	inv := services.NewInventoryService(prodRepo)
	watcher := services.NewExpiryWatcher(orderRepo, svc)
	pid := insertProduct(t, db, "Sweep Cheese", 120, 6)

	_, err := inv.ApplyStockDelta(pid, -5)
	require.NoError(t, err)
	o1, err := svc.Checkout("u-hana", []services.ItemInput{{ProductID: pid, Qty: 2}}, ship)
	require.NoError(t, err)
	o2, err := svc.Checkout("u-dawit", []services.ItemInput{{ProductID: pid, Qty: 3}}, ship)
	require.NoError(t, err)

	// a paid order past the window must not be touched
	require.NoError(t, svc.SetStatus(o2.ID, domain.StatusProcessing))

	now := time.Now().UTC()
	backdateOrder(t, db, o1.ID, now.Add(-services.PaymentWindow-time.Minute))
	backdateOrder(t, db, o2.ID, now.Add(-services.PaymentWindow-time.Minute))

	expired, err := watcher.SweepAll(now)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	_, err = orderRepo.Get(o1.ID)
	require.ErrorIs(t, err, services.ErrOrderNotFound)
	got, err := orderRepo.Get(o2.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, got.Status)

	p, err := prodRepo.Get(pid)
	require.NoError(t, err)
	require.Equal(t, 3, p.Stock) // 1 never reserved + 2 released
}
