package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"milkpukki/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

var ErrOrderNotFound = errors.New("order not found")

// Create inserts the order header, its line items and the shipping record in
// one transaction. A failure partway leaves no partial rows behind.
func (r *OrderRepo) Create(o domain.Order, ship domain.Shipping) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, total, status, payment_verified, payment_reference, created_at, updated_at)
	  VALUES(?, ?, ?, ?, 0, '', ?, ?)
	`, o.ID, o.UserID, o.Total, o.Status, now, now); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, qty, price)
		  VALUES(?, ?, ?, ?)
		`, o.ID, it.ProductID, it.Qty, it.Price); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
	  INSERT INTO shipping(order_id, name, phone, address, created_at)
	  VALUES(?, ?, ?, ?, ?)
	`, o.ID, ship.Name, ship.Phone, ship.Address, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `
		SELECT id, user_id, total, status, payment_verified, payment_reference, created_at, updated_at
		FROM orders WHERE id = ?
	`, orderID); err != nil {
		if err == sql.ErrNoRows {
			return o, ErrOrderNotFound
		}
		return o, err
	}

	items, err := r.Items(orderID)
	if err != nil {
		return o, err
	}
	o.Items = items

	var ship domain.Shipping
	err = r.db.Get(&ship, `
		SELECT order_id, name, phone, address, COALESCE(created_at,'') AS created_at
		FROM shipping WHERE order_id = ?
	`, orderID)
	if err == nil {
		o.Shipping = &ship
	} else if err != sql.ErrNoRows {
		return o, err
	}

	return o, nil
}

// Items returns the order's line items joined with product names.
func (r *OrderRepo) Items(orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := r.db.Select(&items, `
		SELECT oi.order_id, oi.product_id, p.name, oi.qty, oi.price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.name
	`, orderID)
	return items, err
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	return r.list(`WHERE user_id = ?`, userID)
}

func (r *OrderRepo) ListAll() ([]domain.Order, error) {
	return r.list(``)
}

// ListPending returns every PENDING order; the expiry watcher does the
// deadline math itself.
func (r *OrderRepo) ListPending() ([]domain.Order, error) {
	return r.list(`WHERE status = ?`, domain.StatusPending)
}

func (r *OrderRepo) list(where string, args ...any) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.Select(&out, `
		SELECT id, user_id, total, status, payment_verified, payment_reference, created_at, updated_at
		FROM orders `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.Items(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *OrderRepo) UpdateStatus(orderID string, status domain.Status) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, now, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) MarkPaymentVerified(orderID, reference string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(`
		UPDATE orders
		SET status = ?, payment_verified = 1, payment_reference = ?, updated_at = ?
		WHERE id = ?
	`, domain.StatusProcessing, reference, now, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the order; line items and shipping cascade. Returns
// ErrOrderNotFound if the row is already gone, which makes double
// cancellation detectable by callers.
func (r *OrderRepo) Delete(orderID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Explicit child deletes: foreign_keys may be off on connections that
	// did not run the schema pragma.
	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM shipping WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM orders WHERE id = ?`, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return tx.Commit()
}
