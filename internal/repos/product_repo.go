package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"milkpukki/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const productCols = `id, name, price, category, stock, description, rating, image, COALESCE(created_at,'') AS created_at`

func (r *ProductRepo) Get(id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return p, ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) List() ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products ORDER BY category, name`)
	return out, err
}

func (r *ProductRepo) ListByCategory(category string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products WHERE category = ? ORDER BY name`, category)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) (domain.Product, error) {
	res, err := r.db.Exec(`
		INSERT INTO products(name, price, category, stock, description, rating, image)
		VALUES(?,?,?,?,?,?,?)
	`, p.Name, p.Price, p.Category, p.Stock, p.Description, p.Rating, p.Image)
	if err != nil {
		return domain.Product{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(id)
}

// ApplyDelta adjusts stock by a signed amount in a single guarded UPDATE.
// The `stock + ? >= 0` predicate makes the decrement atomic at the storage
// layer: concurrent shoppers can never drive stock negative or lose updates
// to a read-modify-write race.
func (r *ProductRepo) ApplyDelta(id int64, delta int) (domain.Product, error) {
	res, err := r.db.Exec(`
		UPDATE products
		SET stock = stock + ?
		WHERE id = ? AND stock + ? >= 0
	`, delta, id, delta)
	if err != nil {
		return domain.Product{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Either the product does not exist or the delta would go negative.
		if _, err := r.Get(id); err != nil {
			return domain.Product{}, err
		}
		return domain.Product{}, ErrInsufficientStock
	}

	p, err := r.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	// Safety net: the guard above should make this unreachable, but never
	// hand a negative stock value back to callers.
	if p.Stock < 0 {
		if _, err := r.db.Exec(`UPDATE products SET stock = 0 WHERE id = ?`, id); err != nil {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("stock for product %d observed negative, clamped to zero", id)
	}
	return p, nil
}
