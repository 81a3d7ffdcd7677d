package repos

import (
	"github.com/jmoiron/sqlx"

	"milkpukki/internal/domain"
)

type ContactRepo struct{ db *sqlx.DB }

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(name, email, message string) (domain.ContactSubmission, error) {
	res, err := r.db.Exec(`
		INSERT INTO contact_submissions(name, email, message)
		VALUES(?, ?, ?)
	`, name, email, message)
	if err != nil {
		return domain.ContactSubmission{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.ContactSubmission{}, err
	}
	var c domain.ContactSubmission
	err = r.db.Get(&c, `
		SELECT id, name, email, message, COALESCE(created_at,'') AS created_at
		FROM contact_submissions WHERE id = ?
	`, id)
	return c, err
}

func (r *ContactRepo) ListAll() ([]domain.ContactSubmission, error) {
	out := []domain.ContactSubmission{}
	err := r.db.Select(&out, `
		SELECT id, name, email, message, COALESCE(created_at,'') AS created_at
		FROM contact_submissions ORDER BY id DESC
	`)
	return out, err
}
