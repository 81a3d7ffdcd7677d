package domain

type Product struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Price       float64 `db:"price" json:"price"`
	Category    string  `db:"category" json:"category"` // see Categories
	Stock       int     `db:"stock" json:"stock"`
	Description string  `db:"description" json:"description,omitempty"`
	Rating      float64 `db:"rating" json:"rating,omitempty"`
	Image       string  `db:"image" json:"image,omitempty"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
}

// Categories is the fixed set a product may belong to.
var Categories = map[string]bool{
	"MILK":   true,
	"CHEESE": true,
	"YOGURT": true,
	"BUTTER": true,
	"CREAM":  true,
}

type Order struct {
	ID               string  `db:"id" json:"id"`
	UserID           string  `db:"user_id" json:"userId"`
	Total            float64 `db:"total" json:"total"`
	Status           Status  `db:"status" json:"status"`
	PaymentVerified  bool    `db:"payment_verified" json:"paymentVerified"`
	PaymentReference string  `db:"payment_reference" json:"paymentReference,omitempty"`
	CreatedAt        string  `db:"created_at" json:"createdAt"`
	UpdatedAt        string  `db:"updated_at" json:"updatedAt"`

	Items    []OrderItem `json:"items,omitempty"`
	Shipping *Shipping   `json:"shipping,omitempty"`
}

// OrderItem is a price snapshot taken at order time, immutable once created.
type OrderItem struct {
	OrderID   string  `db:"order_id" json:"-"`
	ProductID int64   `db:"product_id" json:"productId"`
	Name      string  `db:"name" json:"name,omitempty"`
	Qty       int     `db:"qty" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}

type Shipping struct {
	OrderID   string `db:"order_id" json:"-"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type ContactSubmission struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Message   string `db:"message" json:"message"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
