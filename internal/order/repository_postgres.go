package order

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the orders table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS orders (
        id SERIAL PRIMARY KEY,
        "orderNumber" TEXT UNIQUE NOT NULL,
        customer jsonb NOT NULL DEFAULT '{}',
        shipping jsonb NOT NULL DEFAULT '{}',
        payment jsonb NOT NULL DEFAULT '{}',
        items jsonb NOT NULL DEFAULT '[]',
        discount numeric NOT NULL DEFAULT 0,
        "createdAt" TEXT
    )`)
	return err
}

func (r *PostgresRepository) Create(ord Order) (Order, error) {
	customerJSON, err := json.Marshal(ord.Customer)
	if err != nil {
		return Order{}, err
	}
	shippingJSON, err := json.Marshal(ord.Shipping)
	if err != nil {
		return Order{}, err
	}
	paymentJSON, err := json.Marshal(ord.Payment)
	if err != nil {
		return Order{}, err
	}
	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return Order{}, err
	}

	_, err = r.db.Exec(`INSERT INTO orders ("orderNumber", customer, shipping, payment, items, discount, "createdAt")
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ord.OrderNumber, customerJSON, shippingJSON, paymentJSON, itemsJSON, ord.Discount, ord.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByNumber(number string) (Order, error) {
	row := r.db.QueryRow(`SELECT "orderNumber", customer, shipping, payment, items, discount, "createdAt"
        FROM orders WHERE "orderNumber" = $1`, number)
	ord, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	return ord, err
}

func (r *PostgresRepository) List(limit int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT "orderNumber", customer, shipping, payment, items, discount, "createdAt"
        FROM orders ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListByNumbers returns orders matching the given order numbers, ordered
// according to the sequence of the slice. An empty slice leads to an
// immediate empty result.
func (r *PostgresRepository) ListByNumbers(numbers []string) ([]Order, error) {
	if len(numbers) == 0 {
		return []Order{}, nil
	}

	query := `SELECT "orderNumber", customer, shipping, payment, items, discount, "createdAt"
        FROM orders
        WHERE "orderNumber" = ANY($1::text[])
        ORDER BY array_position($1::text[], "orderNumber")`

	rows, err := r.db.Query(query, pq.Array(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var ord Order
	var customerJSON, shippingJSON, paymentJSON, itemsJSON []byte
	var createdAt sql.NullString
	if err := row.Scan(&ord.OrderNumber, &customerJSON, &shippingJSON, &paymentJSON, &itemsJSON, &ord.Discount, &createdAt); err != nil {
		return Order{}, err
	}
	json.Unmarshal(customerJSON, &ord.Customer)
	json.Unmarshal(shippingJSON, &ord.Shipping)
	json.Unmarshal(paymentJSON, &ord.Payment)
	json.Unmarshal(itemsJSON, &ord.Items)
	if createdAt.Valid {
		ord.CreatedAt = createdAt.String
	}
	return ord, nil
}

func scanOrders(rows *sql.Rows) ([]Order, error) {
	orders := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}
