package product

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the product table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS product (
        product_id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        price numeric NOT NULL DEFAULT 0,
        description TEXT,
        category TEXT,
        image_url TEXT,
        in_stock BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TEXT,
        updated_at TEXT
    )`)
	return err
}

func (r *PostgresRepository) List() []Product {
	rows, err := r.db.Query(`SELECT product_id, name, price, description, category, image_url, in_stock, created_at, updated_at
        FROM product ORDER BY product_id`)
	if err != nil {
		return []Product{}
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	row := r.db.QueryRow(`SELECT product_id, name, price, description, category, image_url, in_stock, created_at, updated_at
        FROM product WHERE product_id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	err := r.db.QueryRow(`INSERT INTO product (name, price, description, category, image_url, in_stock, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING product_id`,
		p.Name, p.Price, p.Description, p.Category, p.ImageURL, p.InStock, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var description, category, imageURL, createdAt, updatedAt sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &description, &category, &imageURL, &p.InStock, &createdAt, &updatedAt); err != nil {
		return Product{}, err
	}
	p.Description = description.String
	p.Category = category.String
	p.ImageURL = imageURL.String
	p.CreatedAt = createdAt.String
	p.UpdatedAt = updatedAt.String
	return p, nil
}
