package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.ProductsRepository = (*ProductsRepository)(nil)

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) Create(
	ctx context.Context, f domain.ProductFields, image string,
) (int64, error) {
	const op = "ProductsRepository.Create"

	query := `
		INSERT INTO products (name, category, price, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id;`

	var id int64
	err := r.sqldb.QueryRowContext(ctx, query,
		f.Name, f.Category, priceArg(f.Price), imageArg(image),
	).Scan(&id)
	if err != nil {
		return 0, opErr(op, err)
	}
	return id, nil
}

func (r ProductsRepository) ListAll(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListAll"

	query := `
		SELECT id, name, category, price, image
		FROM products
		ORDER BY id;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, opErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	ps := make([]domain.Product, 0)
	for rows.Next() {
		var (
			p     domain.Product
			image sql.NullString
		)
		err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &image)
		if err != nil {
			return nil, opErr(op, err)
		}
		p.Price = p.Price.Round(domain.PriceScale)
		p.Image = image.String
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, opErr(op, err)
	}
	return ps, nil
}

// GetImageOf returns the image name of the product, empty when it has
// none. A missing product yields domain.ErrNotFound.
func (r ProductsRepository) GetImageOf(
	ctx context.Context, id int64,
) (string, error) {
	const op = "ProductsRepository.GetImageOf"

	query := `SELECT image FROM products WHERE id = $1;`

	var image sql.NullString
	err := r.sqldb.QueryRowContext(ctx, query, id).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return "", opErr(op, err)
	}
	return image.String, nil
}

// Update replaces every mutable column. Updating a missing id affects no
// rows and is not an error here.
func (r ProductsRepository) Update(
	ctx context.Context, id int64, f domain.ProductFields, image string,
) error {
	const op = "ProductsRepository.Update"

	query := `
		UPDATE products
		SET name = $1, category = $2, price = $3, image = $4
		WHERE id = $5;`

	_, err := r.sqldb.ExecContext(ctx, query,
		f.Name, f.Category, priceArg(f.Price), imageArg(image), id,
	)
	if err != nil {
		return opErr(op, err)
	}
	return nil
}

func (r ProductsRepository) Delete(ctx context.Context, id int64) error {
	const op = "ProductsRepository.Delete"

	query := `DELETE FROM products WHERE id = $1;`

	if _, err := r.sqldb.ExecContext(ctx, query, id); err != nil {
		return opErr(op, err)
	}
	return nil
}

func priceArg(price decimal.Decimal) string {
	return price.StringFixed(domain.PriceScale)
}

func imageArg(image string) sql.NullString {
	return sql.NullString{String: image, Valid: image != ""}
}

func opErr(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrQuery, err)
	}
}

func isUnavailable(err error) bool {
	var (
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &connErr) ||
		errors.As(err, &netErr)
}
