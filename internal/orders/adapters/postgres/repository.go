package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wannai/orderbridge/internal/orders/domain"
	"github.com/wannai/orderbridge/internal/orders/ports"
)

const orderColumns = `
	id, COALESCE(source, ''), COALESCE(customer_name, ''), COALESCE(customer_email, ''),
	COALESCE(customer_phone, ''), total, COALESCE(currency, ''), status,
	woocommerce_order_id, created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.StatusPending
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if order.ID == 0 {
			if err := insertOrder(ctx, tx, order); err != nil {
				return err
			}
		} else {
			if err := updateOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		order.AttachChildren()
		return replaceChildren(ctx, tx, order)
	})
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `
		INSERT INTO external_orders
			(source, customer_name, customer_email, customer_phone, total, currency, status, woocommerce_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.Source,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.Total,
		order.Currency,
		order.Status,
		order.WooCommerceOrderID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func updateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `
		UPDATE external_orders
		SET source = $1, customer_name = $2, customer_email = $3, customer_phone = $4,
		    total = $5, currency = $6, status = $7, woocommerce_order_id = $8, updated_at = now()
		WHERE id = $9
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.Source,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.Total,
		order.Currency,
		order.Status,
		order.WooCommerceOrderID,
		order.ID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("update order: %w", err)
	}

	return nil
}

// replaceChildren drops the order's current items and addresses and inserts the given ones.
func replaceChildren(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	if _, err := tx.Exec(ctx, `DELETE FROM external_order_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM external_order_addresses WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order addresses: %w", err)
	}

	if len(order.Items) == 0 && len(order.Addresses) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		batch.Queue(`
			INSERT INTO external_order_items (order_id, product_id, quantity, price, name)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			RETURNING id
		`, item.OrderID, item.ProductID, item.Quantity, item.Price, item.Name).QueryRow(func(row pgx.Row) error {
			return row.Scan(&item.ID)
		})
	}
	for i := range order.Addresses {
		addr := &order.Addresses[i]
		batch.Queue(`
			INSERT INTO external_order_addresses
				(order_id, type, first_name, last_name, company, address_1, address_2,
				 city, state, postcode, country, phone, email)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id
		`, addr.OrderID, addr.Type, addr.FirstName, addr.LastName, addr.Company, addr.Address1, addr.Address2,
			addr.City, addr.State, addr.Postcode, addr.Country, addr.Phone, addr.Email).QueryRow(func(row pgx.Row) error {
			return row.Scan(&addr.ID)
		})
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order children: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM external_orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	orders := []domain.Order{order}
	if err := loadChildren(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	// A NULL limit returns every row.
	var limit *int
	offset := 0
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		limit = &filter.PageSize
		offset = (page - 1) * filter.PageSize
	}

	query := `SELECT ` + orderColumns + `
		FROM external_orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, statusFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := loadChildren(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, expected, next domain.OrderStatus, externalID *int64) error {
	query := `
		UPDATE external_orders
		SET status = $1, woocommerce_order_id = COALESCE($2, woocommerce_order_id), updated_at = now()
		WHERE id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, next, externalID, id, expected)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM external_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return ports.ErrNotFound
	}

	return ports.ErrStatusConflict
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.Source,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.Total,
		&order.Currency,
		&order.Status,
		&order.WooCommerceOrderID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	order.Items = []domain.OrderItem{}
	order.Addresses = []domain.OrderAddress{}
	return order, err
}

// loadChildren fills items and addresses for all orders with one query per child table.
func loadChildren(ctx context.Context, q querier, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		index[order.ID] = i
	}

	itemRows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price, COALESCE(name, '')
		FROM external_order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Name); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}
	itemRows.Close()

	addrRows, err := q.Query(ctx, `
		SELECT id, order_id, COALESCE(type, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(company, ''), COALESCE(address_1, ''), COALESCE(address_2, ''), COALESCE(city, ''),
		       COALESCE(state, ''), COALESCE(postcode, ''), COALESCE(country, ''), COALESCE(phone, ''),
		       COALESCE(email, '')
		FROM external_order_addresses
		WHERE order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("query order addresses: %w", err)
	}
	defer addrRows.Close()

	for addrRows.Next() {
		var addr domain.OrderAddress
		if err := addrRows.Scan(
			&addr.ID, &addr.OrderID, &addr.Type, &addr.FirstName, &addr.LastName,
			&addr.Company, &addr.Address1, &addr.Address2, &addr.City,
			&addr.State, &addr.Postcode, &addr.Country, &addr.Phone, &addr.Email,
		); err != nil {
			return fmt.Errorf("scan order address: %w", err)
		}
		i := index[addr.OrderID]
		orders[i].Addresses = append(orders[i].Addresses, addr)
	}
	if err := addrRows.Err(); err != nil {
		return fmt.Errorf("iterate order addresses: %w", err)
	}

	return nil
}
