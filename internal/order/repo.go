package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
)

var (
	ErrNotFound = apperr.NotFoundf("order not found")
)

type Repository interface {
	// Create stores the header, its items and the initial status event atomically.
	Create(ctx context.Context, o *Order, items []Item, initial StatusEvent) error
	Get(ctx context.Context, id string) (*Aggregate, error)
	List(ctx context.Context) ([]Summary, error)
	Update(ctx context.Context, o *Order) error
	// UpdateStatus moves the order to ev.ToStatus and appends ev, returning
	// the status it had before.
	UpdateStatus(ctx context.Context, ev StatusEvent) (Status, error)
	Delete(ctx context.Context, id string) (bool, error)
	AddPayment(ctx context.Context, p *Payment) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item, initial StatusEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
    VALUES ($1,$2,$3,$4,NOW(),NOW())
    RETURNING created_at, updated_at
  `, o.ID, o.CustomerID, o.Status, o.Total.String()).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, product_name, quantity,
        unit_price_base, unit_price_final, discount_amount, discount_percent, line_total)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity,
			it.UnitPriceBase.String(), it.UnitPriceFinal.String(), it.DiscountAmount.String(),
			it.DiscountPercent.String(), it.LineTotal.String()); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := insertEvent(ctx, tx, initial); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertEvent(ctx context.Context, tx pgx.Tx, ev StatusEvent) error {
	if _, err := tx.Exec(ctx, `
    INSERT INTO order_status_events (id, order_id, from_status, to_status, reason)
    VALUES ($1,$2,$3,$4,$5)
  `, ev.ID, ev.OrderID, ev.FromStatus, ev.ToStatus, ev.Reason); err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

func (r *PGRepo) Get(ctx context.Context, id string) (*Aggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		a     Aggregate
		total string
	)
	err := r.db.QueryRow(ctx, `
    SELECT o.id, o.customer_id, c.name, o.status, o.total::text, o.created_at, o.updated_at
    FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
    WHERE o.id=$1
  `, id).Scan(&a.ID, &a.CustomerID, &a.CustomerName, &a.Status, &total, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total: %w", id, err)
	}

	if a.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	if a.Payments, err = r.payments(ctx, id); err != nil {
		return nil, err
	}
	if a.StatusEvents, err = r.events(ctx, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepo) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, product_name, quantity,
           unit_price_base::text, unit_price_final::text, discount_amount::text,
           discount_percent::text, line_total::text, created_at
    FROM order_items
    WHERE order_id = $1
    ORDER BY created_at, id
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it  Item
			num [5]string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
			&num[0], &num[1], &num[2], &num[3], &num[4], &it.CreatedAt); err != nil {
			return nil, err
		}
		if err := parseDecimals(num[:], &it.UnitPriceBase, &it.UnitPriceFinal, &it.DiscountAmount, &it.DiscountPercent, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("order item %s: %w", it.ID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) payments(ctx context.Context, orderID string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, method, status, amount::text, reference, proof_url, notes, paid_at, created_at
    FROM payment_records
    WHERE order_id = $1
    ORDER BY created_at, id
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		var (
			p      Payment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &amount, &p.Reference, &p.ProofURL, &p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("payment %s amount: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) events(ctx context.Context, orderID string) ([]StatusEvent, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, from_status, to_status, reason, created_at
    FROM order_status_events
    WHERE order_id = $1
    ORDER BY created_at, id
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StatusEvent{}
	for rows.Next() {
		var ev StatusEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.FromStatus, &ev.ToStatus, &ev.Reason, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *PGRepo) List(ctx context.Context) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT o.id, o.customer_id, c.name, o.status, o.total::text, o.created_at, o.updated_at
    FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
    ORDER BY o.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s     Summary
			total string
		)
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.Status, &total, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if s.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("order %s total: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
    UPDATE orders
    SET customer_id = $2, status = $3, total = $4, updated_at = NOW()
    WHERE id = $1
    RETURNING updated_at
  `, o.ID, o.CustomerID, o.Status, o.Total.String()).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) UpdateStatus(ctx context.Context, ev StatusEvent) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, ev.OrderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE orders
    SET status = $2, updated_at = NOW()
    WHERE id = $1
  `, ev.OrderID, ev.ToStatus); err != nil {
		return "", fmt.Errorf("update order status: %w", err)
	}

	ev.FromStatus = &from
	if err := insertEvent(ctx, tx, ev); err != nil {
		return "", err
	}
	return from, tx.Commit(ctx)
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) AddPayment(ctx context.Context, p *Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
    INSERT INTO payment_records (id, order_id, method, status, amount, reference, proof_url, notes, paid_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING created_at
  `, p.ID, p.OrderID, p.Method, p.Status, p.Amount.String(), p.Reference, p.ProofURL, p.Notes, p.PaidAt).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func parseDecimals(src []string, dst ...*decimal.Decimal) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		*dst[i] = d
	}
	return nil
}
