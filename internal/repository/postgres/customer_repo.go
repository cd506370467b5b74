// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"errors"

	"subdesk-service/internal/domain/customer"
	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// CreateWithTx inserts the customer row inside a caller-owned transaction so
// an initial subscription and its counter increment commit with it.
func (r *CustomerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query, c.ID, c.Name, c.Phone, c.Email).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return storageErr("create customer", err)
	}
	return nil
}

// FindByID retrieves a customer with full subscription history, newest entry
// first, and the legacy fields projected from it.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	query := `
		SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), created_at, updated_at
		FROM customers WHERE id = $1
	`

	var c customer.Customer
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find customer", err)
	}

	history, err := r.historyFor(ctx, id)
	if err != nil {
		return nil, err
	}
	c.SubscriptionHistory = history
	c.Project()
	return &c, nil
}

// List returns all customers with histories, newest customer first.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	query := `
		SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), created_at, updated_at
		FROM customers ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	index := map[string]int{}
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storageErr("scan customer", err)
		}
		c.SubscriptionHistory = []customer.Subscription{}
		index[c.ID] = len(customers)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list customers", err)
	}

	subQuery := `
		SELECT customer_id, id, package_id, start_date, end_date, duration, status
		FROM subscriptions ORDER BY created_at DESC
	`
	subRows, err := r.db.Query(ctx, subQuery)
	if err != nil {
		return nil, storageErr("list subscriptions", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var customerID string
		var s customer.Subscription
		if err := subRows.Scan(&customerID, &s.ID, &s.PackageID, &s.StartDate, &s.EndDate, &s.Duration, &s.Status); err != nil {
			return nil, storageErr("scan subscription", err)
		}
		if i, ok := index[customerID]; ok {
			customers[i].SubscriptionHistory = append(customers[i].SubscriptionHistory, s)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, storageErr("list subscriptions", err)
	}

	for i := range customers {
		customers[i].Project()
	}
	return customers, nil
}

func (r *CustomerRepository) historyFor(ctx context.Context, customerID string) ([]customer.Subscription, error) {
	query := `
		SELECT id, package_id, start_date, end_date, duration, status
		FROM subscriptions WHERE customer_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, storageErr("load subscription history", err)
	}
	defer rows.Close()

	history := []customer.Subscription{}
	for rows.Next() {
		var s customer.Subscription
		if err := rows.Scan(&s.ID, &s.PackageID, &s.StartDate, &s.EndDate, &s.Duration, &s.Status); err != nil {
			return nil, storageErr("scan subscription", err)
		}
		history = append(history, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load subscription history", err)
	}
	return history, nil
}

// UpdateWithTx rewrites the customer's own columns inside a caller-owned
// transaction; history rows are managed by the subscription methods below.
func (r *CustomerRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, phone = NULLIF($3, ''), email = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query, c.ID, c.Name, c.Phone, c.Email)
	if err != nil {
		return storageErr("update customer", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeleteWithTx removes the customer row and reports whether it existed.
func (r *CustomerRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	result, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete customer", err)
	}
	return result.RowsAffected() > 0, nil
}

// InsertSubscriptionWithTx appends one history entry.
func (r *CustomerRepository) InsertSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *customer.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, customer_id, package_id, start_date, end_date, duration, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query, s.ID, customerID, s.PackageID, s.StartDate, s.EndDate, s.Duration, s.Status)
	if err != nil {
		return storageErr("insert subscription", err)
	}
	return nil
}

// UpdateSubscriptionWithTx edits one history entry in place (same id).
func (r *CustomerRepository) UpdateSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *customer.Subscription) error {
	query := `
		UPDATE subscriptions
		SET package_id = $3, start_date = $4, end_date = $5, duration = $6, status = $7
		WHERE id = $1 AND customer_id = $2
	`
	result, err := tx.Exec(ctx, query, s.ID, customerID, s.PackageID, s.StartDate, s.EndDate, s.Duration, s.Status)
	if err != nil {
		return storageErr("update subscription", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeleteSubscriptionWithTx removes one history entry.
func (r *CustomerRepository) DeleteSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID, subscriptionID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1 AND customer_id = $2`, subscriptionID, customerID)
	if err != nil {
		return storageErr("delete subscription", err)
	}
	return nil
}

// DeleteSubscriptionsByCustomerWithTx clears a customer's history and returns
// the package ids that were referenced, one element per deleted row, so the
// caller can decrement subscriber counters.
func (r *CustomerRepository) DeleteSubscriptionsByCustomerWithTx(ctx context.Context, tx pgx.Tx, customerID string) ([]string, error) {
	rows, err := tx.Query(ctx, `DELETE FROM subscriptions WHERE customer_id = $1 RETURNING package_id`, customerID)
	if err != nil {
		return nil, storageErr("delete subscriptions by customer", err)
	}
	defer rows.Close()

	packageIDs := []string{}
	for rows.Next() {
		var pkgID string
		if err := rows.Scan(&pkgID); err != nil {
			return nil, storageErr("scan deleted subscription", err)
		}
		packageIDs = append(packageIDs, pkgID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("delete subscriptions by customer", err)
	}
	return packageIDs, nil
}

// DeleteSubscriptionsByPackagesWithTx removes every subscription referencing
// the given packages (account-delete cascade, where the packages themselves
// disappear so no counter adjustment applies).
func (r *CustomerRepository) DeleteSubscriptionsByPackagesWithTx(ctx context.Context, tx pgx.Tx, packageIDs []string) error {
	if len(packageIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE package_id = ANY($1)`, packageIDs)
	if err != nil {
		return storageErr("delete subscriptions by packages", err)
	}
	return nil
}

// ExistsByPhone checks the global phone uniqueness constraint.
func (r *CustomerRepository) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE phone = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, phone, excludeID).Scan(&exists); err != nil {
		return false, storageErr("check customer phone", err)
	}
	return exists, nil
}

// ExistsByEmail checks email uniqueness among customers with a non-empty email.
func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, storageErr("check customer email", err)
	}
	return exists, nil
}
