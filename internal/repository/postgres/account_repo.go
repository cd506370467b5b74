// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"
	"errors"

	"subdesk-service/internal/domain/catalog"
	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, type, name, details, subscription_date, expiry_date, price, linked_packages, created_at, updated_at`

func scanAccount(row pgx.Row) (*catalog.Account, error) {
	var a catalog.Account
	var detailsJSON, priceJSON []byte

	err := row.Scan(
		&a.ID, &a.Type, &a.Name, &detailsJSON, &a.SubscriptionDate, &a.ExpiryDate,
		&priceJSON, &a.LinkedPackages, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.Details, err = unmarshalDetails(detailsJSON); err != nil {
		return nil, err
	}
	if a.Price, err = unmarshalPrice(priceJSON); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account. linked_packages always starts at zero.
func (r *AccountRepository) Create(ctx context.Context, a *catalog.Account) error {
	query := `
		INSERT INTO accounts (id, type, name, details, subscription_date, expiry_date, price, linked_packages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		RETURNING created_at, updated_at
	`

	detailsJSON, err := marshalDetails(a.Details)
	if err != nil {
		return err
	}
	priceJSON, err := marshalPrice(a.Price)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		ctx, query,
		a.ID, a.Type, a.Name, detailsJSON, a.SubscriptionDate, a.ExpiryDate, priceJSON,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return storageErr("create account", err)
	}
	a.LinkedPackages = 0
	return nil
}

// FindByID retrieves an account by id.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*catalog.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find account", err)
	}
	return a, nil
}

// List returns all accounts, newest first.
func (r *AccountRepository) List(ctx context.Context) ([]catalog.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	accounts := []catalog.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list accounts", err)
	}
	return accounts, nil
}

// Update rewrites the mutable columns of an account. The counter column is
// deliberately excluded: it is only ever touched by the CounterStore.
func (r *AccountRepository) Update(ctx context.Context, a *catalog.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, details = $3, subscription_date = $4, expiry_date = $5, price = $6, updated_at = NOW()
		WHERE id = $1
	`

	detailsJSON, err := marshalDetails(a.Details)
	if err != nil {
		return err
	}
	priceJSON, err := marshalPrice(a.Price)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, query, a.ID, a.Name, detailsJSON, a.SubscriptionDate, a.ExpiryDate, priceJSON)
	if err != nil {
		return storageErr("update account", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeleteWithTx removes the account row inside a caller-owned transaction and
// reports whether a row existed. The caller cascades packages and
// subscriptions in the same transaction.
func (r *AccountRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	result, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete account", err)
	}
	return result.RowsAffected() > 0, nil
}

// ExistsByName checks the case-insensitive name uniqueness constraint,
// optionally excluding one id (for updates).
func (r *AccountRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, storageErr("check account name", err)
	}
	return exists, nil
}
