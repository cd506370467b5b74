// internal/repository/postgres/package_repo.go
package postgres

import (
	"context"
	"errors"

	"subdesk-service/internal/domain/catalog"
	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PackageRepository struct {
	db *pgxpool.Pool
}

func NewPackageRepository(db *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `id, account_id, type, name, details, price, subscribed_customers, created_at, updated_at`

func scanPackage(row pgx.Row) (*catalog.Package, error) {
	var p catalog.Package
	var detailsJSON, priceJSON []byte

	err := row.Scan(
		&p.ID, &p.AccountID, &p.Type, &p.Name, &detailsJSON, &priceJSON,
		&p.SubscribedCustomers, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Details, err = unmarshalDetails(detailsJSON); err != nil {
		return nil, err
	}
	if p.Price, err = unmarshalPrice(priceJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateWithTx inserts a package inside a caller-owned transaction so the
// owning account's linked_packages increment commits or rolls back with it.
func (r *PackageRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error {
	query := `
		INSERT INTO packages (id, account_id, type, name, details, price, subscribed_customers)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING created_at, updated_at
	`

	detailsJSON, err := marshalDetails(p.Details)
	if err != nil {
		return err
	}
	priceJSON, err := marshalPrice(p.Price)
	if err != nil {
		return err
	}

	err = tx.QueryRow(
		ctx, query,
		p.ID, p.AccountID, p.Type, p.Name, detailsJSON, priceJSON,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return storageErr("create package", err)
	}
	p.SubscribedCustomers = 0
	return nil
}

// FindByID retrieves a package by id.
func (r *PackageRepository) FindByID(ctx context.Context, id string) (*catalog.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`

	p, err := scanPackage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find package", err)
	}
	return p, nil
}

// List returns all packages, newest first.
func (r *PackageRepository) List(ctx context.Context) ([]catalog.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list packages", err)
	}
	defer rows.Close()

	packages := []catalog.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, storageErr("scan package", err)
		}
		packages = append(packages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list packages", err)
	}
	return packages, nil
}

// ListByAccount returns the packages owned by one account.
func (r *PackageRepository) ListByAccount(ctx context.Context, accountID string) ([]catalog.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE account_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, storageErr("list packages by account", err)
	}
	defer rows.Close()

	packages := []catalog.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, storageErr("scan package", err)
		}
		packages = append(packages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list packages by account", err)
	}
	return packages, nil
}

// UpdateWithTx rewrites the mutable columns inside a caller-owned transaction
// so an account move commits with its counter shifts. The subscribed_customers
// column is CounterStore territory and never written here.
func (r *PackageRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error {
	query := `
		UPDATE packages
		SET account_id = $2, name = $3, details = $4, price = $5, updated_at = NOW()
		WHERE id = $1
	`

	detailsJSON, err := marshalDetails(p.Details)
	if err != nil {
		return err
	}
	priceJSON, err := marshalPrice(p.Price)
	if err != nil {
		return err
	}

	result, err := tx.Exec(ctx, query, p.ID, p.AccountID, p.Name, detailsJSON, priceJSON)
	if err != nil {
		return storageErr("update package", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeleteWithTx removes one package inside a caller-owned transaction and
// reports whether a row existed.
func (r *PackageRepository) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	result, err := tx.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete package", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteByAccountWithTx removes every package under an account (account
// cascade) and returns the deleted ids so the caller can clear subscriptions
// referencing them.
func (r *PackageRepository) DeleteByAccountWithTx(ctx context.Context, tx pgx.Tx, accountID string) ([]string, error) {
	rows, err := tx.Query(ctx, `DELETE FROM packages WHERE account_id = $1 RETURNING id`, accountID)
	if err != nil {
		return nil, storageErr("delete packages by account", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan deleted package id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("delete packages by account", err)
	}
	return ids, nil
}

// ExistsByName checks the case-insensitive name uniqueness constraint.
func (r *PackageRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM packages WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, storageErr("check package name", err)
	}
	return exists, nil
}
