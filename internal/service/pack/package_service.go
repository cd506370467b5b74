// internal/service/pack/package_service.go
package pack

import (
	"context"
	"fmt"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/id"
	"subdesk-service/internal/query"
	"subdesk-service/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Storage dependencies, satisfied by the postgres repositories.
type PackageRepo interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error
	FindByID(ctx context.Context, id string) (*catalog.Package, error)
	List(ctx context.Context) ([]catalog.Package, error)
	ListByAccount(ctx context.Context, accountID string) ([]catalog.Package, error)
	UpdateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
}

type AccountRepo interface {
	FindByID(ctx context.Context, id string) (*catalog.Account, error)
}

type SubscriptionRepo interface {
	DeleteSubscriptionsByPackagesWithTx(ctx context.Context, tx pgx.Tx, packageIDs []string) error
}

type Counters interface {
	AdjustLinkedPackages(ctx context.Context, q postgres.Querier, accountID string, delta int) error
}

type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type Recorder interface {
	Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string)
}

type PackageService struct {
	packageRepo  PackageRepo
	accountRepo  AccountRepo
	customerRepo SubscriptionRepo
	counters     Counters
	db           TxBeginner
	activity     Recorder
	logger       *zap.Logger
}

func NewPackageService(
	packageRepo PackageRepo,
	accountRepo AccountRepo,
	customerRepo SubscriptionRepo,
	counters Counters,
	db TxBeginner,
	activity Recorder,
	logger *zap.Logger,
) *PackageService {
	return &PackageService{
		packageRepo:  packageRepo,
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		counters:     counters,
		db:           db,
		activity:     activity,
		logger:       logger,
	}
}

// CreatePackage inserts the package and increments the parent account's
// linked-package counter in the same transaction. The package inherits its
// type from the account; it is never supplied by the caller.
func (s *PackageService) CreatePackage(ctx context.Context, actor activitydom.Actor, req *catalog.CreatePackageRequest) (*catalog.Package, error) {
	account, err := s.accountRepo.FindByID(ctx, req.AccountID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.Validationf("account %s does not exist", req.AccountID)
		}
		return nil, err
	}

	for _, cred := range req.Details {
		if err := cred.Validate(account.Type); err != nil {
			return nil, err
		}
	}

	taken, err := s.packageRepo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.Duplicatef("package name %q already exists", req.Name)
	}

	pkg := &catalog.Package{
		ID:        id.New("pkg"),
		AccountID: account.ID,
		Type:      account.Type,
		Name:      req.Name,
		Details:   req.Details,
		Price:     req.Price,
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.packageRepo.CreateWithTx(ctx, tx, pkg); err != nil {
		return nil, err
	}
	if err := s.counters.AdjustLinkedPackages(ctx, tx, account.ID, +1); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrStorage, "commit package create")
	}

	s.activity.Record(actor, activitydom.ActionCreate, activitydom.ObjectPackage, pkg.ID, pkg.Name,
		fmt.Sprintf("package created under account %s", account.Name))
	return pkg, nil
}

func (s *PackageService) GetPackage(ctx context.Context, packageID string) (*catalog.Package, error) {
	return s.packageRepo.FindByID(ctx, packageID)
}

func (s *PackageService) ListPackages(ctx context.Context, params catalog.ListParams) ([]catalog.Package, error) {
	packages, err := s.packageRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	filters := map[string]string{}
	if params.Type != "" {
		filters["type"] = params.Type
	}
	return query.Apply(packages, query.Params[catalog.Package]{
		Search:       params.Search,
		SearchFields: []string{"name", "id"},
		Filters:      filters,
		SortBy:       params.SortBy,
		SortDir:      query.ParseDirection(params.SortOrder),
		Fields:       query.PackageFields(),
	}), nil
}

func (s *PackageService) ListByAccount(ctx context.Context, accountID string) ([]catalog.Package, error) {
	if _, err := s.accountRepo.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.packageRepo.ListByAccount(ctx, accountID)
}

// UpdatePackage applies a partial update. Moving a package between accounts
// shifts one linked-package count from the old account to the new one, atomically.
func (s *PackageService) UpdatePackage(ctx context.Context, actor activitydom.Actor, packageID string, req *catalog.UpdatePackageRequest) (*catalog.Package, error) {
	pkg, err := s.packageRepo.FindByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	oldAccountID := pkg.AccountID

	if req.AccountID != nil && *req.AccountID != pkg.AccountID {
		account, err := s.accountRepo.FindByID(ctx, *req.AccountID)
		if err != nil {
			if xerrors.Is(err, xerrors.ErrNotFound) {
				return nil, xerrors.Validationf("account %s does not exist", *req.AccountID)
			}
			return nil, err
		}
		pkg.AccountID = account.ID
		pkg.Type = account.Type
	}
	if req.Name != nil && *req.Name != pkg.Name {
		taken, err := s.packageRepo.ExistsByName(ctx, *req.Name, packageID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, xerrors.Duplicatef("package name %q already exists", *req.Name)
		}
		pkg.Name = *req.Name
	}
	if req.Details != nil {
		pkg.Details = *req.Details
	}
	// An account move can change the package type, so retained credentials
	// need revalidating too, not just submitted ones.
	for _, cred := range pkg.Details {
		if err := cred.Validate(pkg.Type); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		pkg.Price = *req.Price
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.packageRepo.UpdateWithTx(ctx, tx, pkg); err != nil {
		return nil, err
	}
	if pkg.AccountID != oldAccountID {
		if err := s.counters.AdjustLinkedPackages(ctx, tx, oldAccountID, -1); err != nil {
			return nil, err
		}
		if err := s.counters.AdjustLinkedPackages(ctx, tx, pkg.AccountID, +1); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrStorage, "commit package update")
	}

	s.activity.Record(actor, activitydom.ActionUpdate, activitydom.ObjectPackage, pkg.ID, pkg.Name, "package updated")
	return pkg, nil
}

// DeletePackage removes the package, its customers' history entries pointing
// at it, and decrements the parent account's counter, in one transaction.
func (s *PackageService) DeletePackage(ctx context.Context, actor activitydom.Actor, packageID string) error {
	pkg, err := s.packageRepo.FindByID(ctx, packageID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		// Deleting an already-absent id is a success, not an error.
		return nil
	}
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.customerRepo.DeleteSubscriptionsByPackagesWithTx(ctx, tx, []string{packageID}); err != nil {
		return err
	}
	deleted, err := s.packageRepo.DeleteWithTx(ctx, tx, packageID)
	if err != nil {
		return err
	}
	if deleted {
		if err := s.counters.AdjustLinkedPackages(ctx, tx, pkg.AccountID, -1); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return xerrors.Wrap(xerrors.ErrStorage, "commit package delete")
	}

	s.logger.Info("package deleted",
		zap.String("package_id", packageID),
		zap.String("account_id", pkg.AccountID))
	s.activity.Record(actor, activitydom.ActionDelete, activitydom.ObjectPackage, pkg.ID, pkg.Name, "package deleted")
	return nil
}
