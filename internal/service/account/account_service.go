// internal/service/account/account_service.go
package account

import (
	"context"
	"fmt"
	"time"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/domain/subscription"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/id"
	"subdesk-service/internal/query"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Storage dependencies, satisfied by the postgres repositories. Declared here
// so the service stays polymorphic over the backend and testable with fakes.
type AccountRepo interface {
	Create(ctx context.Context, a *catalog.Account) error
	FindByID(ctx context.Context, id string) (*catalog.Account, error)
	List(ctx context.Context) ([]catalog.Account, error)
	Update(ctx context.Context, a *catalog.Account) error
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
}

type PackageRepo interface {
	DeleteByAccountWithTx(ctx context.Context, tx pgx.Tx, accountID string) ([]string, error)
}

type SubscriptionRepo interface {
	DeleteSubscriptionsByPackagesWithTx(ctx context.Context, tx pgx.Tx, packageIDs []string) error
}

type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type Recorder interface {
	Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string)
}

type AccountService struct {
	accountRepo  AccountRepo
	packageRepo  PackageRepo
	customerRepo SubscriptionRepo
	db           TxBeginner
	activity     Recorder
	logger       *zap.Logger
}

func NewAccountService(
	accountRepo AccountRepo,
	packageRepo PackageRepo,
	customerRepo SubscriptionRepo,
	db TxBeginner,
	activity Recorder,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		packageRepo:  packageRepo,
		customerRepo: customerRepo,
		db:           db,
		activity:     activity,
		logger:       logger,
	}
}

// CreateAccount validates and stores a new account. The linked-package counter
// always starts at zero; only package create/delete may move it.
func (s *AccountService) CreateAccount(ctx context.Context, actor activitydom.Actor, req *catalog.CreateAccountRequest) (*catalog.Account, error) {
	if !req.Type.Valid() {
		return nil, xerrors.Validationf("type must be subscription or purchase")
	}
	if err := validateDates(req.SubscriptionDate, req.ExpiryDate); err != nil {
		return nil, err
	}
	for _, cred := range req.Details {
		if err := cred.Validate(req.Type); err != nil {
			return nil, err
		}
	}

	taken, err := s.accountRepo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.Duplicatef("account name %q already exists", req.Name)
	}

	account := &catalog.Account{
		ID:               id.New("acc"),
		Type:             req.Type,
		Name:             req.Name,
		Details:          req.Details,
		SubscriptionDate: req.SubscriptionDate,
		ExpiryDate:       req.ExpiryDate,
		Price:            req.Price,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.activity.Record(actor, activitydom.ActionCreate, activitydom.ObjectAccount, account.ID, account.Name, "account created")
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*catalog.Account, error) {
	return s.accountRepo.FindByID(ctx, accountID)
}

// ListAccounts applies search, type filter and sorting in memory over the full
// set; the collection is operator-scale, not end-user-scale.
func (s *AccountService) ListAccounts(ctx context.Context, params catalog.ListParams) ([]catalog.Account, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	filters := map[string]string{}
	if params.Type != "" {
		filters["type"] = params.Type
	}
	return query.Apply(accounts, query.Params[catalog.Account]{
		Search:       params.Search,
		SearchFields: []string{"name", "id"},
		Filters:      filters,
		SortBy:       params.SortBy,
		SortDir:      query.ParseDirection(params.SortOrder),
		Fields:       query.AccountFields(),
	}), nil
}

// UpdateAccount applies a partial update. The counter column is never written.
func (s *AccountService) UpdateAccount(ctx context.Context, actor activitydom.Actor, accountID string, req *catalog.UpdateAccountRequest) (*catalog.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != account.Name {
		taken, err := s.accountRepo.ExistsByName(ctx, *req.Name, accountID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, xerrors.Duplicatef("account name %q already exists", *req.Name)
		}
		account.Name = *req.Name
	}
	if req.Details != nil {
		for _, cred := range *req.Details {
			if err := cred.Validate(account.Type); err != nil {
				return nil, err
			}
		}
		account.Details = *req.Details
	}
	if req.SubscriptionDate != nil {
		account.SubscriptionDate = *req.SubscriptionDate
	}
	if req.ExpiryDate != nil {
		account.ExpiryDate = *req.ExpiryDate
	}
	if err := validateDates(account.SubscriptionDate, account.ExpiryDate); err != nil {
		return nil, err
	}
	if req.Price != nil {
		account.Price = *req.Price
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	s.activity.Record(actor, activitydom.ActionUpdate, activitydom.ObjectAccount, account.ID, account.Name, "account updated")
	return account, nil
}

// DeleteAccount removes an account together with its packages and every
// subscription history entry referencing those packages, in one transaction.
// The deleted packages take their counters with them, so no adjustments
// are applied.
func (s *AccountService) DeleteAccount(ctx context.Context, actor activitydom.Actor, accountID string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
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

	packageIDs, err := s.packageRepo.DeleteByAccountWithTx(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if err := s.customerRepo.DeleteSubscriptionsByPackagesWithTx(ctx, tx, packageIDs); err != nil {
		return err
	}
	if _, err := s.accountRepo.DeleteWithTx(ctx, tx, accountID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return xerrors.Wrap(xerrors.ErrStorage, "commit account delete")
	}

	s.logger.Info("account deleted",
		zap.String("account_id", accountID),
		zap.Int("packages_removed", len(packageIDs)))
	s.activity.Record(actor, activitydom.ActionDelete, activitydom.ObjectAccount, account.ID, account.Name,
		fmt.Sprintf("account deleted with %d linked package(s)", len(packageIDs)))
	return nil
}

func validateDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(subscription.DateLayout, d); err != nil {
			return xerrors.Validationf("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	return nil
}
