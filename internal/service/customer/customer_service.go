// internal/service/customer/customer_service.go
package customer

import (
	"context"
	"fmt"
	"time"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/domain/customer"
	"subdesk-service/internal/domain/subscription"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/pkg/id"
	"subdesk-service/internal/pkg/phone"
	"subdesk-service/internal/query"
	"subdesk-service/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Storage dependencies, satisfied by the postgres repositories.
type CustomerRepo interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error
	FindByID(ctx context.Context, id string) (*customer.Customer, error)
	List(ctx context.Context) ([]customer.Customer, error)
	UpdateWithTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	InsertSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *customer.Subscription) error
	UpdateSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *customer.Subscription) error
	DeleteSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID, subscriptionID string) error
	DeleteSubscriptionsByCustomerWithTx(ctx context.Context, tx pgx.Tx, customerID string) ([]string, error)
	ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

type PackageRepo interface {
	FindByID(ctx context.Context, id string) (*catalog.Package, error)
	List(ctx context.Context) ([]catalog.Package, error)
}

type Counters interface {
	AdjustSubscribedCustomers(ctx context.Context, q postgres.Querier, packageID string, delta int) error
	ApplySubscriberDeltas(ctx context.Context, q postgres.Querier, deltas map[string]int) error
}

type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type Recorder interface {
	Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string)
}

type CustomerService struct {
	customerRepo CustomerRepo
	packageRepo  PackageRepo
	counters     Counters
	db           TxBeginner
	activity     Recorder
	logger       *zap.Logger
}

func NewCustomerService(
	customerRepo CustomerRepo,
	packageRepo PackageRepo,
	counters Counters,
	db TxBeginner,
	activity Recorder,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		packageRepo:  packageRepo,
		counters:     counters,
		db:           db,
		activity:     activity,
		logger:       logger,
	}
}

// CreateCustomer stores a new customer, optionally with an initial
// subscription. When a package is supplied, the subscription row and the
// package's subscriber counter increment commit atomically with the customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor activitydom.Actor, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	normalized, err := phone.Normalize(req.CountryCode, req.Phone)
	if err != nil {
		return nil, err
	}

	taken, err := s.customerRepo.ExistsByPhone(ctx, normalized, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.Duplicatef("phone %s already belongs to a customer", normalized)
	}
	if req.Email != "" {
		taken, err := s.customerRepo.ExistsByEmail(ctx, req.Email, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, xerrors.Duplicatef("email %s already belongs to a customer", req.Email)
		}
	}

	c := &customer.Customer{
		ID:    id.New("cust"),
		Name:  req.Name,
		Phone: normalized,
		Email: req.Email,
	}

	var initial *customer.Subscription
	if req.PackageID != "" {
		pkg, err := s.packageRepo.FindByID(ctx, req.PackageID)
		if err != nil {
			if xerrors.Is(err, xerrors.ErrNotFound) {
				return nil, xerrors.Validationf("package %s does not exist", req.PackageID)
			}
			return nil, err
		}
		sub, err := buildSubscription(pkg, req.SubscriptionDate, req.Duration)
		if err != nil {
			return nil, err
		}
		initial = sub
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.customerRepo.CreateWithTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if initial != nil {
		if err := s.customerRepo.InsertSubscriptionWithTx(ctx, tx, c.ID, initial); err != nil {
			return nil, err
		}
		if err := s.counters.AdjustSubscribedCustomers(ctx, tx, initial.PackageID, +1); err != nil {
			return nil, err
		}
		c.SubscriptionHistory = []customer.Subscription{*initial}
	} else {
		c.SubscriptionHistory = []customer.Subscription{}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrStorage, "commit customer create")
	}

	c.Project()
	s.activity.Record(actor, activitydom.ActionCreate, activitydom.ObjectCustomer, c.ID, c.Name, "customer created")
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, customerID string) (*customer.Customer, error) {
	return s.customerRepo.FindByID(ctx, customerID)
}

// ListCustomers evaluates search, the package/status composite filters and
// sorting in memory. Status filtering uses the effective (date-derived)
// status as of today, not the stored column.
func (s *CustomerService) ListCustomers(ctx context.Context, params customer.ListParams, today time.Time) ([]customer.Customer, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := s.packageRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	filters := map[string]string{}
	if params.Package != "" {
		filters["package"] = params.Package
	}
	if params.Status != "" {
		filters["status"] = params.Status
	}
	return query.Apply(customers, query.Params[customer.Customer]{
		Search:       params.Search,
		SearchFields: []string{"name", "phone", "email", "id"},
		Filters:      filters,
		FilterFuncs:  query.CustomerFilterFuncs(packages, today),
		SortBy:       params.SortBy,
		SortDir:      query.ParseDirection(params.SortOrder),
		Fields:       query.CustomerFields(),
	}), nil
}

// UpdateCustomer applies a partial update. A submitted subscription history is
// a full replacement: it is diffed against the stored history and the
// resulting row changes plus subscriber-counter deltas commit in one
// transaction, so counters can never drift from the rows they summarize.
func (s *CustomerService) UpdateCustomer(ctx context.Context, actor activitydom.Actor, customerID string, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	c, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Phone != nil {
		// A phone already in canonical form (a client echoing the stored
		// value back) passes through untouched; re-normalizing it would fold
		// the country code into the national number.
		normalized := *req.Phone
		if !phone.IsNormalized(normalized) {
			countryCode := ""
			if req.CountryCode != nil {
				countryCode = *req.CountryCode
			} else if cc, _, ok := phone.Parse(c.Phone); ok {
				countryCode = cc
			}
			n, err := phone.Normalize(countryCode, *req.Phone)
			if err != nil {
				return nil, err
			}
			normalized = n
		}
		if normalized != c.Phone {
			taken, err := s.customerRepo.ExistsByPhone(ctx, normalized, customerID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, xerrors.Duplicatef("phone %s already belongs to a customer", normalized)
			}
			c.Phone = normalized
		}
	}
	if req.Email != nil && *req.Email != c.Email {
		if *req.Email != "" {
			taken, err := s.customerRepo.ExistsByEmail(ctx, *req.Email, customerID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, xerrors.Duplicatef("email %s already belongs to a customer", *req.Email)
			}
		}
		c.Email = *req.Email
	}

	var diff subscription.HistoryDiff
	if req.SubscriptionHistory != nil {
		replacement, d, err := s.prepareHistory(ctx, c.SubscriptionHistory, *req.SubscriptionHistory)
		if err != nil {
			return nil, err
		}
		c.SubscriptionHistory = replacement
		diff = d
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.customerRepo.UpdateWithTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := s.applyHistoryDiff(ctx, tx, customerID, diff); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrStorage, "commit customer update")
	}

	s.activity.Record(actor, activitydom.ActionUpdate, activitydom.ObjectCustomer, c.ID, c.Name, "customer updated")
	return s.customerRepo.FindByID(ctx, customerID)
}

// DeleteCustomer removes the customer with their whole history, decrementing
// each referenced package's subscriber counter once per removed entry.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor activitydom.Actor, customerID string) error {
	c, err := s.customerRepo.FindByID(ctx, customerID)
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

	packageIDs, err := s.customerRepo.DeleteSubscriptionsByCustomerWithTx(ctx, tx, customerID)
	if err != nil {
		return err
	}
	deltas := map[string]int{}
	for _, pkgID := range packageIDs {
		deltas[pkgID]--
	}
	if err := s.counters.ApplySubscriberDeltas(ctx, tx, deltas); err != nil {
		return err
	}
	if _, err := s.customerRepo.DeleteWithTx(ctx, tx, customerID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return xerrors.Wrap(xerrors.ErrStorage, "commit customer delete")
	}

	s.logger.Info("customer deleted",
		zap.String("customer_id", customerID),
		zap.Int("subscriptions_removed", len(packageIDs)))
	s.activity.Record(actor, activitydom.ActionDelete, activitydom.ObjectCustomer, c.ID, c.Name,
		fmt.Sprintf("customer deleted with %d subscription(s)", len(packageIDs)))
	return nil
}

// prepareHistory validates a submitted replacement history, fills in generated
// ids, derived end dates and default statuses, and diffs it against the
// stored history.
func (s *CustomerService) prepareHistory(ctx context.Context, stored, submitted []customer.Subscription) ([]customer.Subscription, subscription.HistoryDiff, error) {
	replacement := make([]customer.Subscription, len(submitted))
	copy(replacement, submitted)

	for i := range replacement {
		entry := &replacement[i]
		if entry.PackageID == "" {
			return nil, subscription.HistoryDiff{}, xerrors.Validationf("subscription entry %d has no package", i)
		}
		pkg, err := s.packageRepo.FindByID(ctx, entry.PackageID)
		if err != nil {
			if xerrors.Is(err, xerrors.ErrNotFound) {
				return nil, subscription.HistoryDiff{}, xerrors.Validationf("package %s does not exist", entry.PackageID)
			}
			return nil, subscription.HistoryDiff{}, err
		}
		if entry.StartDate == "" || subscription.ParseDate(entry.StartDate).IsZero() {
			return nil, subscription.HistoryDiff{}, xerrors.Validationf("subscription entry %d has an invalid start date", i)
		}
		if entry.EndDate == "" {
			entry.EndDate = subscription.ExpiryDate(entry.StartDate, entry.Duration)
		} else if subscription.ParseDate(entry.EndDate).IsZero() {
			return nil, subscription.HistoryDiff{}, xerrors.Validationf("subscription entry %d has an invalid end date", i)
		}
		if entry.Status == "" {
			entry.Status = subscription.InitialStatus(pkg.Type)
		} else if !entry.Status.Valid() {
			return nil, subscription.HistoryDiff{}, xerrors.Validationf("subscription entry %d has an invalid status", i)
		}
	}

	diff := subscription.DiffHistory(stored, replacement)

	// Assign ids after diffing so entries submitted without one are counted
	// as additions, then persisted with a fresh id.
	for i := range diff.Added {
		if diff.Added[i].ID == "" {
			diff.Added[i].ID = id.New("sub")
		}
	}
	return replacement, diff, nil
}

func (s *CustomerService) applyHistoryDiff(ctx context.Context, tx pgx.Tx, customerID string, diff subscription.HistoryDiff) error {
	if diff.Empty() {
		return nil
	}
	for i := range diff.Added {
		if err := s.customerRepo.InsertSubscriptionWithTx(ctx, tx, customerID, &diff.Added[i]); err != nil {
			return err
		}
	}
	for i := range diff.Edited {
		if err := s.customerRepo.UpdateSubscriptionWithTx(ctx, tx, customerID, &diff.Edited[i]); err != nil {
			return err
		}
	}
	for _, removed := range diff.Removed {
		if err := s.customerRepo.DeleteSubscriptionWithTx(ctx, tx, customerID, removed.ID); err != nil {
			return err
		}
	}
	return s.counters.ApplySubscriberDeltas(ctx, tx, diff.CounterDeltas)
}

func buildSubscription(pkg *catalog.Package, startDate string, durationMonths int) (*customer.Subscription, error) {
	if startDate == "" {
		return nil, xerrors.Validationf("subscription date is required with a package")
	}
	if subscription.ParseDate(startDate).IsZero() {
		return nil, xerrors.Validationf("invalid subscription date %q, expected YYYY-MM-DD", startDate)
	}
	if pkg.Type == catalog.TypeSubscription && durationMonths < 1 {
		return nil, xerrors.Validationf("subscription duration must be at least 1 month")
	}

	endDate := subscription.ExpiryDate(startDate, durationMonths)
	if pkg.Type == catalog.TypePurchase {
		durationMonths = 0
		endDate = startDate
	}
	return &customer.Subscription{
		ID:        id.New("sub"),
		PackageID: pkg.ID,
		StartDate: startDate,
		EndDate:   endDate,
		Duration:  durationMonths,
		Status:    subscription.InitialStatus(pkg.Type),
	}, nil
}
