package customer

import (
	"context"
	"testing"
	"time"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	custdom "subdesk-service/internal/domain/customer"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

type fakeCustomerRepo struct {
	customers map[string]*custdom.Customer
}

func (r *fakeCustomerRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, c *custdom.Customer) error {
	copied := *c
	r.customers[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) FindByID(ctx context.Context, id string) (*custdom.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *c
	copied.SubscriptionHistory = append([]custdom.Subscription{}, c.SubscriptionHistory...)
	return &copied, nil
}

func (r *fakeCustomerRepo) List(ctx context.Context) ([]custdom.Customer, error) {
	out := []custdom.Customer{}
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCustomerRepo) UpdateWithTx(ctx context.Context, tx pgx.Tx, c *custdom.Customer) error {
	stored, ok := r.customers[c.ID]
	if !ok {
		return xerrors.ErrNotFound
	}
	history := stored.SubscriptionHistory
	copied := *c
	copied.SubscriptionHistory = history
	r.customers[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	_, ok := r.customers[id]
	delete(r.customers, id)
	return ok, nil
}

func (r *fakeCustomerRepo) InsertSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *custdom.Subscription) error {
	c := r.customers[customerID]
	c.SubscriptionHistory = append([]custdom.Subscription{*s}, c.SubscriptionHistory...)
	return nil
}

func (r *fakeCustomerRepo) UpdateSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID string, s *custdom.Subscription) error {
	c := r.customers[customerID]
	for i := range c.SubscriptionHistory {
		if c.SubscriptionHistory[i].ID == s.ID {
			c.SubscriptionHistory[i] = *s
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (r *fakeCustomerRepo) DeleteSubscriptionWithTx(ctx context.Context, tx pgx.Tx, customerID, subscriptionID string) error {
	c := r.customers[customerID]
	kept := c.SubscriptionHistory[:0]
	for _, s := range c.SubscriptionHistory {
		if s.ID != subscriptionID {
			kept = append(kept, s)
		}
	}
	c.SubscriptionHistory = kept
	return nil
}

func (r *fakeCustomerRepo) DeleteSubscriptionsByCustomerWithTx(ctx context.Context, tx pgx.Tx, customerID string) ([]string, error) {
	c, ok := r.customers[customerID]
	if !ok {
		return nil, nil
	}
	packageIDs := []string{}
	for _, s := range c.SubscriptionHistory {
		packageIDs = append(packageIDs, s.PackageID)
	}
	c.SubscriptionHistory = nil
	return packageIDs, nil
}

func (r *fakeCustomerRepo) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	for id, c := range r.customers {
		if id != excludeID && c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCustomerRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for id, c := range r.customers {
		if id != excludeID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakePackageRepo struct {
	packages map[string]*catalog.Package
}

func (r *fakePackageRepo) FindByID(ctx context.Context, id string) (*catalog.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePackageRepo) List(ctx context.Context) ([]catalog.Package, error) {
	out := []catalog.Package{}
	for _, p := range r.packages {
		out = append(out, *p)
	}
	return out, nil
}

type fakeCounters struct {
	subscribed map[string]int
}

func (c *fakeCounters) apply(packageID string, delta int) {
	if c.subscribed == nil {
		c.subscribed = map[string]int{}
	}
	c.subscribed[packageID] += delta
}

func (c *fakeCounters) AdjustSubscribedCustomers(ctx context.Context, q postgres.Querier, packageID string, delta int) error {
	c.apply(packageID, delta)
	return nil
}

func (c *fakeCounters) ApplySubscriberDeltas(ctx context.Context, q postgres.Querier, deltas map[string]int) error {
	for packageID, delta := range deltas {
		c.apply(packageID, delta)
	}
	return nil
}

type fakeRecorder struct{}

func (fakeRecorder) Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string) {
}

func newTestService(customers map[string]*custdom.Customer, packages map[string]*catalog.Package) (*CustomerService, *fakeCustomerRepo, *fakeCounters) {
	customerRepo := &fakeCustomerRepo{customers: customers}
	counters := &fakeCounters{}
	svc := NewCustomerService(
		customerRepo,
		&fakePackageRepo{packages: packages},
		counters,
		&fakeDB{},
		fakeRecorder{},
		zap.NewNop(),
	)
	return svc, customerRepo, counters
}

func testPackages() map[string]*catalog.Package {
	return map[string]*catalog.Package{
		"pkg_sub":  {ID: "pkg_sub", Type: catalog.TypeSubscription, Name: "Netflix 1 Screen"},
		"pkg_sub2": {ID: "pkg_sub2", Type: catalog.TypeSubscription, Name: "Netflix 2 Screens"},
		"pkg_buy":  {ID: "pkg_buy", Type: catalog.TypePurchase, Name: "Windows Key"},
	}
}

var actor = activitydom.Actor{ID: "usr_1", Name: "Admin", Role: "admin"}

func TestCreateCustomer(t *testing.T) {
	t.Run("with an initial subscription", func(t *testing.T) {
		svc, _, counters := newTestService(map[string]*custdom.Customer{}, testPackages())

		created, err := svc.CreateCustomer(context.Background(), actor, &custdom.CreateCustomerRequest{
			Name:             "Jane Doe",
			CountryCode:      "+254",
			Phone:            "0712345678",
			PackageID:        "pkg_sub",
			SubscriptionDate: "2026-01-01",
			Duration:         1,
		})
		require.NoError(t, err)
		require.Len(t, created.SubscriptionHistory, 1)

		entry := created.SubscriptionHistory[0]
		assert.Equal(t, "2026-01-31", entry.EndDate, "a month is 30 days")
		assert.Equal(t, custdom.StatusActive, entry.Status)
		assert.Equal(t, 1, counters.subscribed["pkg_sub"])
		assert.Equal(t, "pkg_sub", created.PackageID, "legacy fields mirror the newest entry")
		assert.Equal(t, "+254 712345678", created.Phone)
	})

	t.Run("purchase packages are recorded as sold with no running window", func(t *testing.T) {
		svc, _, _ := newTestService(map[string]*custdom.Customer{}, testPackages())

		created, err := svc.CreateCustomer(context.Background(), actor, &custdom.CreateCustomerRequest{
			Name:             "John Doe",
			CountryCode:      "+254",
			Phone:            "0798765432",
			PackageID:        "pkg_buy",
			SubscriptionDate: "2026-01-01",
		})
		require.NoError(t, err)
		require.Len(t, created.SubscriptionHistory, 1)

		entry := created.SubscriptionHistory[0]
		assert.Equal(t, custdom.StatusSold, entry.Status)
		assert.Equal(t, 0, entry.Duration)
		assert.Equal(t, entry.StartDate, entry.EndDate)
	})

	t.Run("duplicate phone is rejected", func(t *testing.T) {
		existing := map[string]*custdom.Customer{
			"cust_1": {ID: "cust_1", Name: "Jane", Phone: "+254 712345678"},
		}
		svc, _, _ := newTestService(existing, testPackages())

		_, err := svc.CreateCustomer(context.Background(), actor, &custdom.CreateCustomerRequest{
			Name:        "Imposter",
			CountryCode: "+254",
			Phone:       "0712345678",
		})
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})
}

func TestUpdateCustomerHistoryReplacement(t *testing.T) {
	stored := map[string]*custdom.Customer{
		"cust_1": {
			ID:    "cust_1",
			Name:  "Jane Doe",
			Phone: "+254 712345678",
			SubscriptionHistory: []custdom.Subscription{
				{ID: "sub_1", PackageID: "pkg_sub", StartDate: "2026-01-01", EndDate: "2026-01-31", Duration: 1, Status: custdom.StatusActive},
				{ID: "sub_2", PackageID: "pkg_buy", StartDate: "2025-06-01", EndDate: "2025-06-01", Duration: 0, Status: custdom.StatusSold},
			},
		},
	}
	svc, repo, counters := newTestService(stored, testPackages())

	// Keep sub_1 but move it to another package, drop sub_2, add one new entry
	// submitted without an id.
	replacement := []custdom.Subscription{
		{ID: "sub_1", PackageID: "pkg_sub2", StartDate: "2026-01-01", EndDate: "2026-01-31", Duration: 1, Status: custdom.StatusActive},
		{PackageID: "pkg_sub", StartDate: "2026-02-01", Duration: 2},
	}
	updated, err := svc.UpdateCustomer(context.Background(), actor, "cust_1", &custdom.UpdateCustomerRequest{
		SubscriptionHistory: &replacement,
	})
	require.NoError(t, err)

	assert.Equal(t, -1, counters.subscribed["pkg_buy"], "dropped entry decrements")
	assert.Equal(t, 1, counters.subscribed["pkg_sub2"], "moved entry counts for the new package")
	assert.Equal(t, 0, counters.subscribed["pkg_sub"], "move out and add in cancel")

	history := repo.customers["cust_1"].SubscriptionHistory
	require.Len(t, history, 2)
	assert.Len(t, updated.SubscriptionHistory, 2)
	for _, entry := range history {
		assert.NotEmpty(t, entry.ID, "additions are persisted with a generated id")
		if entry.PackageID == "pkg_sub" {
			assert.Equal(t, "2026-04-02", entry.EndDate, "omitted end date is derived from the duration")
			assert.Equal(t, custdom.StatusActive, entry.Status)
		}
	}
}

func TestUpdateCustomerPhone(t *testing.T) {
	stored := map[string]*custdom.Customer{
		"cust_1": {ID: "cust_1", Name: "Jane Doe", Phone: "+254 712345678"},
	}
	svc, _, _ := newTestService(stored, testPackages())

	t.Run("echoing the canonical phone back leaves it unchanged", func(t *testing.T) {
		p := "+254 712345678"
		updated, err := svc.UpdateCustomer(context.Background(), actor, "cust_1", &custdom.UpdateCustomerRequest{
			Phone: &p,
		})
		require.NoError(t, err)
		assert.Equal(t, "+254 712345678", updated.Phone)
	})

	t.Run("a raw national number reuses the stored country code", func(t *testing.T) {
		p := "0722000111"
		updated, err := svc.UpdateCustomer(context.Background(), actor, "cust_1", &custdom.UpdateCustomerRequest{
			Phone: &p,
		})
		require.NoError(t, err)
		assert.Equal(t, "+254 722000111", updated.Phone)
	})
}

func TestUpdateCustomerRejectsUnknownPackage(t *testing.T) {
	stored := map[string]*custdom.Customer{
		"cust_1": {ID: "cust_1", Name: "Jane", Phone: "+254 712345678"},
	}
	svc, _, counters := newTestService(stored, testPackages())

	replacement := []custdom.Subscription{
		{PackageID: "pkg_gone", StartDate: "2026-01-01", Duration: 1},
	}
	_, err := svc.UpdateCustomer(context.Background(), actor, "cust_1", &custdom.UpdateCustomerRequest{
		SubscriptionHistory: &replacement,
	})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
	assert.Empty(t, counters.subscribed)
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("decrements once per history entry", func(t *testing.T) {
		stored := map[string]*custdom.Customer{
			"cust_1": {
				ID:    "cust_1",
				Name:  "Jane Doe",
				Phone: "+254 712345678",
				SubscriptionHistory: []custdom.Subscription{
					{ID: "sub_1", PackageID: "pkg_sub", StartDate: "2026-01-01", EndDate: "2026-01-31", Duration: 1, Status: custdom.StatusActive},
					{ID: "sub_2", PackageID: "pkg_sub", StartDate: "2025-11-01", EndDate: "2025-12-01", Duration: 1, Status: custdom.StatusActive},
					{ID: "sub_3", PackageID: "pkg_buy", StartDate: "2025-06-01", EndDate: "2025-06-01", Duration: 0, Status: custdom.StatusSold},
				},
			},
		}
		svc, repo, counters := newTestService(stored, testPackages())

		require.NoError(t, svc.DeleteCustomer(context.Background(), actor, "cust_1"))
		assert.Equal(t, -2, counters.subscribed["pkg_sub"])
		assert.Equal(t, -1, counters.subscribed["pkg_buy"])
		assert.Empty(t, repo.customers)
	})

	t.Run("deleting a missing id succeeds without side effects", func(t *testing.T) {
		svc, _, counters := newTestService(map[string]*custdom.Customer{}, testPackages())

		require.NoError(t, svc.DeleteCustomer(context.Background(), actor, "cust_gone"))
		assert.Empty(t, counters.subscribed)
	})
}

func TestListCustomersEffectiveStatusFilter(t *testing.T) {
	today := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stored := map[string]*custdom.Customer{
		"cust_active": {
			ID: "cust_active", Name: "Active Annie", Phone: "+254 700000001",
			SubscriptionHistory: []custdom.Subscription{
				{ID: "sub_a", PackageID: "pkg_sub", StartDate: "2026-02-20", EndDate: "2026-03-22", Duration: 1, Status: custdom.StatusActive},
			},
		},
		"cust_lapsed": {
			ID: "cust_lapsed", Name: "Lapsed Larry", Phone: "+254 700000002",
			SubscriptionHistory: []custdom.Subscription{
				// Stored status never caught up; the filter must still see it as expired.
				{ID: "sub_l", PackageID: "pkg_sub", StartDate: "2026-01-01", EndDate: "2026-01-31", Duration: 1, Status: custdom.StatusActive},
			},
		},
	}
	svc, _, _ := newTestService(stored, testPackages())

	expired, err := svc.ListCustomers(context.Background(), custdom.ListParams{Status: "expired"}, today)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "cust_lapsed", expired[0].ID)

	active, err := svc.ListCustomers(context.Background(), custdom.ListParams{Status: "active"}, today)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "cust_active", active[0].ID)
}
