package pack

import (
	"context"
	"strings"
	"testing"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	xerrors "subdesk-service/internal/pkg/errors"
	"subdesk-service/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx satisfies pgx.Tx for the two methods services call; everything else
// panics, which a test would surface immediately.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

type fakeAccountRepo struct {
	accounts map[string]*catalog.Account
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id string) (*catalog.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

type fakePackageRepo struct {
	packages map[string]*catalog.Package
}

func (r *fakePackageRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error {
	r.packages[p.ID] = p
	return nil
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

func (r *fakePackageRepo) ListByAccount(ctx context.Context, accountID string) ([]catalog.Package, error) {
	out := []catalog.Package{}
	for _, p := range r.packages {
		if p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePackageRepo) UpdateWithTx(ctx context.Context, tx pgx.Tx, p *catalog.Package) error {
	if _, ok := r.packages[p.ID]; !ok {
		return xerrors.ErrNotFound
	}
	r.packages[p.ID] = p
	return nil
}

func (r *fakePackageRepo) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	_, ok := r.packages[id]
	delete(r.packages, id)
	return ok, nil
}

// ExistsByName mirrors the repository's LOWER() unique check.
func (r *fakePackageRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, p := range r.packages {
		if id != excludeID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSubscriptionRepo struct {
	clearedPackages []string
}

func (r *fakeSubscriptionRepo) DeleteSubscriptionsByPackagesWithTx(ctx context.Context, tx pgx.Tx, packageIDs []string) error {
	r.clearedPackages = append(r.clearedPackages, packageIDs...)
	return nil
}

type fakeCounters struct {
	linked map[string]int
}

func (c *fakeCounters) AdjustLinkedPackages(ctx context.Context, q postgres.Querier, accountID string, delta int) error {
	if c.linked == nil {
		c.linked = map[string]int{}
	}
	c.linked[accountID] += delta
	return nil
}

type fakeRecorder struct {
	actions []activitydom.ActionType
}

func (r *fakeRecorder) Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string) {
	r.actions = append(r.actions, action)
}

func newTestService(accounts map[string]*catalog.Account, packages map[string]*catalog.Package) (*PackageService, *fakeCounters, *fakeDB, *fakeSubscriptionRepo) {
	counters := &fakeCounters{}
	db := &fakeDB{}
	subs := &fakeSubscriptionRepo{}
	svc := NewPackageService(
		&fakePackageRepo{packages: packages},
		&fakeAccountRepo{accounts: accounts},
		subs,
		counters,
		db,
		&fakeRecorder{},
		zap.NewNop(),
	)
	return svc, counters, db, subs
}

func subscriptionAccount(id string) *catalog.Account {
	return &catalog.Account{ID: id, Type: catalog.TypeSubscription, Name: "Netflix Main"}
}

func TestCreatePackage(t *testing.T) {
	actor := activitydom.Actor{ID: "usr_1", Name: "Admin", Role: "admin"}

	t.Run("increments the account counter in the same transaction", func(t *testing.T) {
		svc, counters, db, _ := newTestService(
			map[string]*catalog.Account{"acc_1": subscriptionAccount("acc_1")},
			map[string]*catalog.Package{},
		)

		created, err := svc.CreatePackage(context.Background(), actor, &catalog.CreatePackageRequest{
			AccountID: "acc_1",
			Name:      "Netflix 1 Screen",
		})
		require.NoError(t, err)
		assert.Equal(t, catalog.TypeSubscription, created.Type, "type is inherited from the account")
		assert.Equal(t, 1, counters.linked["acc_1"])
		assert.True(t, db.tx.committed)
	})

	t.Run("name uniqueness is case-insensitive", func(t *testing.T) {
		svc, _, _, _ := newTestService(
			map[string]*catalog.Account{"acc_1": subscriptionAccount("acc_1")},
			map[string]*catalog.Package{
				"pkg_1": {ID: "pkg_1", AccountID: "acc_1", Name: "Basic"},
			},
		)

		_, err := svc.CreatePackage(context.Background(), actor, &catalog.CreatePackageRequest{
			AccountID: "acc_1",
			Name:      "BASIC",
		})
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})

	t.Run("unknown account is a validation error, no counter change", func(t *testing.T) {
		svc, counters, _, _ := newTestService(map[string]*catalog.Account{}, map[string]*catalog.Package{})

		_, err := svc.CreatePackage(context.Background(), actor, &catalog.CreatePackageRequest{
			AccountID: "acc_missing",
			Name:      "Orphan",
		})
		assert.ErrorIs(t, err, xerrors.ErrValidation)
		assert.Empty(t, counters.linked)
	})
}

func TestUpdatePackage(t *testing.T) {
	actor := activitydom.Actor{ID: "usr_1", Name: "Admin", Role: "admin"}

	t.Run("account move shifts the counters", func(t *testing.T) {
		accounts := map[string]*catalog.Account{
			"acc_old": subscriptionAccount("acc_old"),
			"acc_new": subscriptionAccount("acc_new"),
		}
		packages := map[string]*catalog.Package{
			"pkg_1": {ID: "pkg_1", AccountID: "acc_old", Type: catalog.TypeSubscription, Name: "Basic"},
		}
		svc, counters, _, _ := newTestService(accounts, packages)

		newAccount := "acc_new"
		updated, err := svc.UpdatePackage(context.Background(), actor, "pkg_1", &catalog.UpdatePackageRequest{
			AccountID: &newAccount,
		})
		require.NoError(t, err)
		assert.Equal(t, "acc_new", updated.AccountID)
		assert.Equal(t, -1, counters.linked["acc_old"])
		assert.Equal(t, 1, counters.linked["acc_new"])
	})

	t.Run("renaming onto another package's name is rejected", func(t *testing.T) {
		accounts := map[string]*catalog.Account{"acc_1": subscriptionAccount("acc_1")}
		packages := map[string]*catalog.Package{
			"pkg_1": {ID: "pkg_1", AccountID: "acc_1", Type: catalog.TypeSubscription, Name: "Basic"},
			"pkg_2": {ID: "pkg_2", AccountID: "acc_1", Type: catalog.TypeSubscription, Name: "Premium"},
		}
		svc, _, _, _ := newTestService(accounts, packages)

		name := "premium"
		_, err := svc.UpdatePackage(context.Background(), actor, "pkg_1", &catalog.UpdatePackageRequest{
			Name: &name,
		})
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})

	t.Run("moving to an account of another type revalidates retained credentials", func(t *testing.T) {
		accounts := map[string]*catalog.Account{
			"acc_sub": subscriptionAccount("acc_sub"),
			"acc_buy": {ID: "acc_buy", Type: catalog.TypePurchase, Name: "Windows Keys"},
		}
		packages := map[string]*catalog.Package{
			"pkg_1": {
				ID: "pkg_1", AccountID: "acc_sub", Type: catalog.TypeSubscription, Name: "Basic",
				Details: []catalog.Credential{
					{Kind: catalog.CredentialSubscription, Username: "owner@mail.com", Password: "hunter2"},
				},
			},
		}
		svc, counters, _, _ := newTestService(accounts, packages)

		newAccount := "acc_buy"
		_, err := svc.UpdatePackage(context.Background(), actor, "pkg_1", &catalog.UpdatePackageRequest{
			AccountID: &newAccount,
		})
		assert.ErrorIs(t, err, xerrors.ErrValidation)
		assert.Empty(t, counters.linked, "the rejected move must not touch counters")
	})
}

func TestDeletePackage(t *testing.T) {
	actor := activitydom.Actor{ID: "usr_1", Name: "Admin", Role: "admin"}

	t.Run("decrements the counter and clears subscriptions", func(t *testing.T) {
		accounts := map[string]*catalog.Account{"acc_1": subscriptionAccount("acc_1")}
		packages := map[string]*catalog.Package{
			"pkg_1": {ID: "pkg_1", AccountID: "acc_1", Type: catalog.TypeSubscription, Name: "Basic"},
		}
		svc, counters, db, subs := newTestService(accounts, packages)

		require.NoError(t, svc.DeletePackage(context.Background(), actor, "pkg_1"))
		assert.Equal(t, -1, counters.linked["acc_1"])
		assert.Equal(t, []string{"pkg_1"}, subs.clearedPackages)
		assert.True(t, db.tx.committed)
	})

	t.Run("deleting a missing id succeeds without side effects", func(t *testing.T) {
		svc, counters, _, subs := newTestService(map[string]*catalog.Account{}, map[string]*catalog.Package{})

		require.NoError(t, svc.DeletePackage(context.Background(), actor, "pkg_gone"))
		assert.Empty(t, counters.linked)
		assert.Empty(t, subs.clearedPackages)
	})
}
