package account

import (
	"context"
	"strings"
	"testing"

	activitydom "subdesk-service/internal/domain/activity"
	"subdesk-service/internal/domain/catalog"
	xerrors "subdesk-service/internal/pkg/errors"

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

type fakeAccountRepo struct {
	accounts map[string]*catalog.Account
}

func (r *fakeAccountRepo) Create(ctx context.Context, a *catalog.Account) error {
	copied := *a
	r.accounts[a.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id string) (*catalog.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) List(ctx context.Context) ([]catalog.Account, error) {
	out := []catalog.Account{}
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, a *catalog.Account) error {
	if _, ok := r.accounts[a.ID]; !ok {
		return xerrors.ErrNotFound
	}
	copied := *a
	r.accounts[a.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) DeleteWithTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	_, ok := r.accounts[id]
	delete(r.accounts, id)
	return ok, nil
}

// ExistsByName mirrors the repository's LOWER() unique check.
func (r *fakeAccountRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, a := range r.accounts {
		if id != excludeID && strings.EqualFold(a.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type fakePackageRepo struct {
	packages map[string]*catalog.Package
}

func (r *fakePackageRepo) DeleteByAccountWithTx(ctx context.Context, tx pgx.Tx, accountID string) ([]string, error) {
	removed := []string{}
	for id, p := range r.packages {
		if p.AccountID == accountID {
			removed = append(removed, id)
			delete(r.packages, id)
		}
	}
	return removed, nil
}

type fakeSubscriptionRepo struct {
	clearedPackages []string
}

func (r *fakeSubscriptionRepo) DeleteSubscriptionsByPackagesWithTx(ctx context.Context, tx pgx.Tx, packageIDs []string) error {
	r.clearedPackages = append(r.clearedPackages, packageIDs...)
	return nil
}

type fakeRecorder struct{}

func (fakeRecorder) Record(actor activitydom.Actor, action activitydom.ActionType, objectType activitydom.ObjectType, objectID, objectName, details string) {
}

func newTestService(accounts map[string]*catalog.Account, packages map[string]*catalog.Package) (*AccountService, *fakeAccountRepo, *fakeSubscriptionRepo, *fakeDB) {
	accountRepo := &fakeAccountRepo{accounts: accounts}
	subs := &fakeSubscriptionRepo{}
	db := &fakeDB{}
	svc := NewAccountService(
		accountRepo,
		&fakePackageRepo{packages: packages},
		subs,
		db,
		fakeRecorder{},
		zap.NewNop(),
	)
	return svc, accountRepo, subs, db
}

var actor = activitydom.Actor{ID: "usr_1", Name: "Admin", Role: "admin"}

func TestCreateAccount(t *testing.T) {
	t.Run("stores the account with a zero counter", func(t *testing.T) {
		svc, repo, _, _ := newTestService(map[string]*catalog.Account{}, map[string]*catalog.Package{})

		created, err := svc.CreateAccount(context.Background(), actor, &catalog.CreateAccountRequest{
			Type: catalog.TypeSubscription,
			Name: "Netflix Main",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, created.LinkedPackages)
		assert.Contains(t, repo.accounts, created.ID)
	})

	t.Run("name uniqueness is case-insensitive", func(t *testing.T) {
		existing := map[string]*catalog.Account{
			"acc_1": {ID: "acc_1", Type: catalog.TypeSubscription, Name: "Foo"},
		}
		svc, _, _, _ := newTestService(existing, map[string]*catalog.Package{})

		_, err := svc.CreateAccount(context.Background(), actor, &catalog.CreateAccountRequest{
			Type: catalog.TypeSubscription,
			Name: "foo",
		})
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		svc, _, _, _ := newTestService(map[string]*catalog.Account{}, map[string]*catalog.Package{})

		_, err := svc.CreateAccount(context.Background(), actor, &catalog.CreateAccountRequest{
			Type: "lease",
			Name: "Weird",
		})
		assert.ErrorIs(t, err, xerrors.ErrValidation)
	})
}

func TestUpdateAccount(t *testing.T) {
	existing := func() map[string]*catalog.Account {
		return map[string]*catalog.Account{
			"acc_1": {ID: "acc_1", Type: catalog.TypeSubscription, Name: "Netflix Main"},
			"acc_2": {ID: "acc_2", Type: catalog.TypeSubscription, Name: "Spotify Main"},
		}
	}

	t.Run("renaming onto another account's name is rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(existing(), map[string]*catalog.Package{})

		name := "SPOTIFY MAIN"
		_, err := svc.UpdateAccount(context.Background(), actor, "acc_1", &catalog.UpdateAccountRequest{
			Name: &name,
		})
		assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	})

	t.Run("recasing your own name is not a collision", func(t *testing.T) {
		svc, _, _, _ := newTestService(existing(), map[string]*catalog.Package{})

		name := "Netflix MAIN"
		updated, err := svc.UpdateAccount(context.Background(), actor, "acc_1", &catalog.UpdateAccountRequest{
			Name: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, "Netflix MAIN", updated.Name)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("cascades over packages and their subscriptions in one transaction", func(t *testing.T) {
		accounts := map[string]*catalog.Account{
			"acc_1": {ID: "acc_1", Type: catalog.TypeSubscription, Name: "Netflix Main", LinkedPackages: 2},
		}
		packages := map[string]*catalog.Package{
			"pkg_1": {ID: "pkg_1", AccountID: "acc_1", Name: "1 Screen"},
			"pkg_2": {ID: "pkg_2", AccountID: "acc_1", Name: "2 Screens"},
			"pkg_3": {ID: "pkg_3", AccountID: "acc_other", Name: "Unrelated"},
		}
		svc, repo, subs, db := newTestService(accounts, packages)

		require.NoError(t, svc.DeleteAccount(context.Background(), actor, "acc_1"))
		assert.NotContains(t, repo.accounts, "acc_1")
		assert.ElementsMatch(t, []string{"pkg_1", "pkg_2"}, subs.clearedPackages)
		assert.True(t, db.tx.committed)
	})

	t.Run("deleting a missing id succeeds without side effects", func(t *testing.T) {
		svc, _, subs, db := newTestService(map[string]*catalog.Account{}, map[string]*catalog.Package{})

		require.NoError(t, svc.DeleteAccount(context.Background(), actor, "acc_gone"))
		assert.Empty(t, subs.clearedPackages)
		assert.Nil(t, db.tx, "no transaction is opened")
	})
}
