package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/storage/memory"
)

func newService(t *testing.T) (*accounts.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return accounts.NewService(store.Accounts()), store
}

func strPtr(s string) *string { return &s }

func TestCreateAndResolve(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, accounts.CreateInput{
		Code: "1", Name: "Assets", Type: ledger.AccountTypeAsset,
	})
	require.NoError(t, err)
	require.Equal(t, 1, root.Level())
	require.True(t, root.Active)

	child, err := svc.Create(ctx, accounts.CreateInput{
		Code: "1.1.01", Name: "Cash", Type: ledger.AccountTypeAsset,
		ParentCode: strPtr("1"), IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, child.Level())
	require.True(t, child.Postable())

	got, err := svc.Resolve(ctx, "1.1.01")
	require.NoError(t, err)
	require.Equal(t, child.ID, got.ID)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accounts.CreateInput{Code: "1", Name: "Assets", Type: ledger.AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.Create(ctx, accounts.CreateInput{Code: "1", Name: "Assets again", Type: ledger.AccountTypeAsset})
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), accounts.CreateInput{
		Code: "1.1", Name: "Current Assets", Type: ledger.AccountTypeAsset,
		ParentCode: strPtr("1"),
	})
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Msg, "parent account 1 does not exist")
}

func TestCreateRejectsBadCodes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, code := range []string{"", "1..2", ".1", "1.", "1,2", "1 2"} {
		_, err := svc.Create(ctx, accounts.CreateInput{Code: code, Name: "x", Type: ledger.AccountTypeAsset})
		var verr *ledger.ValidationError
		require.ErrorAs(t, err, &verr, "code %q", code)
	}
}

func TestParentDemotedToGroupOnFirstChild(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, accounts.CreateInput{
		Code: "1", Name: "Assets", Type: ledger.AccountTypeAsset,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	require.True(t, parent.Postable())

	_, err = svc.Create(ctx, accounts.CreateInput{
		Code: "1.1", Name: "Current Assets", Type: ledger.AccountTypeAsset,
		ParentCode: strPtr("1"), IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, "1")
	require.NoError(t, err)
	require.False(t, got.IsDetail)
	require.False(t, got.AcceptsEntries)
	require.False(t, got.Postable())
}

func TestUpsertIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := accounts.CreateInput{Code: "4.1", Name: "Sales Revenue", Type: ledger.AccountTypeIncome, IsDetail: true, AcceptsEntries: true}
	first, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	in.Name = "Sales"
	second, err := svc.Upsert(ctx, in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Sales", second.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUpsertKeepsPostedDetailAccount(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	cash, err := svc.Create(ctx, accounts.CreateInput{
		Code: "1.1", Name: "Cash", Type: ledger.AccountTypeAsset,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	revenue, err := svc.Create(ctx, accounts.CreateInput{
		Code: "4.1", Name: "Sales Revenue", Type: ledger.AccountTypeIncome,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)

	js := journals.NewService(store.Journals())
	amount := decimal.NewFromInt(100)
	_, err = js.Create(ctx, journals.CreateInput{
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "cash sale",
		Lines: []journals.LineInput{
			{AccountID: cash.ID, Debit: amount},
			{AccountID: revenue.ID, Credit: amount},
		},
	}, journals.ModePosted)
	require.NoError(t, err)

	// A seed re-run must not turn a posted detail account into a group.
	_, err = svc.Upsert(ctx, accounts.CreateInput{
		Code: "1.1", Name: "Cash", Type: ledger.AccountTypeAsset,
	})
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Msg, "cannot become a group account")

	got, err := svc.Resolve(ctx, "1.1")
	require.NoError(t, err)
	require.True(t, got.Postable())

	// Upserting without demoting still applies.
	renamed, err := svc.Upsert(ctx, accounts.CreateInput{
		Code: "1.1", Name: "Cash and Banks", Type: ledger.AccountTypeAsset,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Cash and Banks", renamed.Name)
}

func TestDeactivateKeepsAccountResolvable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accounts.CreateInput{
		Code: "1.1.01", Name: "Cash", Type: ledger.AccountTypeAsset,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)

	acc, err := svc.Deactivate(ctx, "1.1.01")
	require.NoError(t, err)
	require.False(t, acc.Active)
	require.False(t, acc.Postable())

	got, err := svc.Resolve(ctx, "1.1.01")
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accounts.CreateInput{
		Code: "2.1", Name: "Payables", Type: ledger.AccountTypeLiability,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)

	name := "Accounts Payable"
	acc, err := svc.Update(ctx, "2.1", accounts.UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Accounts Payable", acc.Name)
	require.True(t, acc.AcceptsEntries)
	require.True(t, acc.Active)
}

func TestDeleteUnpostedAccount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accounts.CreateInput{
		Code: "9.9", Name: "Scratch", Type: ledger.AccountTypeExpense,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "9.9"))
	_, err = svc.Resolve(ctx, "9.9")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
