package journals_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	accounts *accounts.Service
	journals *journals.Service
	cash     int64
	revenue  int64
	group    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store:    store,
		accounts: accounts.NewService(store.Accounts()),
		journals: journals.NewService(store.Journals()),
	}
	ctx := context.Background()

	group, err := f.accounts.Create(ctx, accounts.CreateInput{
		Code: "1", Name: "Assets", Type: ledger.AccountTypeAsset,
	})
	require.NoError(t, err)
	f.group = group.ID

	cash, err := f.accounts.Create(ctx, accounts.CreateInput{
		Code: "1.1", Name: "Cash", Type: ledger.AccountTypeAsset,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	f.cash = cash.ID

	revenue, err := f.accounts.Create(ctx, accounts.CreateInput{
		Code: "4.1", Name: "Sales Revenue", Type: ledger.AccountTypeIncome,
		IsDetail: true, AcceptsEntries: true,
	})
	require.NoError(t, err)
	f.revenue = revenue.ID

	return f
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) balancedInput(v int64) journals.CreateInput {
	return journals.CreateInput{
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "cash sale",
		Lines: []journals.LineInput{
			{AccountID: f.cash, Debit: amount(v)},
			{AccountID: f.revenue, Credit: amount(v)},
		},
	}
}

func TestCreateDraftMayBeUnbalanced(t *testing.T) {
	f := newFixture(t)
	in := f.balancedInput(100)
	in.Lines[1].Credit = amount(40)

	entry, err := f.journals.Create(context.Background(), in, journals.ModeDraft)
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusDraft, entry.Status)
	require.Zero(t, entry.Number)
	require.Nil(t, entry.PostedAt)
}

func TestCreatePostedAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModePosted)
	require.NoError(t, err)
	second, err := f.journals.Create(ctx, f.balancedInput(50), journals.ModePosted)
	require.NoError(t, err)

	require.Equal(t, int64(1), first.Number)
	require.Equal(t, int64(2), second.Number)
	require.Equal(t, ledger.EntryStatusPosted, first.Status)
	require.NotNil(t, first.PostedAt)
}

func TestCreatePostedRejectsUnbalanced(t *testing.T) {
	f := newFixture(t)
	in := f.balancedInput(100)
	in.Lines[1].Credit = amount(90)

	_, err := f.journals.Create(context.Background(), in, journals.ModePosted)
	var uerr *ledger.UnbalancedEntryError
	require.ErrorAs(t, err, &uerr)
	require.True(t, uerr.Difference.Equal(amount(10)))
}

func TestCreateLineValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tooFew := f.balancedInput(100)
	tooFew.Lines = tooFew.Lines[:1]
	_, err := f.journals.Create(ctx, tooFew, journals.ModeDraft)
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)

	bothSides := f.balancedInput(100)
	bothSides.Lines[0].Credit = amount(5)
	_, err = f.journals.Create(ctx, bothSides, journals.ModeDraft)
	require.ErrorAs(t, err, &verr)

	negative := f.balancedInput(100)
	negative.Lines[0].Debit = amount(-100)
	_, err = f.journals.Create(ctx, negative, journals.ModeDraft)
	require.ErrorAs(t, err, &verr)
}

func TestCreateRejectsGroupAndUnknownAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	toGroup := f.balancedInput(100)
	toGroup.Lines[0].AccountID = f.group
	_, err := f.journals.Create(ctx, toGroup, journals.ModePosted)
	var nperr *ledger.NonPostableAccountError
	require.ErrorAs(t, err, &nperr)
	require.Equal(t, 1, nperr.LineNumber)
	require.Equal(t, "1", nperr.AccountCode)

	toUnknown := f.balancedInput(100)
	toUnknown.Lines[0].AccountID = 9999
	_, err = f.journals.Create(ctx, toUnknown, journals.ModePosted)
	var uaerr *ledger.UnknownAccountError
	require.ErrorAs(t, err, &uaerr)
	require.Equal(t, int64(9999), uaerr.AccountID)
}

func TestPostDraftAndTransitionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModeDraft)
	require.NoError(t, err)

	posted, err := f.journals.Post(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusPosted, posted.Status)
	require.Equal(t, int64(1), posted.Number)

	_, err = f.journals.Post(ctx, draft.ID)
	require.ErrorIs(t, err, ledger.ErrInvalidTransition)
}

func TestFailedPostDoesNotConsumeANumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unbalanced := f.balancedInput(100)
	unbalanced.Lines[1].Credit = amount(60)
	draft, err := f.journals.Create(ctx, unbalanced, journals.ModeDraft)
	require.NoError(t, err)

	_, err = f.journals.Post(ctx, draft.ID)
	var uerr *ledger.UnbalancedEntryError
	require.ErrorAs(t, err, &uerr)

	posted, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModePosted)
	require.NoError(t, err)
	require.Equal(t, int64(1), posted.Number)
}

func TestVoidLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModeDraft)
	require.NoError(t, err)

	_, err = f.journals.Void(ctx, draft.ID, "mistake")
	require.ErrorIs(t, err, ledger.ErrInvalidTransition)

	posted, err := f.journals.Post(ctx, draft.ID)
	require.NoError(t, err)

	voided, err := f.journals.Void(ctx, posted.ID, "duplicate capture")
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusVoided, voided.Status)
	require.Equal(t, "duplicate capture", voided.VoidReason)
	require.Len(t, voided.Lines, 2)

	_, err = f.journals.Void(ctx, posted.ID, "again")
	require.ErrorIs(t, err, ledger.ErrInvalidTransition)
}

func TestUpdateOnlyDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModeDraft)
	require.NoError(t, err)

	desc := "corrected memo"
	updated, err := f.journals.Update(ctx, draft.ID, journals.UpdateInput{
		Description: &desc,
		Lines: []journals.LineInput{
			{AccountID: f.cash, Debit: amount(80)},
			{AccountID: f.revenue, Credit: amount(80)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "corrected memo", updated.Description)
	require.True(t, updated.Lines[0].Debit.Equal(amount(80)))

	_, err = f.journals.Post(ctx, draft.ID)
	require.NoError(t, err)

	_, err = f.journals.Update(ctx, draft.ID, journals.UpdateInput{Description: &desc})
	require.ErrorIs(t, err, ledger.ErrImmutableEntry)
}

func TestDeleteOnlyDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModeDraft)
	require.NoError(t, err)
	require.NoError(t, f.journals.Delete(ctx, draft.ID))
	_, err = f.journals.Get(ctx, draft.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	posted, err := f.journals.Create(ctx, f.balancedInput(100), journals.ModePosted)
	require.NoError(t, err)
	err = f.journals.Delete(ctx, posted.ID)
	require.ErrorIs(t, err, ledger.ErrImmutableEntry)
}

func TestDeleteDraftReleasesSourceLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := uuid.New()
	in := f.balancedInput(100)
	in.SourceModule = "sales"
	in.SourceID = ref
	draft, err := f.journals.Create(ctx, in, journals.ModeDraft)
	require.NoError(t, err)
	require.NoError(t, f.journals.Delete(ctx, draft.ID))

	// The business event has no entry left, so it can be posted again.
	posted, err := f.journals.Create(ctx, in, journals.ModePosted)
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusPosted, posted.Status)
}

func TestConcurrentPostingYieldsGapFreeNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const posters = 100
	numbers := make([]int64, posters)
	errs := make([]error, posters)
	var wg sync.WaitGroup
	wg.Add(posters)
	for i := 0; i < posters; i++ {
		go func(i int) {
			defer wg.Done()
			entry, err := f.journals.Create(ctx, f.balancedInput(int64(i+1)), journals.ModePosted)
			errs[i] = err
			numbers[i] = entry.Number
		}(i)
	}
	wg.Wait()

	for i := 0; i < posters; i++ {
		require.NoError(t, errs[i])
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, n := range numbers {
		require.Equal(t, int64(i+1), n, "numbers must be gap-free and duplicate-free")
	}
}

func TestSourceLinkRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := uuid.New()
	in := f.balancedInput(100)
	in.SourceModule = "AR"
	in.SourceID = ref

	_, err := f.journals.Create(ctx, in, journals.ModePosted)
	require.NoError(t, err)

	_, err = f.journals.Create(ctx, in, journals.ModePosted)
	require.ErrorIs(t, err, ledger.ErrSourceAlreadyLinked)

	entries, err := f.journals.List(ctx, journals.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1, "rejected duplicate must not leave a partial entry behind")
}
