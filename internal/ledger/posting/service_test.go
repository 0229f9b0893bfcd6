package posting_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/posting"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/templates"
	"github.com/odyssey-erp/ledger-engine/internal/storage/memory"
)

type fixture struct {
	journals *journals.Service
	posting  *posting.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	accountsService := accounts.NewService(store.Accounts())
	journalsService := journals.NewService(store.Journals())
	templatesService := templates.NewService(store.Templates(), accountsService)
	f := &fixture{
		journals: journalsService,
		posting:  posting.NewService(templatesService, journalsService),
	}
	ctx := context.Background()

	for _, a := range []struct {
		code string
		name string
		typ  ledger.AccountType
	}{
		{"1.1.03", "Accounts Receivable", ledger.AccountTypeAsset},
		{"2.1.02", "Tax Payable", ledger.AccountTypeLiability},
		{"4.1", "Sales Revenue", ledger.AccountTypeIncome},
	} {
		_, err := accountsService.Create(ctx, accounts.CreateInput{
			Code: a.code, Name: a.name, Type: a.typ,
			IsDetail: true, AcceptsEntries: true,
		})
		require.NoError(t, err)
	}

	_, err := templatesService.Upsert(ctx, templates.UpsertInput{
		Code:    "SALE_INVOICE_A",
		Name:    "Sale invoice",
		Trigger: ledger.TriggerSaleInvoice,
		Active:  true,
		Lines: []templates.LineSpec{
			{AccountCode: "1.1.03", Side: ledger.SideDebit, AmountType: ledger.AmountTotal},
			{AccountCode: "4.1", Side: ledger.SideCredit, AmountType: ledger.AmountSubtotal},
			{AccountCode: "2.1.02", Side: ledger.SideCredit, AmountType: ledger.AmountTax},
		},
	})
	require.NoError(t, err)
	return f
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func saleContext() ledger.TriggerContext {
	return ledger.TriggerContext{
		Total:    decPtr("1210"),
		Subtotal: decPtr("1000"),
		Tax:      decPtr("210"),
	}
}

func TestGenerateAndPostByTemplateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.posting.GenerateAndPost(ctx, posting.Request{
		TemplateCode: "SALE_INVOICE_A",
		Context:      saleContext(),
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:  "invoice F-001",
		SourceModule: "sales",
		SourceID:     uuid.New(),
	}, journals.ModePosted)
	require.NoError(t, err)

	require.Equal(t, ledger.EntryStatusPosted, entry.Status)
	require.Equal(t, int64(1), entry.Number)
	require.Equal(t, "invoice F-001", entry.Description)
	require.Len(t, entry.Lines, 3)
	require.True(t, entry.Lines[0].Debit.Equal(decimal.RequireFromString("1210")))
	require.True(t, entry.Lines[1].Credit.Equal(decimal.RequireFromString("1000")))
	require.True(t, entry.Lines[2].Credit.Equal(decimal.RequireFromString("210")))
}

func TestGenerateAndPostByTrigger(t *testing.T) {
	f := newFixture(t)

	entry, err := f.posting.GenerateAndPost(context.Background(), posting.Request{
		Trigger: ledger.TriggerSaleInvoice,
		Context: saleContext(),
		Date:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, journals.ModePosted)
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusPosted, entry.Status)
	require.Len(t, entry.Lines, 3)
}

func TestRequestNeedsTemplateOrTrigger(t *testing.T) {
	f := newFixture(t)

	_, err := f.posting.Generate(context.Background(), posting.Request{Context: saleContext()})
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRepostingSameSourceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := posting.Request{
		TemplateCode: "SALE_INVOICE_A",
		Context:      saleContext(),
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		SourceModule: "sales",
		SourceID:     uuid.New(),
	}
	_, err := f.posting.GenerateAndPost(ctx, req, journals.ModePosted)
	require.NoError(t, err)

	_, err = f.posting.GenerateAndPost(ctx, req, journals.ModePosted)
	require.ErrorIs(t, err, ledger.ErrSourceAlreadyLinked)

	entries, err := f.journals.List(ctx, journals.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGeneratePersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	proposed, err := f.posting.Generate(ctx, posting.Request{
		TemplateCode: "SALE_INVOICE_A",
		Context:      saleContext(),
	})
	require.NoError(t, err)
	require.Len(t, proposed.Lines, 3)
	require.Equal(t, "SALE_INVOICE_A", proposed.TemplateCode)

	entries, err := f.journals.List(ctx, journals.EntryFilter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDraftModeSkipsNumbering(t *testing.T) {
	f := newFixture(t)

	entry, err := f.posting.GenerateAndPost(context.Background(), posting.Request{
		TemplateCode: "SALE_INVOICE_A",
		Context:      saleContext(),
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, journals.ModeDraft)
	require.NoError(t, err)
	require.Equal(t, ledger.EntryStatusDraft, entry.Status)
	require.Zero(t, entry.Number)
	require.Nil(t, entry.PostedAt)
}

func TestDateAndDescriptionDefaults(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)
	f.posting.WithNow(func() time.Time { return now })

	entry, err := f.posting.GenerateAndPost(context.Background(), posting.Request{
		TemplateCode: "SALE_INVOICE_A",
		Context:      saleContext(),
	}, journals.ModePosted)
	require.NoError(t, err)
	require.True(t, entry.Date.Equal(now))
	require.Equal(t, "Sale invoice", entry.Description, "template name backfills the description")
}
