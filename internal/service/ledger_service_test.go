package service

import (
	"testing"

	"campbank/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateParticipantOpensWallet(t *testing.T) {
	env := newTestEnv(t)

	p := env.mustParticipant(t, "Alice", "P001", 1000)
	require.NotNil(t, p.Account)
	assert.Equal(t, int64(1000), p.Account.BalanceCents)
	assert.Equal(t, int64(1000), p.Account.InitialDepositCents)
	assert.False(t, p.Account.CheckedOut)

	// The opening deposit is on the books, so balance and log agree from
	// the first moment.
	sum, err := env.transactions.SumEffect(p.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sum)

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	byCode, err := env.ledger.ParticipantByCode("P001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	_, err = env.ledger.ParticipantByCode("NOPE")
	assert.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestCreateParticipantRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 0)

	_, err := env.ledger.CreateParticipant(CreateParticipantRequest{Name: "Alice", Code: "P002"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = env.ledger.CreateParticipant(CreateParticipantRequest{Name: "Bob", Code: "P001"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	// Codes share one namespace with products.
	env.mustProduct(t, "Cola", "C100", 150)
	_, err = env.ledger.CreateParticipant(CreateParticipantRequest{Name: "Carol", Code: "C100"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateParticipantValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.CreateParticipant(CreateParticipantRequest{Name: "", Code: "P001"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.ledger.CreateParticipant(CreateParticipantRequest{
		Name: "Alice", Code: "P001", InitialDepositCents: -1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateParticipant(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 0)
	env.mustParticipant(t, "Bob", "P002", 0)

	p, err := env.ledger.UpdateParticipant("Alice", UpdateParticipantRequest{Name: "Alicia", Code: "P009"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", p.Name)

	// Old code is free again, new one is taken.
	_, err = env.ledger.UpdateParticipant("Bob", UpdateParticipantRequest{Name: "Bob", Code: "P001"})
	assert.NoError(t, err)
	_, err = env.ledger.UpdateParticipant("Bob", UpdateParticipantRequest{Name: "Bob", Code: "P009"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = env.ledger.UpdateParticipant("Bob", UpdateParticipantRequest{Name: "Alicia", Code: "P001"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = env.ledger.UpdateParticipant(model.SentinelName, UpdateParticipantRequest{Name: "Pause", Code: "X"})
	assert.ErrorIs(t, err, ErrReservedParticipant)
}

func TestProductAliases(t *testing.T) {
	env := newTestEnv(t)
	cola := env.mustProduct(t, "Cola", "C100", 150)

	_, err := env.ledger.AddProductAlias(cola.ID, "C100-ALT")
	require.NoError(t, err)

	// Alias resolves to the same product.
	found, err := env.ledger.ProductByCode("C100-ALT")
	require.NoError(t, err)
	assert.Equal(t, cola.ID, found.ID)

	// Alias codes are reserved like any other.
	_, err = env.ledger.AddProductAlias(cola.ID, "C100-ALT")
	assert.ErrorIs(t, err, ErrDuplicateCode)
	_, err = env.ledger.CreateParticipant(CreateParticipantRequest{Name: "Alice", Code: "C100-ALT"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestUpdateProductPriceKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustProduct(t, "Cola", "C100", 150)

	booked, err := env.engine.Purchase("P001", "C100", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), booked.AmountCents)

	_, err = env.ledger.UpdateProductPrice("C100", 200)
	require.NoError(t, err)

	// The booked amount is a snapshot; the price edit must not move it or
	// the balance.
	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(850), balance)

	next, err := env.engine.Purchase("P001", "C100", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), next.AmountCents)
}

func TestUpdateProductPriceRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	env.mustProduct(t, "Cola", "C100", 150)

	_, err := env.ledger.UpdateProductPrice("C100", -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestListTransactionsNewestFirstAndRestartable(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustProduct(t, "Cola", "C100", 150)

	_, err := env.engine.Purchase("P001", "C100", 1)
	require.NoError(t, err)
	_, err = env.engine.Deposit("Alice", 500)
	require.NoError(t, err)

	seq, err := env.ledger.ListTransactions("Alice")
	require.NoError(t, err)

	collect := func() []model.Transaction {
		var out []model.Transaction
		for txn, err := range seq {
			require.NoError(t, err)
			out = append(out, txn)
		}
		return out
	}

	first := collect()
	require.Len(t, first, 3) // opening deposit, purchase, deposit
	assert.Equal(t, model.KindDeposit, first[0].Kind)
	assert.Equal(t, int64(500), first[0].AmountCents)
	assert.Equal(t, model.KindPurchase, first[1].Kind)

	// Ranging again re-reads from the store.
	second := collect()
	assert.Equal(t, len(first), len(second))
}

func TestListTransactionsUnknownParticipant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.ListTransactions("Nobody")
	assert.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestSalesStats(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 5000)
	env.mustProduct(t, "Cola", "C100", 150)
	env.mustProduct(t, "Mate", "C200", 200)

	_, err := env.engine.Purchase("P001", "C100", 3)
	require.NoError(t, err)
	_, err = env.engine.Purchase("P001", "C200", 1)
	require.NoError(t, err)

	stats, err := env.ledger.SalesStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Cola", stats[0].Description)
	assert.Equal(t, int64(3), stats[0].UnitsSold)
	assert.Equal(t, "Mate", stats[1].Description)
	assert.Equal(t, int64(1), stats[1].UnitsSold)

	// The persisted sold counter and the purchase log must agree.
	cola, err := env.ledger.ProductByCode("C100")
	require.NoError(t, err)
	assert.Equal(t, stats[0].UnitsSold, cola.SoldCount)
}

func TestCheckedOutParticipants(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustParticipant(t, "Bob", "P002", 500)

	_, err := env.engine.Checkout("Alice")
	require.NoError(t, err)

	out, err := env.ledger.CheckedOutParticipants()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0].Name)
}

func TestParticipantsIncludesSentinel(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 0)

	all, err := env.ledger.Participants()
	require.NoError(t, err)

	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "Alice")
	assert.Contains(t, names, model.SentinelName)
}
