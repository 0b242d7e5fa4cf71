package service

import (
	"sync"
	"testing"

	"campbank/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustProduct(t, "Cola", "C100", 150)

	txn, err := env.engine.Purchase("P001", "C100", 2)
	require.NoError(t, err)
	assert.Equal(t, model.KindPurchase, txn.Kind)
	assert.Equal(t, int64(2), txn.Quantity)
	assert.Equal(t, int64(300), txn.AmountCents)
	assert.Equal(t, int64(-300), txn.EffectCents())

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	cola, err := env.ledger.ProductByCode("C100")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cola.SoldCount)
}

func TestPurchaseByAliasCode(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	cola := env.mustProduct(t, "Cola", "C100", 150)
	_, err := env.ledger.AddProductAlias(cola.ID, "C100-ALT")
	require.NoError(t, err)

	_, err = env.engine.Purchase("P001", "C100-ALT", 1)
	require.NoError(t, err)

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(850), balance)
}

func TestPurchaseAllowsDebt(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 100)
	env.mustProduct(t, "Cola", "C100", 150)

	// Post-pay: the wallet may go negative, it is settled at checkout.
	_, err := env.engine.Purchase("P001", "C100", 1)
	require.NoError(t, err)

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(-50), balance)
}

func TestPurchaseErrors(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustProduct(t, "Cola", "C100", 150)

	_, err := env.engine.Purchase("P001", "C100", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.engine.Purchase("NOPE", "C100", 1)
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	_, err = env.engine.Purchase("P001", "NOPE", 1)
	assert.ErrorIs(t, err, ErrUnknownProduct)

	// The break badge is not a wallet.
	_, err = env.engine.Purchase(model.SentinelCode, "C100", 1)
	assert.ErrorIs(t, err, ErrBreakScanned)

	// An error must never move the balance.
	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestDepositAndWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.mustParticipant(t, "Alice", "P001", 1000)

	_, err := env.engine.Deposit("Alice", 500)
	require.NoError(t, err)
	_, err = env.engine.Withdraw("Alice", 200)
	require.NoError(t, err)

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1300), balance)

	_, err = env.engine.Withdraw("Alice", 1301)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = env.engine.Deposit("Alice", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.engine.Withdraw("Alice", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// The central invariant: the balance always equals the signed sum of the
// transaction log.
func TestBalanceMatchesTransactionLog(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustParticipant(t, "Alice", "P001", 1000)
	env.mustProduct(t, "Cola", "C100", 150)
	env.mustProduct(t, "Mate", "C200", 199)

	_, err := env.engine.Purchase("P001", "C100", 3)
	require.NoError(t, err)
	_, err = env.engine.Deposit("Alice", 2500)
	require.NoError(t, err)
	_, err = env.engine.Purchase("P001", "C200", 1)
	require.NoError(t, err)
	_, err = env.engine.Withdraw("Alice", 700)
	require.NoError(t, err)

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	sum, err := env.transactions.SumEffect(alice.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, balance)
	assert.Equal(t, int64(1000-450+2500-199-700), balance)
}

func TestConcurrentPurchasesStayConsistent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustParticipant(t, "Alice", "P001", 10000)
	env.mustProduct(t, "Cola", "C100", 150)

	const buyers = 8
	var wg sync.WaitGroup
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.Purchase("P001", "C100", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10000-buyers*150), balance)

	sum, err := env.transactions.SumEffect(alice.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)
}

func TestCheckoutPaysOutAndCloses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustParticipant(t, "Alice", "P001", 1200)

	result, err := env.engine.Checkout("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), result.PaidOutCents)
	assert.Equal(t, int64(1), result.Breakdown.Count(1000))
	assert.Equal(t, int64(1), result.Breakdown.Count(200))

	balance, err := env.ledger.Balance("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// The payout is on the books, so the log still sums to the balance.
	sum, err := env.transactions.SumEffect(alice.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	// One-way: no second checkout, no further bookings.
	_, err = env.engine.Checkout("Alice")
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
	_, err = env.engine.Deposit("Alice", 100)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
	env.mustProduct(t, "Cola", "C100", 150)
	_, err = env.engine.Purchase("P001", "C100", 1)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckoutWritesOffDebt(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustParticipant(t, "Alice", "P001", 100)
	env.mustProduct(t, "Cola", "C100", 150)
	_, err := env.engine.Purchase("P001", "C100", 1)
	require.NoError(t, err)

	result, err := env.engine.Checkout("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(-50), result.PaidOutCents)
	assert.Equal(t, int64(0), result.Breakdown.Pieces())

	sum, err := env.transactions.SumEffect(alice.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestCheckoutZeroBalanceBooksNothing(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mustParticipant(t, "Alice", "P001", 0)

	result, err := env.engine.Checkout("Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PaidOutCents)

	// Only the opening deposit row exists; a zero settlement is not booked.
	rows, err := env.transactions.FindByAccount(alice.Account.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
