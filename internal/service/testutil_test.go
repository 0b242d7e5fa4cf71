package service

import (
	"path/filepath"
	"testing"
	"time"

	"campbank/internal/model"
	"campbank/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminPassword = "letmein"

type testEnv struct {
	db           *gorm.DB
	participants repository.ParticipantRepository
	accounts     repository.AccountRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	settings     repository.SettingRepository

	ledger     LedgerService
	engine     TransactionService
	settlement SettlementService
	forecast   ForecastService
	exporter   ExportService
	admin      AdminService
}

// newTestEnv wires the full service stack against a throwaway sqlite file,
// migrated and with the break sentinel seeded, the way main does it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)

	// Single writer, as in production sqlite setups.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.AutoMigrate(db))

	env := &testEnv{
		db:           db,
		participants: repository.NewParticipantRepo(db),
		accounts:     repository.NewAccountRepo(db),
		products:     repository.NewProductRepo(db),
		transactions: repository.NewTransactionRepo(db),
		settings:     repository.NewSettingRepo(db),
	}
	require.NoError(t, env.participants.EnsureSentinel())

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	env.ledger = NewLedgerService(db, env.participants, env.accounts, env.products, env.transactions)
	env.engine = NewTransactionService(db, env.participants, env.accounts, env.products)
	env.settlement = NewSettlementService(env.participants, env.accounts)
	env.forecast = NewForecastService(env.participants, env.transactions, env.settings)
	env.exporter = NewExportService(db)
	env.admin = NewAdminService(db, env.participants, env.products, env.exporter,
		string(hash), "test-secret", time.Minute)
	return env
}

func (env *testEnv) mustParticipant(t *testing.T, name, code string, depositCents int64) *model.Participant {
	t.Helper()
	p, err := env.ledger.CreateParticipant(CreateParticipantRequest{
		Name:                name,
		Code:                code,
		InitialDepositCents: depositCents,
	})
	require.NoError(t, err)
	return p
}

func (env *testEnv) mustProduct(t *testing.T, description, code string, priceCents int64) *model.Product {
	t.Helper()
	p, err := env.ledger.CreateProduct(CreateProductRequest{
		Description: description,
		Code:        code,
		PriceCents:  priceCents,
	})
	require.NoError(t, err)
	return p
}

func (env *testEnv) mustLogin(t *testing.T) string {
	t.Helper()
	confirmToken, err := env.admin.Login(testAdminPassword)
	require.NoError(t, err)
	return confirmToken
}

// backdate moves a transaction's booking time, for tests that need history
// spread over several days.
func (env *testEnv) backdate(t *testing.T, txn *model.Transaction, to time.Time) {
	t.Helper()
	err := env.db.Model(&model.Transaction{}).
		Where("id = ?", txn.ID).
		Update("created_at", to).Error
	require.NoError(t, err)
}
