package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"campbank/internal/config"
	"campbank/internal/model"
	"campbank/internal/repository"
	"campbank/internal/scanner"
	"campbank/internal/service"
	"campbank/pkg/database"
	"campbank/pkg/money"

	"github.com/joho/godotenv"
)

// How many product scans one participant session accepts before the loop
// returns to waiting for the next participant badge.
const productsPerSession = 6

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	// 2. Load Config
	cfg, err := config.Load(os.Getenv("CAMPBANK_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 3. Setup Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 4. Dependency Injection (Wiring Layers)
	participantRepo := repository.NewParticipantRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	productRepo := repository.NewProductRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)
	settingRepo := repository.NewSettingRepo(db)

	// 5. Seed the break sentinel
	if err := participantRepo.EnsureSentinel(); err != nil {
		log.Fatalf("Failed to seed break sentinel: %v", err)
	}

	exportService := service.NewExportService(db)
	a := &app{
		ledger:      service.NewLedgerService(db, participantRepo, accountRepo, productRepo, transactionRepo),
		engine:      service.NewTransactionService(db, participantRepo, accountRepo, productRepo),
		settlement:  service.NewSettlementService(participantRepo, accountRepo),
		forecast:    service.NewForecastService(participantRepo, transactionRepo, settingRepo),
		exporter:    exportService,
		admin: service.NewAdminService(
			db, participantRepo, productRepo, exportService,
			cfg.Admin.PasswordHash, cfg.Admin.TokenSecret,
			time.Duration(cfg.Admin.TokenTTLMinutes)*time.Minute,
		),
		resolver:  scanner.NewStoreResolver(participantRepo, productRepo),
		exportDir: cfg.Export.Dir,
		out:       os.Stdout,
	}

	// 6. Scan Loop
	log.Println("campbank ready, waiting for scans ('/help' for commands, Ctrl+D to quit)")
	a.run(bufio.NewScanner(os.Stdin))
}

// app bundles the wired services behind the interactive loop. Lines starting
// with "/" are operator commands; everything else is treated as a scanner
// code.
type app struct {
	ledger     service.LedgerService
	engine     service.TransactionService
	settlement service.SettlementService
	forecast   service.ForecastService
	exporter   service.ExportService
	admin      service.AdminService
	resolver   scanner.Resolver
	exportDir  string
	out        *os.File

	// confirmToken is set by /login and consumed by destructive commands.
	confirmToken string
}

func (a *app) run(lines *bufio.Scanner) {
	for {
		line, ok := a.nextLine(lines)
		if !ok {
			return
		}
		if strings.HasPrefix(line, "/") {
			a.dispatch(line)
			continue
		}
		res, err := a.resolver.Resolve(line)
		if err != nil {
			a.printf("Lookup failed: %v\n", err)
			continue
		}
		switch res.Kind {
		case scanner.KindParticipant:
			a.runSession(lines, res.Participant)
		case scanner.KindProduct:
			a.printf("Scan a participant first (got product %q)\n", res.Product.Description)
		case scanner.KindBreak:
			// Nothing to abort outside a session.
		case scanner.KindUnknown:
			a.printf("Unknown code %q\n", line)
		}
	}
}

// runSession books purchases for one participant until the scan allowance
// is used up, a Break badge closes the till, or another participant badge
// hands the session over.
func (a *app) runSession(lines *bufio.Scanner, participant *model.Participant) {
	a.printf("Session: %s\n", participant.Name)
	for scans := 0; scans < productsPerSession; scans++ {
		line, ok := a.nextLine(lines)
		if !ok {
			return
		}
		if strings.HasPrefix(line, "/") {
			a.dispatch(line)
			scans--
			continue
		}
		res, err := a.resolver.Resolve(line)
		if err != nil {
			a.printf("Lookup failed: %v\n", err)
			continue
		}
		switch res.Kind {
		case scanner.KindBreak:
			a.printf("Session closed\n")
			return
		case scanner.KindParticipant:
			a.printf("Session closed, new session: %s\n", res.Participant.Name)
			participant = res.Participant
			scans = -1
			continue
		case scanner.KindUnknown:
			a.printf("Unknown code %q\n", line)
			continue
		}

		if _, err := a.engine.Purchase(participant.Code, res.Product.Code, 1); err != nil {
			if errors.Is(err, service.ErrAlreadyCheckedOut) {
				a.printf("%s is checked out\n", participant.Name)
				return
			}
			a.printf("Purchase failed: %v\n", err)
			continue
		}
		balance, err := a.ledger.Balance(participant.Name)
		if err != nil {
			a.printf("Bought %s\n", res.Product.Description)
			continue
		}
		a.printf("Bought %s for %s, balance %s\n",
			res.Product.Description, money.Format(res.Product.PriceCents), money.Format(balance))
	}
	a.printf("Session closed\n")
}

func (a *app) dispatch(line string) {
	args := strings.Fields(line)
	cmd, args := args[0], args[1:]
	var err error
	switch cmd {
	case "/help":
		a.printHelp()
	case "/participant":
		err = a.cmdNewParticipant(args)
	case "/rename":
		err = a.cmdRename(args)
	case "/product":
		err = a.cmdNewProduct(args)
	case "/alias":
		err = a.cmdAlias(args)
	case "/price":
		err = a.cmdPrice(args)
	case "/deposit":
		err = a.cmdAdjust(args, a.engine.Deposit)
	case "/withdraw":
		err = a.cmdAdjust(args, a.engine.Withdraw)
	case "/balance":
		err = a.cmdBalance(args)
	case "/participants":
		err = a.cmdParticipants()
	case "/products":
		err = a.cmdProducts()
	case "/history":
		err = a.cmdHistory(args)
	case "/payout":
		err = a.cmdPayout(args)
	case "/checkout":
		err = a.cmdCheckout(args)
	case "/cashplan":
		err = a.cmdCashPlan()
	case "/forecast":
		err = a.cmdForecast(args)
	case "/window":
		err = a.cmdWindow(args)
	case "/stats":
		err = a.cmdStats()
	case "/export":
		err = a.cmdExport()
	case "/login":
		err = a.cmdLogin(args)
	case "/delete-participant":
		err = a.cmdDeleteParticipant(args)
	case "/delete-product":
		err = a.cmdDeleteProduct(args)
	case "/reset":
		err = a.cmdReset()
	default:
		a.printf("Unknown command %s, try /help\n", cmd)
	}
	if err != nil {
		a.printf("%s: %v\n", strings.TrimPrefix(cmd, "/"), err)
	}
}

func (a *app) printHelp() {
	a.printf(`Scan a participant code, then product codes. Commands:
  /participant <name> <code> <deposit>    open a wallet
  /rename <name> <new-name> <new-code>    relabel a participant
  /product <code> <price> <description>   register a product
  /alias <code> <alias-code>              add a second code to a product
  /price <code> <price>                   change a price
  /deposit <name> <amount>                pay cash in
  /withdraw <name> <amount>               pay cash out
  /balance <name>                         show balance
  /participants                           list wallets (checked-out marked)
  /products                               list products
  /history <name>                         show transactions
  /payout <name>                          preview the cash to hand back
  /checkout <name>                        settle and close wallet
  /cashplan                               drawer breakdown over all wallets
  /forecast <name>                        spend projection
  /window <yyyy-mm-dd> <days>             set event window
  /stats                                  sales per product
  /export                                 write xlsx + csv snapshot
  /login <password>                       get confirmation token
  /delete-participant <name>              (needs /login)
  /delete-product <code>                  (needs /login)
  /reset                                  wipe everything (needs /login)
`)
}

func (a *app) cmdNewParticipant(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: /participant <name> <code> <deposit>")
	}
	deposit, err := money.Parse(args[2])
	if err != nil {
		return err
	}
	p, err := a.ledger.CreateParticipant(service.CreateParticipantRequest{
		Name:                args[0],
		Code:                args[1],
		InitialDepositCents: deposit,
	})
	if err != nil {
		return err
	}
	a.printf("Wallet opened for %s with %s\n", p.Name, money.Format(deposit))
	return nil
}

func (a *app) cmdRename(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: /rename <name> <new-name> <new-code>")
	}
	p, err := a.ledger.UpdateParticipant(args[0], service.UpdateParticipantRequest{
		Name: args[1],
		Code: args[2],
	})
	if err != nil {
		return err
	}
	a.printf("Now %s with code %s\n", p.Name, p.Code)
	return nil
}

func (a *app) cmdNewProduct(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: /product <code> <price> <description>")
	}
	price, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	p, err := a.ledger.CreateProduct(service.CreateProductRequest{
		Code:        args[0],
		PriceCents:  price,
		Description: strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	a.printf("Product %s at %s\n", p.Description, money.Format(p.PriceCents))
	return nil
}

func (a *app) cmdAlias(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /alias <code> <alias-code>")
	}
	product, err := a.ledger.ProductByCode(args[0])
	if err != nil {
		return err
	}
	if _, err := a.ledger.AddProductAlias(product.ID, args[1]); err != nil {
		return err
	}
	a.printf("%s also answers to %s\n", product.Description, args[1])
	return nil
}

func (a *app) cmdPrice(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /price <code> <price>")
	}
	price, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	p, err := a.ledger.UpdateProductPrice(args[0], price)
	if err != nil {
		return err
	}
	a.printf("%s now costs %s\n", p.Description, money.Format(p.PriceCents))
	return nil
}

func (a *app) cmdAdjust(args []string, op func(string, int64) (*model.Transaction, error)) error {
	if len(args) != 2 {
		return errors.New("usage: <name> <amount>")
	}
	amount, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	if _, err := op(args[0], amount); err != nil {
		return err
	}
	balance, err := a.ledger.Balance(args[0])
	if err != nil {
		return err
	}
	a.printf("Balance of %s: %s\n", args[0], money.Format(balance))
	return nil
}

func (a *app) cmdBalance(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /balance <name>")
	}
	balance, err := a.ledger.Balance(args[0])
	if err != nil {
		return err
	}
	a.printf("Balance of %s: %s\n", args[0], money.Format(balance))
	return nil
}

func (a *app) cmdParticipants() error {
	all, err := a.ledger.Participants()
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.Account == nil {
			a.printf("%-20s %s\n", p.Name, p.Code)
			continue
		}
		mark := ""
		if p.Account.CheckedOut {
			mark = "  [checked out]"
		}
		a.printf("%-20s %-10s %10s%s\n", p.Name, p.Code, money.Format(p.Account.BalanceCents), mark)
	}
	return nil
}

func (a *app) cmdProducts() error {
	products, err := a.ledger.Products()
	if err != nil {
		return err
	}
	for _, p := range products {
		a.printf("%-20s %-10s %10s  sold %d\n", p.Description, p.Code, money.Format(p.PriceCents), p.SoldCount)
	}
	return nil
}

func (a *app) cmdHistory(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /history <name>")
	}
	seq, err := a.ledger.ListTransactions(args[0])
	if err != nil {
		return err
	}
	for txn, err := range seq {
		if err != nil {
			return err
		}
		a.printf("%s  %-10s %3d  %s\n",
			txn.CreatedAt.Format("2006-01-02 15:04"), txn.Kind, txn.Quantity, money.Format(txn.EffectCents()))
	}
	return nil
}

func (a *app) cmdPayout(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /payout <name>")
	}
	payout, err := a.settlement.PayoutPreview(args[0])
	if err != nil {
		return err
	}
	a.printf("%s gets %s: %s\n", payout.Participant, money.Format(payout.BalanceCents), payout.Breakdown)
	return nil
}

func (a *app) cmdCheckout(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /checkout <name>")
	}
	result, err := a.engine.Checkout(args[0])
	if err != nil {
		return err
	}
	a.printf("Checked out %s, pay out %s: %s\n",
		result.Participant, money.Format(result.PaidOutCents), result.Breakdown)
	return nil
}

func (a *app) cmdCashPlan() error {
	plan, err := a.settlement.CashPlan()
	if err != nil {
		return err
	}
	a.printf("Drawer for %d wallets, %s total: %s\n",
		plan.Accounts, money.Format(plan.TotalCents), plan.Breakdown)
	return nil
}

func (a *app) cmdForecast(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /forecast <name>")
	}
	est, err := a.forecast.Estimate(args[0], time.Now())
	if err != nil {
		return err
	}
	a.printf("%s spent %s (%s/day), %d days left, projected end balance %s\n",
		est.Participant, money.Format(est.TotalSpentCents), money.Format(est.AvgDailySpendCents),
		est.RemainingDays, money.Format(est.ProjectedEndCents))
	return nil
}

func (a *app) cmdWindow(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /window <yyyy-mm-dd> <days>")
	}
	firstDay, err := time.Parse(model.SettingDateLayout, args[0])
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	return a.forecast.SetEventWindow(firstDay, days)
}

func (a *app) cmdStats() error {
	stats, err := a.ledger.SalesStats()
	if err != nil {
		return err
	}
	for _, s := range stats {
		a.printf("%4d  %s\n", s.UnitsSold, s.Description)
	}
	return nil
}

func (a *app) cmdExport() error {
	snapshot, err := a.exporter.BuildSnapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
		return err
	}
	stamp := snapshot.TakenAt.Format("2006-01-02_150405")
	if err := a.writeExport(filepath.Join(a.exportDir, "campbank_"+stamp+".xlsx"), snapshot, a.exporter.WriteXLSX); err != nil {
		return err
	}
	if err := a.writeExport(filepath.Join(a.exportDir, "journal_"+stamp+".csv"), snapshot, a.exporter.WriteTransactionsCSV); err != nil {
		return err
	}
	a.printf("Snapshot written to %s\n", a.exportDir)
	return nil
}

func (a *app) writeExport(path string, snapshot *service.Snapshot, write func(*service.Snapshot, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(snapshot, f)
}

func (a *app) cmdLogin(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /login <password>")
	}
	token, err := a.admin.Login(args[0])
	if err != nil {
		return err
	}
	a.confirmToken = token
	a.printf("Confirmed, destructive commands unlocked\n")
	return nil
}

func (a *app) cmdDeleteParticipant(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /delete-participant <name>")
	}
	if err := a.admin.DeleteParticipant(a.confirmToken, args[0]); err != nil {
		return err
	}
	a.printf("Deleted %s, transactions kept\n", args[0])
	return nil
}

func (a *app) cmdDeleteProduct(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /delete-product <code>")
	}
	if err := a.admin.DeleteProduct(a.confirmToken, args[0]); err != nil {
		return err
	}
	a.printf("Retired product %s\n", args[0])
	return nil
}

func (a *app) cmdReset() error {
	snapshot, err := a.admin.Reset(a.confirmToken)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(a.exportDir, "pre_reset_"+snapshot.TakenAt.Format("2006-01-02_150405")+".xlsx")
	if err := a.writeExport(path, snapshot, a.exporter.WriteXLSX); err != nil {
		return err
	}
	a.printf("Ledger wiped, backup at %s\n", path)
	return nil
}

func (a *app) nextLine(lines *bufio.Scanner) (string, bool) {
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
