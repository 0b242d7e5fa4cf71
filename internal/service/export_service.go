package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"campbank/internal/model"
	"campbank/pkg/money"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Snapshot is a full, ordered dump of the ledger: parents before children,
// so replaying it row by row reconstructs the exact state.
type Snapshot struct {
	TakenAt      time.Time            `json:"taken_at"`
	Participants []model.Participant  `json:"participants"`
	Products     []model.Product      `json:"products"`
	Accounts     []model.Account      `json:"accounts"`
	Aliases      []model.ProductAlias `json:"aliases"`
	Transactions []model.Transaction  `json:"transactions"`
	Settings     []model.Setting      `json:"settings"`
}

// ExportService produces backups and reports for external consumers.
// Read-only; the only caller that pairs it with writes is the ledger reset,
// which snapshots before wiping.
type ExportService interface {
	BuildSnapshot() (*Snapshot, error)
	WriteXLSX(snapshot *Snapshot, w io.Writer) error
	WriteTransactionsCSV(snapshot *Snapshot, w io.Writer) error
}

type exportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) ExportService {
	return &exportService{db: db}
}

// BuildSnapshot reads every table in dependency order. Soft-deleted products
// are included: without them historical transactions would lose their
// references on restore.
func (s *exportService) BuildSnapshot() (*Snapshot, error) {
	snapshot := &Snapshot{TakenAt: time.Now()}

	if err := s.db.Order("created_at ASC").Find(&snapshot.Participants).Error; err != nil {
		return nil, fmt.Errorf("dump participants: %w", err)
	}
	if err := s.db.Unscoped().Order("created_at ASC").Find(&snapshot.Products).Error; err != nil {
		return nil, fmt.Errorf("dump products: %w", err)
	}
	if err := s.db.Order("opened_at ASC").Find(&snapshot.Accounts).Error; err != nil {
		return nil, fmt.Errorf("dump accounts: %w", err)
	}
	if err := s.db.Order("created_at ASC").Find(&snapshot.Aliases).Error; err != nil {
		return nil, fmt.Errorf("dump aliases: %w", err)
	}
	if err := s.db.Order("created_at ASC, id ASC").Find(&snapshot.Transactions).Error; err != nil {
		return nil, fmt.Errorf("dump transactions: %w", err)
	}
	if err := s.db.Order("key ASC").Find(&snapshot.Settings).Error; err != nil {
		return nil, fmt.Errorf("dump settings: %w", err)
	}
	return snapshot, nil
}

// WriteXLSX renders the snapshot as a workbook with one sheet per table.
func (s *exportService) WriteXLSX(snapshot *Snapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	writeSheet(f, "Participants", []string{"ID", "Name", "Code"}, len(snapshot.Participants), func(i int) []interface{} {
		p := snapshot.Participants[i]
		return []interface{}{p.ID.String(), p.Name, p.Code}
	})
	writeSheet(f, "Products", []string{"ID", "Description", "Code", "Price", "Sold", "Deleted"}, len(snapshot.Products), func(i int) []interface{} {
		p := snapshot.Products[i]
		return []interface{}{p.ID.String(), p.Description, p.Code, money.Format(p.PriceCents), p.SoldCount, p.DeletedAt.Valid}
	})
	writeSheet(f, "Accounts", []string{"ID", "ParticipantID", "InitialDeposit", "Balance", "OpenedAt", "CheckedOut"}, len(snapshot.Accounts), func(i int) []interface{} {
		a := snapshot.Accounts[i]
		return []interface{}{a.ID.String(), a.ParticipantID.String(), money.Format(a.InitialDepositCents), money.Format(a.BalanceCents), a.OpenedAt.Format(time.RFC3339), a.CheckedOut}
	})
	writeSheet(f, "Aliases", []string{"ID", "ProductID", "Code"}, len(snapshot.Aliases), func(i int) []interface{} {
		a := snapshot.Aliases[i]
		return []interface{}{a.ID.String(), a.ProductID.String(), a.Code}
	})
	writeSheet(f, "Transactions", []string{"ID", "AccountID", "ProductID", "Kind", "Quantity", "Amount", "CreatedAt"}, len(snapshot.Transactions), func(i int) []interface{} {
		t := snapshot.Transactions[i]
		productID := ""
		if t.ProductID != nil {
			productID = t.ProductID.String()
		}
		return []interface{}{t.ID.String(), t.AccountID.String(), productID, string(t.Kind), t.Quantity, money.Format(t.AmountCents), t.CreatedAt.Format(time.RFC3339)}
	})
	writeSheet(f, "Settings", []string{"Key", "Value"}, len(snapshot.Settings), func(i int) []interface{} {
		st := snapshot.Settings[i]
		return []interface{}{st.Key, st.Value}
	})

	// drop the default sheet excelize creates
	f.DeleteSheet("Sheet1")

	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, header []string, rows int, row func(i int) []interface{}) {
	f.NewSheet(name)
	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for i := 0; i < rows; i++ {
		for col, v := range row(i) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(name, cell, v)
		}
	}
}

// WriteTransactionsCSV writes the journal oldest first for spreadsheet use.
func (s *exportService) WriteTransactionsCSV(snapshot *Snapshot, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "account_id", "product_id", "kind", "quantity", "amount", "created_at"}); err != nil {
		return err
	}
	for _, t := range snapshot.Transactions {
		productID := ""
		if t.ProductID != nil {
			productID = t.ProductID.String()
		}
		record := []string{
			t.ID.String(),
			t.AccountID.String(),
			productID,
			string(t.Kind),
			fmt.Sprintf("%d", t.Quantity),
			money.Format(t.AmountCents),
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
