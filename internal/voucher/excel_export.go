package voucher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// ExcelExporter writes approved claims into payment voucher workbooks.
type ExcelExporter struct {
	outputDir   string
	companyName string
	logger      *zap.Logger
}

// NewExcelExporter creates a new voucher exporter
func NewExcelExporter(outputDir, companyName string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		outputDir:   outputDir,
		companyName: companyName,
		logger:      logger,
	}
}

// Export writes a voucher for an approved claim and returns the file
// path. Only approved claims carry a payable amount.
func (e *ExcelExporter) Export(claim *entity.Claim, claimant *entity.Claimant) (string, error) {
	if claim.Status != entity.ClaimStatusApproved {
		return "", fmt.Errorf("claim %s is not approved", claim.ClaimNumber)
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Voucher"
	f.SetSheetName("Sheet1", sheet)

	e.setCell(f, sheet, "A1", e.companyName)
	e.setCell(f, sheet, "A2", "Expense Reimbursement Voucher")
	e.setCell(f, sheet, "A4", "Claim Number")
	e.setCell(f, sheet, "B4", claim.ClaimNumber)
	e.setCell(f, sheet, "A5", "Employee")
	e.setCell(f, sheet, "B5", fmt.Sprintf("%s (%s)", claimant.Name, claimant.EmployeeID))
	e.setCell(f, sheet, "A6", "Department")
	e.setCell(f, sheet, "B6", claimant.Department)
	e.setCell(f, sheet, "A7", "Category")
	e.setCell(f, sheet, "B7", claim.Category)
	e.setCell(f, sheet, "A8", "Expense Date")
	e.setCell(f, sheet, "B8", claim.ExpenseDate.Format("2006-01-02"))
	if claim.ApprovedAt != nil {
		e.setCell(f, sheet, "A9", "Approved On")
		e.setCell(f, sheet, "B9", claim.ApprovedAt.Format("2006-01-02"))
	}

	row := 11
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Description")
	e.setCell(f, sheet, fmt.Sprintf("B%d", row), "Bill Number")
	e.setCell(f, sheet, fmt.Sprintf("C%d", row), "Vendor")
	e.setCell(f, sheet, fmt.Sprintf("D%d", row), "Amount (₹)")
	row++

	if len(claim.Bills) > 0 {
		for _, bill := range claim.Bills {
			e.setCell(f, sheet, fmt.Sprintf("A%d", row), bill.Description)
			e.setCell(f, sheet, fmt.Sprintf("B%d", row), bill.BillNumber)
			e.setCell(f, sheet, fmt.Sprintf("C%d", row), bill.Vendor)
			e.setCell(f, sheet, fmt.Sprintf("D%d", row), rupees(bill.AmountPaise))
			row++
		}
	} else {
		desc := claim.Description
		if claim.IsSelfDeclared() {
			desc = fmt.Sprintf("Self-declared (%s): %s", claim.Declaration.ReasonCode, claim.Description)
		}
		e.setCell(f, sheet, fmt.Sprintf("A%d", row), desc)
		e.setCell(f, sheet, fmt.Sprintf("D%d", row), rupees(claim.AmountPaise))
		row++
	}

	row++
	e.setCell(f, sheet, fmt.Sprintf("A%d", row), "Total Payable")
	e.setCell(f, sheet, fmt.Sprintf("D%d", row), rupees(claim.AmountPaise))

	fileName := fmt.Sprintf("voucher_%s_%s.xlsx", claim.ClaimNumber, time.Now().Format("20060102150405"))
	outputPath := filepath.Join(e.outputDir, fileName)
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save voucher: %w", err)
	}

	e.logger.Info("Voucher exported",
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("path", outputPath))
	return outputPath, nil
}

func (e *ExcelExporter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func rupees(paise int64) string {
	return fmt.Sprintf("%.2f", float64(paise)/100)
}
