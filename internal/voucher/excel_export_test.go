package voucher

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

func testClaimant() *entity.Claimant {
	return &entity.Claimant{
		ID:         1,
		EmployeeID: "EMP1001",
		Name:       "Asha Nair",
		Department: "Engineering",
		Grade:      entity.GradeB,
	}
}

func TestExportApprovedClaim(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExcelExporter(dir, "Priyam Technologies", zap.NewNop())

	approvedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	claim := &entity.Claim{
		ID:          42,
		ClaimNumber: "EXP-20260308-A1B2C3",
		Category:    entity.CategoryFood,
		AmountPaise: 45000,
		Description: "client lunch",
		Status:      entity.ClaimStatusApproved,
		ApprovedAt:  &approvedAt,
		ExpenseDate: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		Bills: []entity.Bill{
			{Description: "client lunch", BillNumber: "INV-88", Vendor: "Cafe Azul", AmountPaise: 45000},
		},
	}

	path, err := exporter.Export(claim, testClaimant())
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	num, err := f.GetCellValue("Voucher", "B4")
	require.NoError(t, err)
	assert.Equal(t, "EXP-20260308-A1B2C3", num)

	vendor, err := f.GetCellValue("Voucher", "C12")
	require.NoError(t, err)
	assert.Equal(t, "Cafe Azul", vendor)

	total, err := f.GetCellValue("Voucher", "D14")
	require.NoError(t, err)
	assert.Equal(t, "450.00", total)
}

func TestExportSelfDeclaredClaim(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExcelExporter(dir, "Priyam Technologies", zap.NewNop())

	approvedAt := time.Now()
	claim := &entity.Claim{
		ID:           7,
		ClaimNumber:  "EXP-20260401-FFEE01",
		Category:     entity.CategoryTravel,
		AmountPaise:  20000,
		Description:  "auto from station to office, no receipt issued by driver",
		EvidenceKind: entity.EvidenceSelfDeclaration,
		Declaration:  &entity.Declaration{ReasonCode: entity.ReasonAutoParking},
		Status:       entity.ClaimStatusApproved,
		ApprovedAt:   &approvedAt,
		ExpenseDate:  time.Now(),
	}

	path, err := exporter.Export(claim, testClaimant())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	desc, err := f.GetCellValue("Voucher", "A12")
	require.NoError(t, err)
	assert.Contains(t, desc, "Self-declared")
	assert.Contains(t, desc, entity.ReasonAutoParking)
}

func TestExportRefusesUnapproved(t *testing.T) {
	exporter := NewExcelExporter(t.TempDir(), "Priyam Technologies", zap.NewNop())

	claim := &entity.Claim{
		ClaimNumber: "EXP-20260401-000001",
		Status:      entity.ClaimStatusSubmitted,
		ExpenseDate: time.Now(),
	}

	_, err := exporter.Export(claim, testClaimant())
	assert.Error(t, err)
}
