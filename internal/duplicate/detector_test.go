package duplicate

import (
	"context"
	"testing"
	"time"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

type mockStore struct {
	findByFingerprintFunc func(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error)
	findByBillDetailsFunc func(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error)
}

func (m *mockStore) FindByFingerprint(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error) {
	if m.findByFingerprintFunc != nil {
		return m.findByFingerprintFunc(ctx, claimantID, fingerprint, excludeClaimID)
	}
	return nil, nil
}

func (m *mockStore) FindByBillDetails(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
	if m.findByBillDetailsFunc != nil {
		return m.findByBillDetailsFunc(ctx, claimantID, billNumber, vendor, billDate, excludeClaimID)
	}
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func TestDetector_CheckExactMatch(t *testing.T) {
	prior := &entity.Claim{ID: 7, ClaimNumber: "EXP-20260801-AB12CD", Status: entity.ClaimStatusSubmitted}
	store := &mockStore{
		findByFingerprintFunc: func(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error) {
			return prior, nil
		},
	}
	d := NewDetector(store, nopLogger{})

	v, err := d.Check(context.Background(), Input{FileBytes: []byte("receipt bytes"), ClaimantID: 1})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Kind != KindExact || !v.ShouldBlock || !v.IsDuplicate {
		t.Errorf("verdict = %+v, want blocking exact match", v)
	}
	if v.Matched != prior {
		t.Error("verdict did not carry the matched claim")
	}
	if v.Message == "" {
		t.Error("blocking verdict missing explanation")
	}
}

func TestDetector_CheckExactPrecedesMetadata(t *testing.T) {
	metadataCalled := false
	store := &mockStore{
		findByFingerprintFunc: func(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error) {
			return &entity.Claim{ID: 7, ClaimNumber: "EXP-20260801-AB12CD"}, nil
		},
		findByBillDetailsFunc: func(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
			metadataCalled = true
			return &entity.Claim{ID: 8}, nil
		},
	}
	d := NewDetector(store, nopLogger{})

	v, err := d.Check(context.Background(), Input{
		FileBytes:  []byte("receipt bytes"),
		BillNumber: "INV-100",
		Vendor:     "City Cabs",
		ClaimantID: 1,
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Kind != KindExact {
		t.Errorf("Kind = %v, want exact", v.Kind)
	}
	if metadataCalled {
		t.Error("metadata check ran despite an exact match")
	}
}

func TestDetector_CheckMetadataMatch(t *testing.T) {
	prior := &entity.Claim{ID: 9, ClaimNumber: "EXP-20260802-99FFAA", Status: entity.ClaimStatusApproved}
	store := &mockStore{
		findByBillDetailsFunc: func(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
			return prior, nil
		},
	}
	d := NewDetector(store, nopLogger{})

	v, err := d.Check(context.Background(), Input{
		FileBytes:  []byte("different bytes"),
		BillNumber: "INV-100",
		Vendor:     "City Cabs",
		ClaimantID: 1,
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Kind != KindSuspected || v.ShouldBlock {
		t.Errorf("verdict = %+v, want non-blocking suspected match", v)
	}
}

func TestDetector_CheckMetadataSkippedWithoutBothFields(t *testing.T) {
	store := &mockStore{
		findByBillDetailsFunc: func(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
			t.Error("metadata check ran without both bill number and vendor")
			return nil, nil
		},
	}
	d := NewDetector(store, nopLogger{})

	v, err := d.Check(context.Background(), Input{
		FileBytes:  []byte("receipt bytes"),
		BillNumber: "INV-100",
		ClaimantID: 1,
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Kind != KindNone || v.IsDuplicate {
		t.Errorf("verdict = %+v, want clean", v)
	}
	if v.Fingerprint == "" {
		t.Error("clean verdict missing fingerprint")
	}
}

func TestDetector_CheckUnreadableFile(t *testing.T) {
	d := NewDetector(&mockStore{}, nopLogger{})

	v, err := d.Check(context.Background(), Input{FileBytes: nil, ClaimantID: 1})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.IsDuplicate || v.ShouldBlock {
		t.Errorf("verdict = %+v, want non-blocking", v)
	}
	if !v.Unverified {
		t.Error("unreadable file not marked unverified")
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a, err := Fingerprint([]byte("same content"))
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	b, _ := Fingerprint([]byte("same content"))
	c, _ := Fingerprint([]byte("other content"))
	if a != b {
		t.Error("identical content produced different fingerprints")
	}
	if a == c {
		t.Error("distinct content produced the same fingerprint")
	}
}
