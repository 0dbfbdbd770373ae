package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

type approvalFixture struct {
	claimRepo    *mockClaimRepo
	approvalRepo *mockApprovalRepo
	claimantRepo *mockClaimantRepo
	auditRepo    *mockAuditRepo
	classifier   *mockClassifier
	notifier     *mockNotifier
	svc          ApprovalService
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		claimRepo:    &mockClaimRepo{},
		approvalRepo: &mockApprovalRepo{},
		claimantRepo: &mockClaimantRepo{},
		auditRepo:    &mockAuditRepo{},
		classifier:   &mockClassifier{},
		notifier:     &mockNotifier{},
	}
	f.svc = NewApprovalService(
		f.claimRepo,
		f.approvalRepo,
		f.claimantRepo,
		f.auditRepo,
		&mockTxManager{},
		f.classifier,
		f.notifier,
		nopLogger{},
	)
	return f
}

func (f *approvalFixture) withClaim(status, level string) {
	f.claimRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Claim, error) {
		return &entity.Claim{
			ID: id, ClaimNumber: "EXP-20260810-AB12CD", ClaimantID: 1,
			Category: entity.CategoryFood, AmountPaise: 30000,
			Status: status, CurrentLevel: level,
		}, nil
	}
}

func (f *approvalFixture) withReviewer(role string) {
	f.claimantRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Claimant, error) {
		return &entity.Claimant{ID: id, Name: "Reviewer", Role: role, Grade: entity.GradeC, IsActive: true}, nil
	}
}

func (f *approvalFixture) withFinanceUsers(n int) {
	f.claimantRepo.listActiveByRoleFunc = func(ctx context.Context, role string) ([]*entity.Claimant, error) {
		if role != entity.RoleFinance {
			return []*entity.Claimant{}, nil
		}
		users := make([]*entity.Claimant, n)
		for i := range users {
			users[i] = &entity.Claimant{ID: int64(100 + i), Role: entity.RoleFinance, IsActive: true}
		}
		return users, nil
	}
}

func TestApprove_ManagerAdvancesToFinance(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelManager)
	f.withReviewer(entity.RoleManager)
	f.withFinanceUsers(2)

	var writes []string
	f.approvalRepo.decidePendingFunc = func(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error) {
		writes = append(writes, "decide:"+level+":"+status)
		return true, nil
	}
	f.approvalRepo.createFunc = func(ctx context.Context, record *entity.ApprovalRecord) error {
		writes = append(writes, "create:"+record.Level+":"+record.Status)
		return nil
	}
	f.claimRepo.advanceLevelFunc = func(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error) {
		writes = append(writes, "advance:"+fromLevel+">"+toLevel)
		return true, nil
	}

	claim, err := f.svc.Approve(context.Background(), 3, 9, "looks fine")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if claim.CurrentLevel != entity.LevelFinance {
		t.Errorf("CurrentLevel = %s, want FINANCE", claim.CurrentLevel)
	}

	// The pending FINANCE record must exist before the level change.
	want := []string{"decide:MANAGER:APPROVED", "create:FINANCE:PENDING", "advance:MANAGER>FINANCE"}
	if len(writes) != len(want) {
		t.Fatalf("writes = %v, want %v", writes, want)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Fatalf("writes = %v, want %v", writes, want)
		}
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].Kind != entity.EventClaimAdvanced {
		t.Errorf("events = %+v, want one CLAIM_ADVANCED", f.notifier.events)
	}
	if f.notifier.events[0].Comments != "looks fine" {
		t.Error("manager comments not carried into the finance notification")
	}
}

func TestApprove_NoFinanceUserFinalizesDirectly(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelManager)
	f.withReviewer(entity.RoleManager)
	f.withFinanceUsers(0)

	finalized := false
	f.claimRepo.finalizeFunc = func(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error) {
		finalized = status == entity.ClaimStatusApproved
		return true, nil
	}
	f.claimRepo.advanceLevelFunc = func(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error) {
		t.Error("claim advanced to FINANCE with no finance users")
		return true, nil
	}

	claim, err := f.svc.Approve(context.Background(), 3, 9, "")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !finalized || claim.Status != entity.ClaimStatusApproved {
		t.Errorf("claim = %s, want approved via the degenerate path", claim.Status)
	}
	if claim.ApprovedAt == nil || claim.CurrentLevel != "" {
		t.Error("approved claim must carry approved_at and clear its level")
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Kind != entity.EventClaimApproved {
		t.Errorf("events = %+v, want one CLAIM_APPROVED", f.notifier.events)
	}
}

func TestApprove_FinanceApprovesFinal(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelFinance)
	f.withReviewer(entity.RoleFinance)
	f.withFinanceUsers(1)

	claim, err := f.svc.Approve(context.Background(), 3, 101, "verified totals")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if claim.Status != entity.ClaimStatusApproved {
		t.Errorf("Status = %s, want approved", claim.Status)
	}
}

func TestApprove_RaceLoserGetsNoPendingError(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelManager)
	f.withReviewer(entity.RoleManager)
	f.withFinanceUsers(1)
	f.approvalRepo.decidePendingFunc = func(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error) {
		return false, nil // another reviewer already consumed the slot
	}

	_, err := f.svc.Approve(context.Background(), 3, 9, "")
	if !errors.Is(err, ErrNoPendingApproval) {
		t.Fatalf("error = %v, want ErrNoPendingApproval", err)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("loser dispatched notifications: %+v", f.notifier.events)
	}
}

func TestApprove_TerminalClaimFailsClosed(t *testing.T) {
	for _, status := range []string{entity.ClaimStatusApproved, entity.ClaimStatusRejected} {
		f := newApprovalFixture()
		f.withClaim(status, "")
		f.withReviewer(entity.RoleManager)

		decided := false
		f.approvalRepo.decidePendingFunc = func(ctx context.Context, claimID int64, level, s string, deciderID int64, comments string, at time.Time) (bool, error) {
			decided = true
			return true, nil
		}

		_, err := f.svc.Approve(context.Background(), 3, 9, "")
		if !errors.Is(err, ErrClaimFinalized) {
			t.Fatalf("error = %v, want ErrClaimFinalized for %s claim", err, status)
		}
		if decided || len(f.notifier.events) != 0 {
			t.Error("terminal claim was mutated or notified")
		}
	}
}

func TestApprove_WrongRoleRefused(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelFinance)
	f.withReviewer(entity.RoleManager) // manager cannot decide at FINANCE

	_, err := f.svc.Approve(context.Background(), 3, 9, "")
	if !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("error = %v, want ErrNotPermitted", err)
	}
}

func TestReject_UsesGeneratedReason(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelManager)
	f.withReviewer(entity.RoleManager)
	f.classifier.reasonFunc = func(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error) {
		return "Amount not supported by the attached bill.", nil
	}

	var gotReason string
	f.claimRepo.finalizeFunc = func(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error) {
		gotReason = rejectionReason
		return true, nil
	}

	claim, err := f.svc.Reject(context.Background(), 3, 9, "mismatch")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if claim.Status != entity.ClaimStatusRejected || claim.RejectedAt == nil || claim.RejectedBy == nil {
		t.Errorf("rejected claim = %+v, missing terminal fields", claim)
	}
	if gotReason != "Amount not supported by the attached bill." {
		t.Errorf("reason = %q, want the generated one", gotReason)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Kind != entity.EventClaimRejected {
		t.Errorf("events = %+v, want one CLAIM_REJECTED", f.notifier.events)
	}
}

func TestReject_FallbackReasonOnClassifierFailure(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusSubmitted, entity.LevelFinance)
	f.withReviewer(entity.RoleFinance)
	f.classifier.reasonFunc = func(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error) {
		return "", errors.New("model unavailable")
	}

	var gotReason string
	f.claimRepo.finalizeFunc = func(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error) {
		gotReason = rejectionReason
		return true, nil
	}

	if _, err := f.svc.Reject(context.Background(), 3, 101, "totals do not add up"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if gotReason != "Rejected by FINANCE: totals do not add up" {
		t.Errorf("reason = %q, want templated fallback", gotReason)
	}
}

func TestListPending_ByReviewerLevel(t *testing.T) {
	f := newApprovalFixture()
	f.withReviewer(entity.RoleFinance)

	var gotLevel string
	f.claimRepo.listPendingAtLevelFunc = func(ctx context.Context, level string, limit, offset int) ([]*entity.Claim, error) {
		gotLevel = level
		return []*entity.Claim{{ID: 1}}, nil
	}

	claims, err := f.svc.ListPending(context.Background(), 101, 20, 0)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if gotLevel != entity.LevelFinance || len(claims) != 1 {
		t.Errorf("listed level %s with %d claims, want FINANCE with 1", gotLevel, len(claims))
	}

	f.withReviewer(entity.RoleEmployee)
	if _, err := f.svc.ListPending(context.Background(), 1, 20, 0); !errors.Is(err, ErrNotPermitted) {
		t.Errorf("error = %v, want ErrNotPermitted for plain employees", err)
	}
}

func TestAuditTrail(t *testing.T) {
	f := newApprovalFixture()
	f.withClaim(entity.ClaimStatusApproved, "")
	f.auditRepo.logs = []*entity.AuditLog{
		{ID: 1, ClaimID: 3, Action: "claim.submitted"},
		{ID: 2, ClaimID: 3, Action: "approval.approve"},
	}

	logs, err := f.svc.AuditTrail(context.Background(), 3)
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "claim.submitted" {
		t.Errorf("logs = %+v, want the full trail in order", logs)
	}

	f.claimRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Claim, error) {
		return nil, nil
	}
	if _, err := f.svc.AuditTrail(context.Background(), 99); !errors.Is(err, ErrClaimNotFound) {
		t.Errorf("error = %v, want ErrClaimNotFound", err)
	}
}
