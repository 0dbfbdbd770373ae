package service

import (
	"context"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// Mock repositories

type mockClaimRepo struct {
	createFunc                func(ctx context.Context, claim *entity.Claim) error
	getByIDFunc               func(ctx context.Context, id int64) (*entity.Claim, error)
	getByClaimNumberFunc      func(ctx context.Context, number string) (*entity.Claim, error)
	updateFunc                func(ctx context.Context, claim *entity.Claim) error
	deleteFunc                func(ctx context.Context, id int64) error
	listByClaimantFunc        func(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error)
	listPendingAtLevelFunc    func(ctx context.Context, level string, limit, offset int) ([]*entity.Claim, error)
	findByFingerprintFunc     func(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error)
	findByBillDetailsFunc     func(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error)
	selfDeclarationUsageFunc  func(ctx context.Context, claimantID int64, from, to time.Time) (int64, int, error)
	advanceLevelFunc          func(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error)
	finalizeFunc              func(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error)
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, claim)
	}
	claim.ID = 1
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockClaimRepo) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	if m.getByClaimNumberFunc != nil {
		return m.getByClaimNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *mockClaimRepo) Update(ctx context.Context, claim *entity.Claim) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, claim)
	}
	return nil
}

func (m *mockClaimRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockClaimRepo) ListByClaimant(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error) {
	if m.listByClaimantFunc != nil {
		return m.listByClaimantFunc(ctx, claimantID, limit, offset)
	}
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListPendingAtLevel(ctx context.Context, level string, limit, offset int) ([]*entity.Claim, error) {
	if m.listPendingAtLevelFunc != nil {
		return m.listPendingAtLevelFunc(ctx, level, limit, offset)
	}
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) FindByFingerprint(ctx context.Context, claimantID int64, fingerprint string, excludeClaimID int64) (*entity.Claim, error) {
	if m.findByFingerprintFunc != nil {
		return m.findByFingerprintFunc(ctx, claimantID, fingerprint, excludeClaimID)
	}
	return nil, nil
}

func (m *mockClaimRepo) FindByBillDetails(ctx context.Context, claimantID int64, billNumber, vendor string, billDate *time.Time, excludeClaimID int64) (*entity.Claim, error) {
	if m.findByBillDetailsFunc != nil {
		return m.findByBillDetailsFunc(ctx, claimantID, billNumber, vendor, billDate, excludeClaimID)
	}
	return nil, nil
}

func (m *mockClaimRepo) SelfDeclarationUsage(ctx context.Context, claimantID int64, from, to time.Time) (int64, int, error) {
	if m.selfDeclarationUsageFunc != nil {
		return m.selfDeclarationUsageFunc(ctx, claimantID, from, to)
	}
	return 0, 0, nil
}

func (m *mockClaimRepo) AdvanceLevel(ctx context.Context, claimID int64, fromLevel, toLevel string) (bool, error) {
	if m.advanceLevelFunc != nil {
		return m.advanceLevelFunc(ctx, claimID, fromLevel, toLevel)
	}
	return true, nil
}

func (m *mockClaimRepo) Finalize(ctx context.Context, claimID int64, status string, rejectedBy *int64, rejectionReason string, at time.Time) (bool, error) {
	if m.finalizeFunc != nil {
		return m.finalizeFunc(ctx, claimID, status, rejectedBy, rejectionReason, at)
	}
	return true, nil
}

type mockApprovalRepo struct {
	createFunc        func(ctx context.Context, record *entity.ApprovalRecord) error
	getByClaimFunc    func(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error)
	decidePendingFunc func(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error)
	hasDecisionFunc   func(ctx context.Context, claimID int64) (bool, error)
}

func (m *mockApprovalRepo) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	record.ID = 1
	return nil
}

func (m *mockApprovalRepo) GetByClaim(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error) {
	if m.getByClaimFunc != nil {
		return m.getByClaimFunc(ctx, claimID)
	}
	return []*entity.ApprovalRecord{}, nil
}

func (m *mockApprovalRepo) DecidePending(ctx context.Context, claimID int64, level, status string, deciderID int64, comments string, at time.Time) (bool, error) {
	if m.decidePendingFunc != nil {
		return m.decidePendingFunc(ctx, claimID, level, status, deciderID, comments, at)
	}
	return true, nil
}

func (m *mockApprovalRepo) HasDecision(ctx context.Context, claimID int64) (bool, error) {
	if m.hasDecisionFunc != nil {
		return m.hasDecisionFunc(ctx, claimID)
	}
	return false, nil
}

type mockClaimantRepo struct {
	getByIDFunc          func(ctx context.Context, id int64) (*entity.Claimant, error)
	getByEmployeeIDFunc  func(ctx context.Context, employeeID string) (*entity.Claimant, error)
	listActiveByRoleFunc func(ctx context.Context, role string) ([]*entity.Claimant, error)
}

func (m *mockClaimantRepo) GetByID(ctx context.Context, id int64) (*entity.Claimant, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Claimant{ID: id, Name: "Test User", Grade: entity.GradeB, Role: entity.RoleEmployee, IsActive: true}, nil
}

func (m *mockClaimantRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Claimant, error) {
	if m.getByEmployeeIDFunc != nil {
		return m.getByEmployeeIDFunc(ctx, employeeID)
	}
	return nil, nil
}

func (m *mockClaimantRepo) ListActiveByRole(ctx context.Context, role string) ([]*entity.Claimant, error) {
	if m.listActiveByRoleFunc != nil {
		return m.listActiveByRoleFunc(ctx, role)
	}
	return []*entity.Claimant{}, nil
}

type mockAuditRepo struct {
	createFunc func(ctx context.Context, log *entity.AuditLog) error
	logs       []*entity.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) ListByClaim(ctx context.Context, claimID int64) ([]*entity.AuditLog, error) {
	return m.logs, nil
}

type mockNotifRepo struct {
	created []*entity.Notification
	sent    []int64
	failed  []int64
}

func (m *mockNotifRepo) Create(ctx context.Context, n *entity.Notification) error {
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotifRepo) MarkSent(ctx context.Context, id int64, at time.Time) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockNotifRepo) MarkFailed(ctx context.Context, id int64) error {
	m.failed = append(m.failed, id)
	return nil
}

func (m *mockNotifRepo) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	return m.created, nil
}

// mockTxManager runs the function directly without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Mock external collaborators

type mockClassifier struct {
	analyzeFunc func(ctx context.Context, fileBytes []byte, fileName, category string, amountPaise int64, grade, description string) (*port.BillAnalysis, error)
	reasonFunc  func(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error)
}

func (m *mockClassifier) Analyze(ctx context.Context, fileBytes []byte, fileName, category string, amountPaise int64, grade, description string) (*port.BillAnalysis, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, fileBytes, fileName, category, amountPaise, grade, description)
	}
	return &port.BillAnalysis{Recommendation: entity.RecommendationApprove, ConfidenceScore: 90}, nil
}

func (m *mockClassifier) GenerateRejectionReason(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error) {
	if m.reasonFunc != nil {
		return m.reasonFunc(ctx, category, amountPaise, level, comments)
	}
	return "", nil
}

type mockDeliverer struct {
	deliverFunc func(ctx context.Context, msg port.Message) error
	delivered   []port.Message
}

func (m *mockDeliverer) Deliver(ctx context.Context, msg port.Message) error {
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, msg)
	}
	m.delivered = append(m.delivered, msg)
	return nil
}

// mockNotifier records published events.
type mockNotifier struct {
	events []Event
}

func (m *mockNotifier) Publish(ctx context.Context, ev Event) {
	m.events = append(m.events, ev)
}

func (m *mockNotifier) List(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
