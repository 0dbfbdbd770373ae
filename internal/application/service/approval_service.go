package service

import (
	"context"
	"fmt"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	appwf "github.com/priyamtech/expense-approval/internal/application/workflow"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	domainwf "github.com/priyamtech/expense-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ApprovalService advances claims through the two-level review chain.
type ApprovalService interface {
	Approve(ctx context.Context, claimID, reviewerID int64, comments string) (*entity.Claim, error)
	Reject(ctx context.Context, claimID, reviewerID int64, comments string) (*entity.Claim, error)
	ListPending(ctx context.Context, reviewerID int64, limit, offset int) ([]*entity.Claim, error)
	History(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error)
	AuditTrail(ctx context.Context, claimID int64) ([]*entity.AuditLog, error)
}

type approvalServiceImpl struct {
	claimRepo    port.ClaimRepository
	approvalRepo port.ApprovalRepository
	claimantRepo port.ClaimantRepository
	auditRepo    port.AuditRepository
	txManager    port.TransactionManager
	classifier   port.BillClassifier
	notifier     NotificationService
	logger       Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	claimRepo port.ClaimRepository,
	approvalRepo port.ApprovalRepository,
	claimantRepo port.ClaimantRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	classifier port.BillClassifier,
	notifier NotificationService,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		claimRepo:    claimRepo,
		approvalRepo: approvalRepo,
		claimantRepo: claimantRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		classifier:   classifier,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *approvalServiceImpl) Approve(ctx context.Context, claimID, reviewerID int64, comments string) (*entity.Claim, error) {
	reviewer, claim, err := s.loadForDecision(ctx, claimID, reviewerID)
	if err != nil {
		return nil, err
	}
	level := claim.CurrentLevel

	financeExists, err := s.financeExists(ctx)
	if err != nil {
		return nil, err
	}

	machine := appwf.BuildClaimStateMachine(stateOf(claim), func(context.Context) bool { return financeExists })
	if err := machine.Fire(ctx, domainwf.TriggerApprove); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimFinalized, err)
	}
	target := machine.State()

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		// Any eligible reviewer may consume the single pending slot at
		// this level; the racing loser sees no pending record.
		decided, err := s.approvalRepo.DecidePending(ctx, claim.ID, level, entity.DecisionApproved, reviewer.ID, comments, now)
		if err != nil {
			return fmt.Errorf("decide pending approval: %w", err)
		}
		if !decided {
			return ErrNoPendingApproval
		}

		switch target {
		case domainwf.StateSubmittedFinance:
			// The FINANCE pending record is committed before the level
			// change becomes externally visible.
			record := &entity.ApprovalRecord{
				ClaimID:   claim.ID,
				Level:     entity.LevelFinance,
				Status:    entity.DecisionPending,
				CreatedAt: now,
			}
			if err := s.approvalRepo.Create(ctx, record); err != nil {
				return fmt.Errorf("create finance approval record: %w", err)
			}
			advanced, err := s.claimRepo.AdvanceLevel(ctx, claim.ID, entity.LevelManager, entity.LevelFinance)
			if err != nil {
				return fmt.Errorf("advance claim level: %w", err)
			}
			if !advanced {
				return ErrNoPendingApproval
			}
			claim.CurrentLevel = entity.LevelFinance

		case domainwf.StateApproved:
			finalized, err := s.claimRepo.Finalize(ctx, claim.ID, entity.ClaimStatusApproved, nil, "", now)
			if err != nil {
				return fmt.Errorf("finalize claim: %w", err)
			}
			if !finalized {
				return ErrNoPendingApproval
			}
			claim.Status = entity.ClaimStatusApproved
			claim.CurrentLevel = ""
			claim.ApprovedAt = &now
		}

		return s.auditRepo.Create(ctx, &entity.AuditLog{
			ActorID:   reviewer.ID,
			ClaimID:   claim.ID,
			Action:    "claim.approved",
			Detail:    fmt.Sprintf("approved at %s", level),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim approved",
		"claim_number", claim.ClaimNumber, "level", level, "reviewer_id", reviewer.ID)

	if claim.Status == entity.ClaimStatusApproved {
		s.notifier.Publish(ctx, Event{Kind: entity.EventClaimApproved, Claim: claim, Actor: reviewer})
	} else {
		s.notifier.Publish(ctx, Event{Kind: entity.EventClaimAdvanced, Claim: claim, Actor: reviewer, Comments: comments})
	}
	return claim, nil
}

func (s *approvalServiceImpl) Reject(ctx context.Context, claimID, reviewerID int64, comments string) (*entity.Claim, error) {
	reviewer, claim, err := s.loadForDecision(ctx, claimID, reviewerID)
	if err != nil {
		return nil, err
	}
	level := claim.CurrentLevel

	machine := appwf.BuildClaimStateMachine(stateOf(claim), func(context.Context) bool { return true })
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimFinalized, err)
	}

	reason := s.rejectionReason(ctx, claim, level, comments)

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		decided, err := s.approvalRepo.DecidePending(ctx, claim.ID, level, entity.DecisionRejected, reviewer.ID, comments, now)
		if err != nil {
			return fmt.Errorf("decide pending approval: %w", err)
		}
		if !decided {
			return ErrNoPendingApproval
		}

		finalized, err := s.claimRepo.Finalize(ctx, claim.ID, entity.ClaimStatusRejected, &reviewer.ID, reason, now)
		if err != nil {
			return fmt.Errorf("finalize claim: %w", err)
		}
		if !finalized {
			return ErrNoPendingApproval
		}

		return s.auditRepo.Create(ctx, &entity.AuditLog{
			ActorID:   reviewer.ID,
			ClaimID:   claim.ID,
			Action:    "claim.rejected",
			Detail:    fmt.Sprintf("rejected at %s", level),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	claim.Status = entity.ClaimStatusRejected
	claim.CurrentLevel = ""
	claim.RejectedAt = &now
	claim.RejectedBy = &reviewer.ID
	claim.RejectionReason = reason

	s.logger.Info("claim rejected",
		"claim_number", claim.ClaimNumber, "level", level, "reviewer_id", reviewer.ID)

	s.notifier.Publish(ctx, Event{Kind: entity.EventClaimRejected, Claim: claim, Actor: reviewer, Comments: comments})
	return claim, nil
}

func (s *approvalServiceImpl) ListPending(ctx context.Context, reviewerID int64, limit, offset int) ([]*entity.Claim, error) {
	reviewer, err := s.claimantRepo.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("load reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, ErrClaimantNotFound
	}

	var level string
	switch {
	case reviewer.CanDecideAt(entity.LevelManager):
		level = entity.LevelManager
	case reviewer.CanDecideAt(entity.LevelFinance):
		level = entity.LevelFinance
	default:
		return nil, ErrNotPermitted
	}
	return s.claimRepo.ListPendingAtLevel(ctx, level, limit, offset)
}

func (s *approvalServiceImpl) History(ctx context.Context, claimID int64) ([]*entity.ApprovalRecord, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return s.approvalRepo.GetByClaim(ctx, claimID)
}

func (s *approvalServiceImpl) AuditTrail(ctx context.Context, claimID int64) ([]*entity.AuditLog, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return s.auditRepo.ListByClaim(ctx, claimID)
}

func (s *approvalServiceImpl) loadForDecision(ctx context.Context, claimID, reviewerID int64) (*entity.Claimant, *entity.Claim, error) {
	reviewer, err := s.claimantRepo.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, nil, ErrClaimantNotFound
	}

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, nil, ErrClaimNotFound
	}

	// Terminal claims fail closed: no mutation, no notification.
	if claim.IsTerminal() {
		return nil, nil, ErrClaimFinalized
	}
	if !reviewer.CanDecideAt(claim.CurrentLevel) {
		return nil, nil, ErrNotPermitted
	}
	return reviewer, claim, nil
}

func (s *approvalServiceImpl) financeExists(ctx context.Context) (bool, error) {
	finance, err := s.claimantRepo.ListActiveByRole(ctx, entity.RoleFinance)
	if err != nil {
		return false, fmt.Errorf("list finance reviewers: %w", err)
	}
	return len(finance) > 0, nil
}

// rejectionReason asks the classifier for a submitter-facing explanation
// and falls back to a template on failure.
func (s *approvalServiceImpl) rejectionReason(ctx context.Context, claim *entity.Claim, level, comments string) string {
	reason, err := s.classifier.GenerateRejectionReason(ctx, claim.Category, claim.AmountPaise, level, comments)
	if err == nil && reason != "" {
		return reason
	}
	if err != nil {
		s.logger.Error("rejection reason generation failed, using template",
			"claim_number", claim.ClaimNumber, "error", err)
	}
	if comments == "" {
		return fmt.Sprintf("Rejected by %s", level)
	}
	return fmt.Sprintf("Rejected by %s: %s", level, comments)
}

func stateOf(claim *entity.Claim) domainwf.State {
	switch claim.Status {
	case entity.ClaimStatusApproved:
		return domainwf.StateApproved
	case entity.ClaimStatusRejected:
		return domainwf.StateRejected
	}
	if claim.CurrentLevel == entity.LevelFinance {
		return domainwf.StateSubmittedFinance
	}
	return domainwf.StateSubmittedManager
}
