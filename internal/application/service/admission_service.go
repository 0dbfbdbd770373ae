package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
	"github.com/priyamtech/expense-approval/internal/duplicate"
	"github.com/priyamtech/expense-approval/internal/policy"
	"github.com/priyamtech/expense-approval/pkg/utils"
)

// minSelfDeclDescription is the mandatory justification length for
// claims submitted without a bill.
const minSelfDeclDescription = 50

// SubmitBillInput is a single-bill claim submission.
type SubmitBillInput struct {
	ClaimantID  int64
	Category    string
	AmountPaise int64
	Date        time.Time
	Description string
	FileBytes   []byte
	FileName    string
	TravelMode  string
	TravelFrom  string
	TravelTo    string
}

// SubmitSelfDeclInput is a claim submitted without a bill.
type SubmitSelfDeclInput struct {
	ClaimantID  int64
	Category    string
	AmountPaise int64
	Date        time.Time
	Description string
	ReasonCode  string
}

// SubmitTripInput is a multi-bill claim. The per-bill slices are parallel
// arrays; admission refuses any length mismatch.
type SubmitTripInput struct {
	ClaimantID   int64
	Categories   []string
	AmountsPaise []int64
	Dates        []time.Time
	Descriptions []string
	Files        [][]byte
	FileNames    []string
	TripStart    *time.Time
	TripEnd      *time.Time
	Purpose      string
}

// UpdateClaimInput carries the submitter-editable fields; nil means keep.
type UpdateClaimInput struct {
	Category    *string
	AmountPaise *int64
	Description *string
	Date        *time.Time
}

// AdmissionService validates and admits expense claims.
type AdmissionService interface {
	SubmitSingle(ctx context.Context, in SubmitBillInput) (*entity.Claim, error)
	SubmitSelfDeclaration(ctx context.Context, in SubmitSelfDeclInput) (*entity.Claim, error)
	SubmitTrip(ctx context.Context, in SubmitTripInput) (*entity.Claim, error)
	Update(ctx context.Context, claimantID, claimID int64, in UpdateClaimInput) (*entity.Claim, error)
	Delete(ctx context.Context, claimantID, claimID int64) error
	GetClaim(ctx context.Context, claimantID, claimID int64) (*entity.Claim, error)
	GetClaimByNumber(ctx context.Context, claimantID int64, number string) (*entity.Claim, error)
	ListMyClaims(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error)
	LookupClaimant(ctx context.Context, employeeID string) (*entity.Claimant, error)
}

type admissionServiceImpl struct {
	claimRepo    port.ClaimRepository
	approvalRepo port.ApprovalRepository
	claimantRepo port.ClaimantRepository
	auditRepo    port.AuditRepository
	txManager    port.TransactionManager
	detector     *duplicate.Detector
	policy       *policy.Policy
	classifier   port.BillClassifier
	notifier     NotificationService
	logger       Logger
}

// NewAdmissionService creates a new AdmissionService.
func NewAdmissionService(
	claimRepo port.ClaimRepository,
	approvalRepo port.ApprovalRepository,
	claimantRepo port.ClaimantRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	detector *duplicate.Detector,
	pol *policy.Policy,
	classifier port.BillClassifier,
	notifier NotificationService,
	logger Logger,
) AdmissionService {
	return &admissionServiceImpl{
		claimRepo:    claimRepo,
		approvalRepo: approvalRepo,
		claimantRepo: claimantRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		detector:     detector,
		policy:       pol,
		classifier:   classifier,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *admissionServiceImpl) SubmitSingle(ctx context.Context, in SubmitBillInput) (*entity.Claim, error) {
	claimant, err := s.loadSubmitter(ctx, in.ClaimantID)
	if err != nil {
		return nil, err
	}
	in.Description = utils.SanitizeString(in.Description)
	if err := validateCommon(in.Category, in.AmountPaise, in.Date); err != nil {
		return nil, err
	}
	if len(in.FileBytes) == 0 {
		return nil, &InputError{Field: "file", Message: "bill attachment is required"}
	}

	analysis := s.analyze(ctx, in.FileBytes, in.FileName, in.Category, in.AmountPaise, claimant.Grade, in.Description)

	verdict, err := s.detector.Check(ctx, duplicate.Input{
		FileBytes:  in.FileBytes,
		BillNumber: analysis.BillNumber,
		Vendor:     analysis.Vendor,
		BillDate:   parseBillDate(analysis.BillDate),
		ClaimantID: claimant.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if verdict.ShouldBlock {
		return nil, &DuplicateBlockedError{Matched: verdict.Matched, Message: verdict.Message}
	}

	mode := in.TravelMode
	if mode == "" {
		mode = analysis.TravelMode
	}
	limit := s.policy.Evaluate(claimant.Grade, in.Category, in.AmountPaise, mode)

	now := time.Now()
	claim := &entity.Claim{
		ClaimNumber:  entity.GenerateClaimNumber(now),
		ClaimantID:   claimant.ID,
		Category:     in.Category,
		AmountPaise:  in.AmountPaise,
		Description:  in.Description,
		EvidenceKind: entity.EvidenceBill,
		Bills: []entity.Bill{{
			Category:        in.Category,
			AmountPaise:     in.AmountPaise,
			Description:     in.Description,
			BillDate:        in.Date,
			Fingerprint:     verdict.Fingerprint,
			FileName:        in.FileName,
			BillNumber:      analysis.BillNumber,
			Vendor:          analysis.Vendor,
			Recommendation:  analysis.Recommendation,
			ConfidenceScore: analysis.ConfidenceScore,
			RedFlags:        analysis.RedFlags,
			CreatedAt:       now,
		}},
		TravelMode:            mode,
		TravelFrom:            firstNonEmpty(in.TravelFrom, analysis.TravelFrom),
		TravelTo:              firstNonEmpty(in.TravelTo, analysis.TravelTo),
		WithinLimit:           limit.WithinLimit,
		LimitReason:           limit.Reason,
		Recommendation:        analysis.Recommendation,
		ConfidenceScore:       analysis.ConfidenceScore,
		RedFlags:              analysis.RedFlags,
		FingerprintUnverified: verdict.Unverified,
		DuplicateStatus:       entity.DuplicateClean,
		Status:                entity.ClaimStatusSubmitted,
		CurrentLevel:          entity.LevelManager,
		ExpenseDate:           in.Date,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	dupNote := ""
	if verdict.Kind == duplicate.KindSuspected {
		claim.DuplicateStatus = entity.DuplicateSuspected
		if verdict.Matched != nil {
			claim.DuplicateOfClaimID = &verdict.Matched.ID
		}
		dupNote = verdict.Message
	}
	if verdict.Unverified {
		s.logger.Error("claim admitted with unverified fingerprint",
			"claimant_id", claimant.ID, "claim_number", claim.ClaimNumber)
	}
	claim.Admissibility = computeAdmissibility(claim)

	if err := s.persistNew(ctx, claimant, claim, "submit single-bill claim"); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, Event{
		Kind:          entity.EventClaimSubmitted,
		Claim:         claim,
		Actor:         claimant,
		DuplicateNote: dupNote,
	})
	return claim, nil
}

func (s *admissionServiceImpl) SubmitSelfDeclaration(ctx context.Context, in SubmitSelfDeclInput) (*entity.Claim, error) {
	claimant, err := s.loadSubmitter(ctx, in.ClaimantID)
	if err != nil {
		return nil, err
	}
	in.Description = utils.SanitizeString(in.Description)
	if err := validateCommon(in.Category, in.AmountPaise, in.Date); err != nil {
		return nil, err
	}
	if !entity.IsValidNoBillReason(in.ReasonCode) {
		return nil, &InputError{Field: "reason_code", Message: "a no-bill reason is required"}
	}
	if len(in.Description) < minSelfDeclDescription {
		return nil, &InputError{
			Field:   "description",
			Message: fmt.Sprintf("self-declared claims need at least %d characters of justification", minSelfDeclDescription),
		}
	}

	now := time.Now()
	from, to := monthWindow(now)
	totalPaise, count, err := s.claimRepo.SelfDeclarationUsage(ctx, claimant.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("self-declaration usage: %w", err)
	}

	if err := s.policy.EvaluateSelfDeclaration(claimant.Grade, in.Category, in.AmountPaise,
		policy.MonthUsage{TotalPaise: totalPaise, Count: count}); err != nil {
		return nil, err
	}

	claim := &entity.Claim{
		ClaimNumber:  entity.GenerateClaimNumber(now),
		ClaimantID:   claimant.ID,
		Category:     in.Category,
		AmountPaise:  in.AmountPaise,
		Description:  in.Description,
		EvidenceKind: entity.EvidenceSelfDeclaration,
		Declaration: &entity.Declaration{
			ReasonCode:    in.ReasonCode,
			Justification: in.Description,
			SyntheticMark: entity.SyntheticFingerprint(now),
		},
		WithinLimit:     true,
		Recommendation:  entity.RecommendationReview,
		DuplicateStatus: entity.DuplicateClean,
		Status:          entity.ClaimStatusSubmitted,
		CurrentLevel:    entity.LevelManager,
		ExpenseDate:     in.Date,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	claim.Admissibility = computeAdmissibility(claim)

	if err := s.persistNew(ctx, claimant, claim, "submit self-declared claim"); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, Event{
		Kind:         entity.EventClaimSubmitted,
		Claim:        claim,
		Actor:        claimant,
		SelfDeclared: true,
	})
	return claim, nil
}

func (s *admissionServiceImpl) SubmitTrip(ctx context.Context, in SubmitTripInput) (*entity.Claim, error) {
	claimant, err := s.loadSubmitter(ctx, in.ClaimantID)
	if err != nil {
		return nil, err
	}

	n := len(in.AmountsPaise)
	if n == 0 {
		return nil, &InputError{Field: "bills", Message: "at least one bill is required"}
	}
	if len(in.Categories) != n || len(in.Dates) != n || len(in.Descriptions) != n ||
		len(in.Files) != n || len(in.FileNames) != n {
		return nil, &InputError{Field: "bills", Message: "per-bill fields must all have the same length"}
	}

	for i := 0; i < n; i++ {
		in.Descriptions[i] = utils.SanitizeString(in.Descriptions[i])
		if err := validateCommon(in.Categories[i], in.AmountsPaise[i], in.Dates[i]); err != nil {
			return nil, err
		}
		if len(in.Files[i]) == 0 {
			return nil, &InputError{Field: "files", Message: fmt.Sprintf("bill %d is missing its attachment", i+1)}
		}
	}

	if (in.TripStart == nil) != (in.TripEnd == nil) {
		return nil, &InputError{Field: "trip", Message: "trip start and end must be given together"}
	}
	if in.TripStart != nil {
		if in.TripEnd.Before(*in.TripStart) {
			return nil, &InputError{Field: "trip", Message: "trip end date precedes start date"}
		}
		for i, d := range in.Dates {
			if dayOf(d).Before(dayOf(*in.TripStart)) || dayOf(d).After(dayOf(*in.TripEnd)) {
				return nil, &InputError{
					Field:   "dates",
					Message: fmt.Sprintf("bill %d dated %s falls outside the trip range", i+1, d.Format("2006-01-02")),
				}
			}
		}
	}

	// Classify and duplicate-check every bill before any write; one
	// exact match refuses the whole submission.
	now := time.Now()
	bills := make([]entity.Bill, 0, n)
	var totalPaise int64
	suspected := false
	dupNote := ""
	unverified := false

	for i := 0; i < n; i++ {
		analysis := s.analyze(ctx, in.Files[i], in.FileNames[i], in.Categories[i], in.AmountsPaise[i], claimant.Grade, in.Descriptions[i])

		verdict, err := s.detector.Check(ctx, duplicate.Input{
			FileBytes:  in.Files[i],
			BillNumber: analysis.BillNumber,
			Vendor:     analysis.Vendor,
			BillDate:   parseBillDate(analysis.BillDate),
			ClaimantID: claimant.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("duplicate check for bill %d: %w", i+1, err)
		}
		if verdict.ShouldBlock {
			return nil, &DuplicateBlockedError{
				Matched: verdict.Matched,
				Message: fmt.Sprintf("bill %d refused, %s; the whole submission was rejected", i+1, verdict.Message),
			}
		}
		if verdict.Kind == duplicate.KindSuspected {
			suspected = true
			if dupNote == "" {
				dupNote = verdict.Message
			}
		}
		if verdict.Unverified {
			unverified = true
		}

		bills = append(bills, entity.Bill{
			Category:        in.Categories[i],
			AmountPaise:     in.AmountsPaise[i],
			Description:     in.Descriptions[i],
			BillDate:        in.Dates[i],
			Fingerprint:     verdict.Fingerprint,
			FileName:        in.FileNames[i],
			BillNumber:      analysis.BillNumber,
			Vendor:          analysis.Vendor,
			Recommendation:  analysis.Recommendation,
			ConfidenceScore: analysis.ConfidenceScore,
			RedFlags:        analysis.RedFlags,
			CreatedAt:       now,
		})
		totalPaise += in.AmountsPaise[i]
	}

	claim := &entity.Claim{
		ClaimNumber:           entity.GenerateClaimNumber(now),
		ClaimantID:            claimant.ID,
		Category:              commonCategory(in.Categories),
		AmountPaise:           totalPaise,
		Description:           in.Purpose,
		EvidenceKind:          entity.EvidenceBillSet,
		Bills:                 bills,
		Recommendation:        combineRecommendations(bills),
		WithinLimit:           true,
		DuplicateStatus:       entity.DuplicateClean,
		FingerprintUnverified: unverified,
		Status:                entity.ClaimStatusSubmitted,
		CurrentLevel:          entity.LevelManager,
		ExpenseDate:           in.Dates[0],
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if suspected {
		// Suspected only; a bill set maps to no single prior claim, so
		// no back-reference is recorded.
		claim.DuplicateStatus = entity.DuplicateSuspected
	}

	limit := s.policy.Evaluate(claimant.Grade, claim.Category, totalPaise, "")
	claim.WithinLimit = limit.WithinLimit
	claim.LimitReason = limit.Reason

	claim.Trip = buildTrip(in, bills, totalPaise)
	claim.Admissibility = computeAdmissibility(claim)
	if unverified {
		s.logger.Error("trip claim admitted with unverified fingerprints",
			"claimant_id", claimant.ID, "claim_number", claim.ClaimNumber)
	}

	if err := s.persistNew(ctx, claimant, claim, "submit multi-bill claim"); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, Event{
		Kind:          entity.EventClaimSubmitted,
		Claim:         claim,
		Actor:         claimant,
		DuplicateNote: dupNote,
	})
	return claim, nil
}

func (s *admissionServiceImpl) Update(ctx context.Context, claimantID, claimID int64, in UpdateClaimInput) (*entity.Claim, error) {
	claimant, claim, err := s.loadOwned(ctx, claimantID, claimID)
	if err != nil {
		return nil, err
	}
	if err := s.gateMutation(ctx, claimant, claim, "edit"); err != nil {
		return nil, err
	}
	prevAmountPaise := claim.AmountPaise

	if in.Category != nil {
		if !entity.IsValidCategory(*in.Category) {
			return nil, &InputError{Field: "category", Message: "unknown expense category"}
		}
		claim.Category = *in.Category
	}
	if in.AmountPaise != nil {
		if claim.EvidenceKind == entity.EvidenceBillSet {
			return nil, &InputError{Field: "amount", Message: "trip totals are derived from the bills and cannot be edited"}
		}
		if err := utils.ValidateAmountPaise(*in.AmountPaise); err != nil {
			return nil, &InputError{Field: "amount", Message: err.Error()}
		}
		claim.AmountPaise = *in.AmountPaise
	}
	if in.Description != nil {
		claim.Description = utils.SanitizeString(*in.Description)
	}
	if in.Date != nil {
		claim.ExpenseDate = *in.Date
	}

	// A bill-backed claim carries its amount on the bill row as well.
	if claim.EvidenceKind == entity.EvidenceBill && len(claim.Bills) == 1 {
		claim.Bills[0].AmountPaise = claim.AmountPaise
		claim.Bills[0].Category = claim.Category
		claim.Bills[0].BillDate = claim.ExpenseDate
	}

	if claim.IsSelfDeclared() {
		if len(claim.Description) < minSelfDeclDescription {
			return nil, &InputError{
				Field:   "description",
				Message: fmt.Sprintf("self-declared claims need at least %d characters of justification", minSelfDeclDescription),
			}
		}
		from, to := monthWindow(time.Now())
		totalPaise, count, err := s.claimRepo.SelfDeclarationUsage(ctx, claimant.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("self-declaration usage: %w", err)
		}
		// The claim being edited counts toward the aggregate only when it
		// was created inside the current window; exclude its old
		// contribution before evaluating the new amount.
		usage := policy.MonthUsage{TotalPaise: totalPaise, Count: count}
		if !claim.CreatedAt.Before(from) && claim.CreatedAt.Before(to) {
			usage.TotalPaise -= prevAmountPaise
			usage.Count--
		}
		if err := s.policy.EvaluateSelfDeclaration(claimant.Grade, claim.Category, claim.AmountPaise, usage); err != nil {
			return nil, err
		}
	}

	limit := s.policy.Evaluate(claimant.Grade, claim.Category, claim.AmountPaise, claim.TravelMode)
	claim.WithinLimit = limit.WithinLimit
	claim.LimitReason = limit.Reason
	claim.Admissibility = computeAdmissibility(claim)
	claim.UpdatedAt = time.Now()

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.claimRepo.Update(ctx, claim); err != nil {
			return fmt.Errorf("update claim: %w", err)
		}
		return s.auditRepo.Create(ctx, &entity.AuditLog{
			ActorID:   claimant.ID,
			ClaimID:   claim.ID,
			Action:    "claim.updated",
			Detail:    "submitter edited the claim before review",
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim updated", "claim_number", claim.ClaimNumber, "claimant_id", claimant.ID)
	return claim, nil
}

func (s *admissionServiceImpl) Delete(ctx context.Context, claimantID, claimID int64) error {
	claimant, claim, err := s.loadOwned(ctx, claimantID, claimID)
	if err != nil {
		return err
	}
	if err := s.gateMutation(ctx, claimant, claim, "delete"); err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.claimRepo.Delete(ctx, claim.ID); err != nil {
			return fmt.Errorf("delete claim: %w", err)
		}
		return s.auditRepo.Create(ctx, &entity.AuditLog{
			ActorID:   claimant.ID,
			ClaimID:   claim.ID,
			Action:    "claim.deleted",
			Detail:    "submitter withdrew the claim before review",
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("claim withdrawn", "claim_number", claim.ClaimNumber, "claimant_id", claimant.ID)
	return nil
}

func (s *admissionServiceImpl) GetClaim(ctx context.Context, claimantID, claimID int64) (*entity.Claim, error) {
	_, claim, err := s.loadOwned(ctx, claimantID, claimID)
	return claim, err
}

func (s *admissionServiceImpl) GetClaimByNumber(ctx context.Context, claimantID int64, number string) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByClaimNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	if claim.ClaimantID != claimantID {
		return nil, ErrNotPermitted
	}
	return claim, nil
}

func (s *admissionServiceImpl) ListMyClaims(ctx context.Context, claimantID int64, limit, offset int) ([]*entity.Claim, error) {
	return s.claimRepo.ListByClaimant(ctx, claimantID, limit, offset)
}

func (s *admissionServiceImpl) LookupClaimant(ctx context.Context, employeeID string) (*entity.Claimant, error) {
	if err := utils.ValidateEmployeeID(employeeID); err != nil {
		return nil, &InputError{Field: "employee_id", Message: err.Error()}
	}
	claimant, err := s.claimantRepo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load claimant: %w", err)
	}
	if claimant == nil {
		return nil, ErrClaimantNotFound
	}
	return claimant, nil
}

// persistNew writes the claim, its initial MANAGER approval slot and the
// audit entry in one transaction. The pending record is committed before
// any notification is dispatched.
func (s *admissionServiceImpl) persistNew(ctx context.Context, claimant *entity.Claimant, claim *entity.Claim, action string) error {
	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.claimRepo.Create(ctx, claim); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		record := &entity.ApprovalRecord{
			ClaimID:   claim.ID,
			Level:     entity.LevelManager,
			Status:    entity.DecisionPending,
			CreatedAt: time.Now(),
		}
		if err := s.approvalRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("create approval record: %w", err)
		}
		return s.auditRepo.Create(ctx, &entity.AuditLog{
			ActorID:   claimant.ID,
			ClaimID:   claim.ID,
			Action:    "claim.submitted",
			Detail:    action,
			CreatedAt: time.Now(),
		})
	})
}

// gateMutation enforces the edit window: submitted at MANAGER with no
// decision at any level. Violations alert the managers before refusing.
func (s *admissionServiceImpl) gateMutation(ctx context.Context, claimant *entity.Claimant, claim *entity.Claim, action string) error {
	decided, err := s.approvalRepo.HasDecision(ctx, claim.ID)
	if err != nil {
		return fmt.Errorf("check decisions: %w", err)
	}
	if claim.IsEditable() && !decided {
		return nil
	}

	s.logger.Error("blocked claim mutation after review started",
		"claim_number", claim.ClaimNumber, "claimant_id", claimant.ID, "action", action)
	s.notifier.Publish(ctx, Event{
		Kind:   entity.EventIllegalEditAlert,
		Claim:  claim,
		Actor:  claimant,
		Detail: action,
	})
	if claim.IsTerminal() {
		return ErrClaimFinalized
	}
	return ErrClaimLocked
}

func (s *admissionServiceImpl) loadSubmitter(ctx context.Context, claimantID int64) (*entity.Claimant, error) {
	claimant, err := s.claimantRepo.GetByID(ctx, claimantID)
	if err != nil {
		return nil, fmt.Errorf("load claimant: %w", err)
	}
	if claimant == nil {
		return nil, ErrClaimantNotFound
	}
	if !claimant.CanSubmit() {
		return nil, ErrNotPermitted
	}
	return claimant, nil
}

func (s *admissionServiceImpl) loadOwned(ctx context.Context, claimantID, claimID int64) (*entity.Claimant, *entity.Claim, error) {
	claimant, err := s.claimantRepo.GetByID(ctx, claimantID)
	if err != nil {
		return nil, nil, fmt.Errorf("load claimant: %w", err)
	}
	if claimant == nil {
		return nil, nil, ErrClaimantNotFound
	}
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, nil, ErrClaimNotFound
	}
	if claim.ClaimantID != claimant.ID {
		return nil, nil, ErrNotPermitted
	}
	return claimant, claim, nil
}

// analyze wraps the classifier with the conservative degrade: review
// recommendation, zero confidence, diagnostic red flag.
func (s *admissionServiceImpl) analyze(ctx context.Context, fileBytes []byte, fileName, category string, amountPaise int64, grade, description string) *port.BillAnalysis {
	analysis, err := s.classifier.Analyze(ctx, fileBytes, fileName, category, amountPaise, grade, description)
	if err != nil || analysis == nil {
		s.logger.Error("bill analysis unavailable, degrading to review", "error", err)
		return &port.BillAnalysis{
			Recommendation:  entity.RecommendationReview,
			ConfidenceScore: 0,
			RedFlags:        []string{"automated analysis unavailable"},
		}
	}
	return analysis
}

func validateCommon(category string, amountPaise int64, date time.Time) error {
	if !entity.IsValidCategory(category) {
		return &InputError{Field: "category", Message: "unknown expense category"}
	}
	if err := utils.ValidateAmountPaise(amountPaise); err != nil {
		return &InputError{Field: "amount", Message: err.Error()}
	}
	if date.IsZero() {
		return &InputError{Field: "date", Message: "expense date is required"}
	}
	return nil
}

// computeAdmissibility derives the verdict from the recorded findings.
// Blocking outcomes never reach here; they refuse admission outright.
func computeAdmissibility(claim *entity.Claim) string {
	if claim.DuplicateStatus == entity.DuplicateSuspected ||
		!claim.WithinLimit ||
		claim.Recommendation != entity.RecommendationApprove {
		return entity.AdmissibilityFlag
	}
	return entity.AdmissibilityAdmit
}

// combineRecommendations reduces per-bill signals to the most severe:
// reject beats review beats approve.
func combineRecommendations(bills []entity.Bill) string {
	combined := entity.RecommendationApprove
	for _, b := range bills {
		switch b.Recommendation {
		case entity.RecommendationReject:
			return entity.RecommendationReject
		case entity.RecommendationReview:
			combined = entity.RecommendationReview
		}
	}
	return combined
}

// buildTrip assembles the per-day breakdown. With a trip range every day
// in [start, end] appears, zero-spend days included, and the average per
// day is computed over the full duration. Without a range only distinct
// bill dates appear.
func buildTrip(in SubmitTripInput, bills []entity.Bill, totalPaise int64) *entity.Trip {
	byDay := make(map[string]*entity.DayBreakdown)
	add := func(day string, b entity.Bill) {
		d, ok := byDay[day]
		if !ok {
			d = &entity.DayBreakdown{Date: day, ByCategory: make(map[string]int64)}
			byDay[day] = d
		}
		d.TotalPaise += b.AmountPaise
		d.ByCategory[b.Category] += b.AmountPaise
	}
	for _, b := range bills {
		add(b.BillDate.Format("2006-01-02"), b)
	}

	trip := &entity.Trip{Purpose: in.Purpose}
	if in.TripStart != nil {
		trip.StartDate = dayOf(*in.TripStart)
		trip.EndDate = dayOf(*in.TripEnd)
		trip.DurationDays = int(trip.EndDate.Sub(trip.StartDate).Hours()/24) + 1
		trip.AvgPerDayPaise = totalPaise / int64(trip.DurationDays)
		for day := trip.StartDate; !day.After(trip.EndDate); day = day.AddDate(0, 0, 1) {
			key := day.Format("2006-01-02")
			if d, ok := byDay[key]; ok {
				trip.PerDay = append(trip.PerDay, *d)
			} else {
				trip.PerDay = append(trip.PerDay, entity.DayBreakdown{Date: key, TotalPaise: 0})
			}
		}
		return trip
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		trip.PerDay = append(trip.PerDay, *byDay[day])
	}
	return trip
}

func commonCategory(categories []string) string {
	first := categories[0]
	for _, c := range categories[1:] {
		if c != first {
			return entity.CategoryOther
		}
	}
	return first
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseBillDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
