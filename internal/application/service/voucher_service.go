package service

import (
	"context"
	"fmt"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// VoucherExporter writes one approved claim into a payment voucher file.
type VoucherExporter interface {
	Export(claim *entity.Claim, claimant *entity.Claimant) (string, error)
}

// VoucherService produces payment vouchers for approved claims.
type VoucherService interface {
	Export(ctx context.Context, claimID int64) (string, error)
}

type voucherServiceImpl struct {
	claimRepo    port.ClaimRepository
	claimantRepo port.ClaimantRepository
	exporter     VoucherExporter
	logger       Logger
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(claimRepo port.ClaimRepository, claimantRepo port.ClaimantRepository, exporter VoucherExporter, logger Logger) VoucherService {
	return &voucherServiceImpl{
		claimRepo:    claimRepo,
		claimantRepo: claimantRepo,
		exporter:     exporter,
		logger:       logger,
	}
}

func (s *voucherServiceImpl) Export(ctx context.Context, claimID int64) (string, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return "", err
	}
	if claim == nil {
		return "", ErrClaimNotFound
	}
	if claim.Status != entity.ClaimStatusApproved {
		return "", fmt.Errorf("%w: voucher requires an approved claim", ErrNotPermitted)
	}

	claimant, err := s.claimantRepo.GetByID(ctx, claim.ClaimantID)
	if err != nil {
		return "", err
	}
	if claimant == nil {
		return "", ErrClaimantNotFound
	}

	path, err := s.exporter.Export(claim, claimant)
	if err != nil {
		s.logger.Error("Voucher export failed", "claim_id", claimID, "error", err)
		return "", err
	}

	s.logger.Info("Voucher exported", "claim_id", claimID, "path", path)
	return path, nil
}
