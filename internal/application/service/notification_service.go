package service

import (
	"context"
	"fmt"
	"time"

	"github.com/priyamtech/expense-approval/internal/application/port"
	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// Event is one workflow occurrence to fan out to interested parties.
type Event struct {
	Kind     string
	Claim    *entity.Claim
	Actor    *entity.Claimant
	Comments string

	// DuplicateNote carries suspected-duplicate match details so the
	// reviewer notification can surface them.
	DuplicateNote string

	// SelfDeclared marks claims without a physical bill.
	SelfDeclared bool

	// Detail describes the attempted action for security alerts.
	Detail string
}

// NotificationService computes recipients and message content for a
// workflow event and hands delivery to the external messenger. Publish
// never fails the triggering transition: every error there is logged
// only.
type NotificationService interface {
	Publish(ctx context.Context, ev Event)
	List(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error)
}

// outbound is one message addressed to one recipient. An event can
// produce different wording per recipient: reviewers get a request for
// action, the submitter gets a status update on their own claim.
type outbound struct {
	recipient *entity.Claimant
	title     string
	body      string
}

type notificationServiceImpl struct {
	claimantRepo port.ClaimantRepository
	notifRepo    port.NotificationRepository
	deliverer    port.NotificationDeliverer
	logger       Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	claimantRepo port.ClaimantRepository,
	notifRepo port.NotificationRepository,
	deliverer port.NotificationDeliverer,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		claimantRepo: claimantRepo,
		notifRepo:    notifRepo,
		deliverer:    deliverer,
		logger:       logger,
	}
}

func (s *notificationServiceImpl) Publish(ctx context.Context, ev Event) {
	messages := s.compute(ctx, ev)
	if len(messages) == 0 {
		s.logger.Info("no recipients for event", "kind", ev.Kind, "claim_id", ev.Claim.ID)
		return
	}

	now := time.Now()
	for _, m := range messages {
		r := m.recipient
		n := &entity.Notification{
			RecipientID: r.ID,
			ClaimID:     ev.Claim.ID,
			Kind:        ev.Kind,
			Title:       m.title,
			Body:        m.body,
			Status:      entity.NotificationStatusPending,
			CreatedAt:   now,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			s.logger.Error("failed to persist notification",
				"kind", ev.Kind, "claim_id", ev.Claim.ID, "recipient_id", r.ID, "error", err)
			continue
		}

		if r.LarkOpenID == "" {
			s.logger.Info("recipient has no delivery address, left pending",
				"recipient_id", r.ID, "notification_id", n.ID)
			continue
		}

		err := s.deliverer.Deliver(ctx, port.Message{
			RecipientOpenID: r.LarkOpenID,
			Title:           m.title,
			Body:            m.body,
		})
		if err != nil {
			s.logger.Error("notification delivery failed",
				"notification_id", n.ID, "recipient_id", r.ID, "error", err)
			if merr := s.notifRepo.MarkFailed(ctx, n.ID); merr != nil {
				s.logger.Error("failed to mark notification failed", "notification_id", n.ID, "error", merr)
			}
			continue
		}
		if merr := s.notifRepo.MarkSent(ctx, n.ID, time.Now()); merr != nil {
			s.logger.Error("failed to mark notification sent", "notification_id", n.ID, "error", merr)
		}
	}
}

func (s *notificationServiceImpl) List(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	list, err := s.notifRepo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// compute maps an event to the messages it produces.
func (s *notificationServiceImpl) compute(ctx context.Context, ev Event) []outbound {
	claim := ev.Claim
	amount := fmt.Sprintf("₹%.2f", float64(claim.AmountPaise)/100)

	switch ev.Kind {
	case entity.EventClaimSubmitted:
		reviewBody := fmt.Sprintf("Claim %s (%s, %s) is awaiting your review.", claim.ClaimNumber, claim.Category, amount)
		if ev.SelfDeclared {
			reviewBody += " Submitted without a bill under self-declaration."
		}
		if ev.DuplicateNote != "" {
			reviewBody += " Possible duplicate: " + ev.DuplicateNote
		}
		title := "New expense claim " + claim.ClaimNumber
		messages := fanout(s.activeByRole(ctx, entity.RoleManager), title, reviewBody)
		submitBody := fmt.Sprintf("Your claim %s (%s, %s) was submitted and is pending manager review.",
			claim.ClaimNumber, claim.Category, amount)
		return append(messages, fanout(s.submitter(ctx, claim), title, submitBody)...)

	case entity.EventClaimAdvanced:
		body := fmt.Sprintf("Claim %s (%s, %s) was approved by the manager and now needs finance review.",
			claim.ClaimNumber, claim.Category, amount)
		if ev.Comments != "" {
			body += " Manager comments: " + ev.Comments
		}
		title := "Claim " + claim.ClaimNumber + " pending finance review"
		messages := fanout(s.activeByRole(ctx, entity.RoleFinance), title, body)
		return append(messages, fanout(s.submitter(ctx, claim), title, body)...)

	case entity.EventClaimApproved:
		body := fmt.Sprintf("Your claim %s for %s has been approved.", claim.ClaimNumber, amount)
		return fanout(s.submitter(ctx, claim), "Claim "+claim.ClaimNumber+" approved", body)

	case entity.EventClaimRejected:
		body := fmt.Sprintf("Your claim %s for %s was rejected.", claim.ClaimNumber, amount)
		if claim.RejectionReason != "" {
			body += " Reason: " + claim.RejectionReason
		}
		return fanout(s.submitter(ctx, claim), "Claim "+claim.ClaimNumber+" rejected", body)

	case entity.EventIllegalEditAlert:
		actor := "unknown claimant"
		if ev.Actor != nil {
			actor = ev.Actor.Name
		}
		body := fmt.Sprintf("%s attempted to %s claim %s after review had started. The attempt was refused.",
			actor, ev.Detail, claim.ClaimNumber)
		return fanout(s.activeByRole(ctx, entity.RoleManager), "Blocked modification of claim "+claim.ClaimNumber, body)
	}

	s.logger.Error("unknown notification event kind", "kind", ev.Kind)
	return nil
}

func fanout(recipients []*entity.Claimant, title, body string) []outbound {
	messages := make([]outbound, 0, len(recipients))
	for _, r := range recipients {
		messages = append(messages, outbound{recipient: r, title: title, body: body})
	}
	return messages
}

func (s *notificationServiceImpl) activeByRole(ctx context.Context, role string) []*entity.Claimant {
	list, err := s.claimantRepo.ListActiveByRole(ctx, role)
	if err != nil {
		s.logger.Error("failed to list recipients", "role", role, "error", err)
		return nil
	}
	return list
}

func (s *notificationServiceImpl) submitter(ctx context.Context, claim *entity.Claim) []*entity.Claimant {
	c, err := s.claimantRepo.GetByID(ctx, claim.ClaimantID)
	if err != nil || c == nil {
		s.logger.Error("failed to load submitter", "claimant_id", claim.ClaimantID, "error", err)
		return nil
	}
	return []*entity.Claimant{c}
}
