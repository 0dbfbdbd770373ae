package port

import "context"

// BillAnalysis is the classifier's advisory result for one bill.
type BillAnalysis struct {
	Recommendation  string
	ConfidenceScore int
	BillNumber      string
	Vendor          string
	BillDate        string
	AmountPaise     int64
	TravelMode      string
	TravelFrom      string
	TravelTo        string
	RedFlags        []string
}

// BillClassifier defines the external AI analysis operations. Advisory
// only; admission never blocks on its recommendation.
type BillClassifier interface {
	// Analyze inspects a bill file against the claimed category/amount
	Analyze(ctx context.Context, fileBytes []byte, fileName, category string, amountPaise int64, grade, description string) (*BillAnalysis, error)

	// GenerateRejectionReason produces the submitter-facing explanation
	// for a rejection decision
	GenerateRejectionReason(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error)
}

// Message is one notification to deliver.
type Message struct {
	RecipientOpenID string
	Title           string
	Body            string
}

// NotificationDeliverer defines best-effort message delivery. Failures
// are logged by the caller, never propagated into a workflow transition.
type NotificationDeliverer interface {
	Deliver(ctx context.Context, msg Message) error
}
