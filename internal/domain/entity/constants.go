package entity

// Employee grade constants (A is the most restricted tier)
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
)

// Role constants for Claimant
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleFinance  = "finance"
	RoleAdmin    = "admin"
)

// Expense category constants
const (
	CategoryTravel        = "travel"
	CategoryFood          = "food"
	CategoryMedical       = "medical"
	CategoryAccommodation = "accommodation"
	CategoryCommunication = "communication"
	CategoryOther         = "other"
)

// Travel mode constants
const (
	ModeBus            = "bus"
	ModeTrain          = "train"
	ModeCab            = "cab"
	ModeFlightEconomy  = "flight_economy"
	ModeFlightBusiness = "flight_business"
)

// Evidence kind constants for Claim
const (
	EvidenceBill            = "BILL"
	EvidenceSelfDeclaration = "SELF_DECLARATION"
	EvidenceBillSet         = "BILL_SET"
)

// Claim status constants
const (
	ClaimStatusSubmitted = "submitted"
	ClaimStatusApproved  = "approved"
	ClaimStatusRejected  = "rejected"
)

// Approval level constants
const (
	LevelManager = "MANAGER"
	LevelFinance = "FINANCE"
)

// Duplicate status constants
const (
	DuplicateClean     = "clean"
	DuplicateSuspected = "suspected"
	DuplicateConfirmed = "confirmed"
)

// Admissibility verdict constants
const (
	AdmissibilityAdmit = "admit"
	AdmissibilityFlag  = "flag"
	AdmissibilityBlock = "block"
)

// Advisory recommendation constants (classifier signal)
const (
	RecommendationApprove = "approve"
	RecommendationReject  = "reject"
	RecommendationReview  = "review"
)

// Approval decision status constants
const (
	DecisionPending  = "PENDING"
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// No-bill reason codes for self-declarations
const (
	ReasonBillNotProvided = "not_provided"
	ReasonBillLost        = "lost"
	ReasonEmergency       = "emergency"
	ReasonAutoParking     = "auto_parking"
	ReasonSmallVendor     = "small_vendor"
	ReasonOther           = "other"
)

// ValidCategories lists every accepted expense category.
var ValidCategories = []string{
	CategoryTravel,
	CategoryFood,
	CategoryMedical,
	CategoryAccommodation,
	CategoryCommunication,
	CategoryOther,
}

// ValidNoBillReasons lists every accepted self-declaration reason code.
var ValidNoBillReasons = []string{
	ReasonBillNotProvided,
	ReasonBillLost,
	ReasonEmergency,
	ReasonAutoParking,
	ReasonSmallVendor,
	ReasonOther,
}

// IsValidCategory reports whether c is a known expense category.
func IsValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidNoBillReason reports whether r is a known reason code.
func IsValidNoBillReason(r string) bool {
	for _, v := range ValidNoBillReasons {
		if v == r {
			return true
		}
	}
	return false
}
