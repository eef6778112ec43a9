// Package models holds the entity types shared across Byaboneka+ Core
// subsystems. Storage is opaque to this package; fields here describe the
// invariants the rest of the module relies on, not a SQL schema.
package models

import "time"

// Role is a User's permission role.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleCoopStaff Role = "coop_staff"
	RoleAdmin     Role = "admin"
)

// Tier is the derived permission band computed from a User's trust score.
type Tier string

const (
	TierSuspended   Tier = "suspended"
	TierRestricted  Tier = "restricted"
	TierNew         Tier = "new"
	TierEstablished Tier = "established"
	TierTrusted     Tier = "trusted"
)

// User is an account holder: a reporter, claimant, cooperative staffer, or
// admin. trust_score is a materialized column backed by the append-only
// TrustEvent log; it must always equal clamp(Σ deltas, -100, 100).
type User struct {
	ID             string
	Email          string
	Phone          string // optional; empty means unset
	PasswordHash   string
	Role           Role
	TrustScore     int
	EmailVerified  bool
	PhoneVerified  bool
	IsBanned       bool
	BanReason      string
	CooperativeID  string // optional binding, empty means none
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TierFor derives the permission band for the user's current trust score.
func (u User) TierFor() Tier {
	switch {
	case u.TrustScore < -10:
		return TierSuspended
	case u.TrustScore < 0:
		return TierRestricted
	case u.TrustScore < 5:
		return TierNew
	case u.TrustScore < 15:
		return TierEstablished
	default:
		return TierTrusted
	}
}

// TierCaps holds the per-tier claim_cap and report_cap limits.
type TierCaps struct {
	ClaimCap  int
	ReportCap int
}

// CapsFor returns the (claim_cap, report_cap) pair for a tier.
func CapsFor(t Tier) TierCaps {
	switch t {
	case TierSuspended:
		return TierCaps{ClaimCap: 0, ReportCap: 0}
	case TierRestricted:
		return TierCaps{ClaimCap: 1, ReportCap: 1}
	case TierNew:
		return TierCaps{ClaimCap: 3, ReportCap: 3}
	case TierEstablished:
		return TierCaps{ClaimCap: 5, ReportCap: 5}
	case TierTrusted:
		return TierCaps{ClaimCap: 7, ReportCap: 10}
	default:
		return TierCaps{}
	}
}

// LostItemStatus is the lifecycle state of a LostItem.
type LostItemStatus string

const (
	LostItemActive   LostItemStatus = "active"
	LostItemClaimed  LostItemStatus = "claimed"
	LostItemReturned LostItemStatus = "returned"
	LostItemExpired  LostItemStatus = "expired"
)

// Category is the fixed item-category enum shared by lost and found items.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryDocuments   Category = "documents"
	CategoryBags        Category = "bags"
	CategoryJewelry     Category = "jewelry"
	CategoryKeys        Category = "keys"
	CategoryClothing    Category = "clothing"
	CategoryOther       Category = "other"
)

// LostItem is owned exclusively by the reporting User.
type LostItem struct {
	ID            string
	OwnerID       string
	Category      Category
	Title         string
	Description   string
	LocationArea  string
	LostDate      time.Time
	Keywords      []string
	Status        LostItemStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FoundItemStatus is the lifecycle state of a FoundItem.
type FoundItemStatus string

const (
	FoundItemUnclaimed FoundItemStatus = "unclaimed"
	FoundItemMatched   FoundItemStatus = "matched"
	FoundItemReturned  FoundItemStatus = "returned"
	FoundItemExpired   FoundItemStatus = "expired"
)

// FoundItemSource distinguishes a citizen sighting from a cooperative intake.
type FoundItemSource string

const (
	FoundSourceCitizen    FoundItemSource = "citizen"
	FoundSourceCooperative FoundItemSource = "cooperative"
)

// MaxImageURLs is the hard cap on FoundItem.ImageURLs.
const MaxImageURLs = 5

// FoundItem is owned exclusively by the finder User, with an optional
// cooperative binding.
type FoundItem struct {
	ID            string
	FinderID      string
	CooperativeID string // optional, empty means none
	Category      Category
	Title         string
	Description   string
	LocationArea  string
	FoundDate     time.Time
	Keywords      []string
	Status        FoundItemStatus
	Source        FoundItemSource
	ImageURLs     []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SecretQuestion is one (question, salt, hash) triple for a LostItem.
// Salt and hash are never exposed outside internal/secretstore.
type SecretQuestion struct {
	ID         string
	LostItemID string
	Question   string
	Salt       []byte
	AnswerHash string
	Ordinal    int // 0, 1, 2
}

// ClaimStatus is the lifecycle state of a Claim.
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimVerified  ClaimStatus = "verified"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimReturned  ClaimStatus = "returned"
	ClaimDisputed  ClaimStatus = "disputed"
	ClaimCancelled ClaimStatus = "cancelled"
	ClaimExpired   ClaimStatus = "expired"
)

// Claim is the tuple (lost_item, found_item, claimant) with its own
// lifecycle, independently owned by neither referenced item's owner.
type Claim struct {
	ID                  string
	LostItemID          string
	FoundItemID         string
	ClaimantID          string
	Status              ClaimStatus
	VerificationScore   float64
	AttemptsMade        int
	ConsecutiveFailures int
	NextAttemptAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AttemptStatus is the outcome of one VerificationAttempt.
type AttemptStatus string

const (
	AttemptPassed AttemptStatus = "passed"
	AttemptFailed AttemptStatus = "failed"
)

// VerificationAttempt is an append-only record of one answer submission.
type VerificationAttempt struct {
	ID             string
	ClaimID        string
	UserID         string
	CorrectAnswers int // 0..3
	Status         AttemptStatus
	Timestamp      time.Time
	IP             string
}

// HandoverConfirmation is the single OTP record for a Verified claim.
type HandoverConfirmation struct {
	ID           string
	ClaimID      string
	OTPHash      string
	ExpiresAt    time.Time
	Verified     bool
	Attempts     int
	MaxAttempts  int
	RedeemerID   string // set only once Verified
	RedeemedAt   *time.Time
	CreatedAt    time.Time
}

// TrustEvent is an append-only record of one delta to a User's trust score.
type TrustEvent struct {
	ID        string
	UserID    string
	Delta     int
	Reason    string
	NewScore  int
	Timestamp time.Time
}

// DisputeResolution is the operator's outcome for a Dispute.
type DisputeResolution string

const (
	DisputeResolvedOwner  DisputeResolution = "resolved_owner"
	DisputeResolvedFinder DisputeResolution = "resolved_finder"
	DisputeDismissed      DisputeResolution = "dismissed"
)

// DisputeStatus tracks whether a Dispute is still open.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute is the one-active-per-claim fork into operator review.
type Dispute struct {
	ID         string
	ClaimID    string
	RaisedByID string
	Reason     string
	Status     DisputeStatus
	Resolution DisputeResolution
	ResolvedByID string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// ScamReportStatus tracks an accusation's review state.
type ScamReportStatus string

const (
	ScamReportPending   ScamReportStatus = "pending"
	ScamReportConfirmed ScamReportStatus = "confirmed"
	ScamReportDismissed ScamReportStatus = "dismissed"
)

// ScamReport backs the "scam reported" / "scam confirmed" / "false scam
// report" trust deltas named in 
type ScamReport struct {
	ID             string
	ReportedUserID string
	ReporterUserID string
	Reason         string
	Status         ScamReportStatus
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// MatchResult is one scored candidate produced by the Matching Engine.
type MatchResult struct {
	CounterpartID string
	Score         int
	Explanation   []string
}

// RefreshToken is a stored, revocable hash of an issued refresh token.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// FraudEvent is the audit trail for every fraud-scorer evaluation, including
// ones that did not block, so patterns can be reviewed later.
type FraudEvent struct {
	ID            string
	UserID        string
	Action        string
	Score         int
	Level         string
	ShouldBlock   bool
	Factors       []string
	CreatedAt     time.Time
}

// AuditEvent is an append-only record of a claim-state-machine transition
// or other notable action, for operator review.
type AuditEvent struct {
	ID          string
	ActorUserID string
	ClaimID     string // optional, empty when not claim-scoped
	EventType   string
	Detail      string
	CreatedAt   time.Time
}
