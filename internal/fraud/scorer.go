// Package fraud implements a pure function that composites account,
// behavioral, network, and trust signals into a single risk verdict for
// one action.
//
// Composition shape — a running int score plus a parallel []string of
// contributing signal names, capped into [0,100] and classified by a
// threshold table — follows internal/heuristics/realtime_risk.go's
// ScoreTransaction; the signal names here name lost-and-found fraud
// vectors instead of the originating domain's risk flags, and the
// thresholds and weights are purpose-built for this scorer's signals.
package fraud

import "strings"

// Action identifies what operation is being risk-scored.
type Action string

const (
	ActionOpenClaim   Action = "open_claim"
	ActionVerify      Action = "verify"
	ActionReport      Action = "report"
	ActionMintOTP     Action = "mint_otp"
	ActionRedeemOTP   Action = "redeem_otp"
)

// blockThreshold and flagThreshold are the decision bands.
const (
	blockThreshold = 70
	flagThreshold  = 40
)

// Level is the human-facing severity band for a risk score.
type Level string

const (
	LevelAllow Level = "allow"
	LevelFlag  Level = "flag"
	LevelBlock Level = "block"
)

// AccountContext is the account/verification signal input.
type AccountContext struct {
	AccountAge         float64 // hours since account creation
	EmailVerified      bool
	PhoneVerified      bool
}

// HistoryContext is the failed-claim-history signal input.
type HistoryContext struct {
	FailedAttemptsLast24h    int
	FailedAcrossDistinctItems7d int
}

// NetworkContext is the IP-anomaly signal input.
type NetworkContext struct {
	AccountsSharingIPLast24h int
	IPFirstSeenForUser       bool
}

// VelocityContext is the rate-of-action signal input.
type VelocityContext struct {
	ClaimCreationsLastHour int
	ReportsLast24h         int
	TotalActionsLastHour   int
}

// Context bundles every signal input risk() consumes for one action.
type Context struct {
	Account  AccountContext
	History  HistoryContext
	Network  NetworkContext
	Velocity VelocityContext
	TrustScore int
}

// Assessment is the scorer's verdict for one action.
type Assessment struct {
	Score       int
	Level       Level
	ShouldBlock bool
	Factors     []string
}

// Score composites every signal into a single Assessment. It is
// a pure function: no I/O, no persistence — callers log and persist the
// result themselves (internal/db's FraudEvent).
func Score(action Action, ctx Context) Assessment {
	score := 0
	var factors []string

	switch {
	case ctx.Account.AccountAge < 24:
		score += 20
		factors = append(factors, "account_under_24h")
	case ctx.Account.AccountAge < 24*7:
		score += 10
		factors = append(factors, "account_under_7d")
	}

	switch {
	case !ctx.Account.EmailVerified && !ctx.Account.PhoneVerified:
		score += 15
		factors = append(factors, "no_verification")
	case !ctx.Account.PhoneVerified:
		score += 5
		factors = append(factors, "phone_unverified")
	}

	if ctx.History.FailedAttemptsLast24h > 0 {
		bonus := ctx.History.FailedAttemptsLast24h * 10
		if bonus > 30 {
			bonus = 30
		}
		score += bonus
		factors = append(factors, "recent_failed_attempts")
	}
	if ctx.History.FailedAcrossDistinctItems7d >= 5 {
		score += 25
		factors = append(factors, "failed_across_many_items")
	}

	switch {
	case ctx.Network.AccountsSharingIPLast24h >= 3:
		score += 15
		factors = append(factors, "ip_shared_many_accounts")
	case ctx.Network.AccountsSharingIPLast24h >= 1:
		score += 5
		factors = append(factors, "ip_shared_account")
	}
	if ctx.Network.IPFirstSeenForUser {
		score += 5
		factors = append(factors, "ip_first_seen_for_user")
	}

	switch {
	case ctx.Velocity.ClaimCreationsLastHour >= 5:
		score += 25
		factors = append(factors, "high_claim_velocity")
	}
	if ctx.Velocity.ReportsLast24h >= 10 {
		score += 20
		factors = append(factors, "high_report_velocity")
	}
	if ctx.Velocity.TotalActionsLastHour >= 30 {
		score += 15
		factors = append(factors, "high_action_velocity")
	}

	switch {
	case ctx.TrustScore < -10:
		score += 20
		factors = append(factors, "trust_below_suspension_floor")
	case ctx.TrustScore < 0:
		bonus := 2 * -ctx.TrustScore
		if bonus > 15 {
			bonus = 15
		}
		score += bonus
		factors = append(factors, "negative_trust_score")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	level := LevelAllow
	shouldBlock := false
	switch {
	case score >= blockThreshold:
		level = LevelBlock
		shouldBlock = true
	case score >= flagThreshold:
		level = LevelFlag
	}

	return Assessment{Score: score, Level: level, ShouldBlock: shouldBlock, Factors: factors}
}

// paymentTerms and conditionalTerms are the closed keyword lists 
// names for extortion detection; flagging requires a hit in BOTH lists,
// and this signal is advisory only — it never blocks by itself.
var (
	paymentTerms = map[string]struct{}{
		"pay": {}, "payment": {}, "cash": {}, "money": {}, "reward": {},
		"fee": {}, "transfer": {}, "momo": {}, "mobile money": {},
	}
	conditionalTerms = map[string]struct{}{
		"if you want": {}, "or else": {}, "before i": {}, "unless": {},
		"only if": {}, "in exchange": {}, "won't return": {}, "wont return": {},
	}
)

// ExtortionSignal reports whether free-text message content mentions both a
// payment term and a conditional term. It contributes a factor label, not a block.
func ExtortionSignal(messageText string) (hit bool, factor string) {
	lower := strings.ToLower(messageText)
	if containsAny(lower, paymentTerms) && containsAny(lower, conditionalTerms) {
		return true, "extortion_pattern"
	}
	return false, ""
}

func containsAny(text string, terms map[string]struct{}) bool {
	for term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
