package engine

import "errors"

// Authorization errors: the session's role cannot issue the command.
var (
	ErrNotAdmin  = errors.New("command requires admin role")
	ErrNotBidder = errors.New("command requires bidder role")
)

// Invalid-state errors: the command is legal for the role but not in the
// current auction/lot status.
var (
	ErrAuctionCompleted  = errors.New("auction already completed")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrInvalidTransition = errors.New("invalid auction status transition")
	ErrLotAlreadyOpen    = errors.New("a lot is already open for bidding")
	ErrNoOpenLot         = errors.New("no lot is open for bidding")
	ErrNotBidding        = errors.New("lot is not open for bidding")
)

// Validation errors: the command is well-formed but violates a business rule.
var (
	ErrNotApproved        = errors.New("bidder is not approved")
	ErrBidTooLow          = errors.New("bid must exceed the current price")
	ErrInsufficientBudget = errors.New("bid exceeds remaining budget")
	ErrDuplicateName      = errors.New("bidder name already taken")
	ErrDuplicateTeam      = errors.New("team name already taken")
)

// Not-found errors.
var (
	ErrLotNotFound    = errors.New("lot not found")
	ErrBidderNotFound = errors.New("bidder not found")
)

// Reason maps an engine error to the short code delivered to the
// originating session. Rejections are terse on purpose; they must not
// leak other bidders' budgets.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrNotBidder):
		return "unauthorized"
	case errors.Is(err, ErrNotBidding), errors.Is(err, ErrAuctionNotActive):
		return "not-bidding"
	case errors.Is(err, ErrNotApproved):
		return "not-approved"
	case errors.Is(err, ErrBidTooLow):
		return "bid-too-low"
	case errors.Is(err, ErrInsufficientBudget):
		return "insufficient-budget"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate-name"
	case errors.Is(err, ErrDuplicateTeam):
		return "duplicate-team"
	case errors.Is(err, ErrLotNotFound), errors.Is(err, ErrBidderNotFound):
		return "not-found"
	case errors.Is(err, ErrAuctionCompleted), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrLotAlreadyOpen), errors.Is(err, ErrNoOpenLot):
		return "invalid-state"
	default:
		return "rejected"
	}
}
