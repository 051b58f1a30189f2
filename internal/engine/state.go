package engine

type AuctionStatus string

const (
	AuctionDraft     AuctionStatus = "draft"
	AuctionActive    AuctionStatus = "active"
	AuctionPaused    AuctionStatus = "paused"
	AuctionCompleted AuctionStatus = "completed"
)

type LotStatus string

const (
	LotAvailable LotStatus = "available"
	LotBidding   LotStatus = "bidding"
	LotSold      LotStatus = "sold"
	LotUnsold    LotStatus = "unsold"
)

type BidderStatus string

const (
	BidderPending  BidderStatus = "pending"
	BidderApproved BidderStatus = "approved"
	BidderRejected BidderStatus = "rejected"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBidder Role = "bidder"
	RoleViewer Role = "viewer"
)

// Lot is a single player offered for bidding.
type Lot struct {
	ID           string
	Name         string
	BasePrice    int64
	CurrentPrice int64
	Status       LotStatus
	WinnerID     string // set when sold
	SoldPrice    int64  // set when sold
}

type Bidder struct {
	ID              string
	Name            string
	TeamName        string
	Status          BidderStatus
	TotalBudget     int64
	RemainingBudget int64
	WonLots         []string // lot ids, in sale order
	Online          bool
}

type Bid struct {
	ID       string
	LotID    string
	BidderID string
	Amount   int64
	Winning  bool
}

// State is the full in-memory view of one auction. It is treated as a value:
// Apply never mutates its input, it returns a fresh copy.
type State struct {
	AuctionID    string
	Name         string
	Status       AuctionStatus
	TotalBudget  int64
	CurrentLotID string // empty when no lot is open
	Lots         []Lot  // creation order; next-lot picks the oldest available
	Bidders      []Bidder
	Bids         []Bid // acceptance order
}

func NewState(auctionID, name string, totalBudget int64) State {
	return State{
		AuctionID:   auctionID,
		Name:        name,
		Status:      AuctionDraft,
		TotalBudget: totalBudget,
	}
}

// clone copies the slices so the caller can mutate elements without
// aliasing the previous state. WonLots is copied on write instead.
func (s State) clone() State {
	c := s
	c.Lots = append([]Lot(nil), s.Lots...)
	c.Bidders = append([]Bidder(nil), s.Bidders...)
	c.Bids = append([]Bid(nil), s.Bids...)
	return c
}

func (s State) findLot(id string) int {
	for i := range s.Lots {
		if s.Lots[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) findBidder(id string) int {
	for i := range s.Bidders {
		if s.Bidders[i].ID == id {
			return i
		}
	}
	return -1
}

// nextAvailableLot returns the index of the oldest lot still available,
// or -1 when the auction has run out of lots.
func (s State) nextAvailableLot() int {
	for i := range s.Lots {
		if s.Lots[i].Status == LotAvailable {
			return i
		}
	}
	return -1
}

// winningBid returns the index of the bid currently flagged winning for a lot.
func (s State) winningBid(lotID string) int {
	for i := range s.Bids {
		if s.Bids[i].LotID == lotID && s.Bids[i].Winning {
			return i
		}
	}
	return -1
}

// LotByID looks up a lot by id.
func (s State) LotByID(id string) (Lot, bool) {
	if i := s.findLot(id); i >= 0 {
		return s.Lots[i], true
	}
	return Lot{}, false
}

// BidderByID looks up a bidder by id.
func (s State) BidderByID(id string) (Bidder, bool) {
	if i := s.findBidder(id); i >= 0 {
		return s.Bidders[i], true
	}
	return Bidder{}, false
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
