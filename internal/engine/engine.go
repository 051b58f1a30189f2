package engine

type CommandType string

const (
	CmdStartAuction  CommandType = "StartAuction"
	CmdPauseAuction  CommandType = "PauseAuction"
	CmdNextLot       CommandType = "NextLot"
	CmdSellLot       CommandType = "SellLot"
	CmdSkipLot       CommandType = "SkipLot"
	CmdAddLot        CommandType = "AddLot"
	CmdPlaceBid      CommandType = "PlaceBid"
	CmdRequestJoin   CommandType = "RequestJoin"
	CmdApproveBidder CommandType = "ApproveBidder"
)

// Command carries everything Apply needs, including ids for records it may
// create. Ids are generated by the caller so Apply stays a pure function.
type Command struct {
	Type     CommandType
	Role     Role
	LotID    string
	BidderID string
	Amount   int64
	Paused   bool
	Approved bool

	// RequestJoin / AddLot payloads
	Name      string
	TeamName  string
	BasePrice int64

	// ids assigned to records created by this command
	NewBidID    string
	NewBidderID string
	NewLotID    string
}

type EventType string

const (
	EvtAuctionStarted      EventType = "AuctionStarted"
	EvtAuctionPaused       EventType = "AuctionPaused"
	EvtAuctionCompleted    EventType = "AuctionCompleted"
	EvtLotAdded            EventType = "LotAdded"
	EvtLotOpened           EventType = "LotOpened"
	EvtBidPlaced           EventType = "BidPlaced"
	EvtLotSold             EventType = "LotSold"
	EvtLotUnsold           EventType = "LotUnsold"
	EvtBidderJoined        EventType = "BidderJoined"
	EvtBidderStatusChanged EventType = "BidderStatusChanged"
)

type Event struct {
	Type     EventType
	LotID    string
	BidderID string
	BidID    string
	Amount   int64
	Paused   bool
	Approved bool
}

// Apply validates cmd against s and returns the events it produced plus the
// next state. On error the input state is returned unchanged and no event is
// emitted; the caller reports the error privately to the issuing session.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartAuction:
		return applyStart(s, cmd)
	case CmdPauseAuction:
		return applyPause(s, cmd)
	case CmdNextLot:
		return applyNextLot(s, cmd)
	case CmdSellLot:
		return applySell(s, cmd)
	case CmdSkipLot:
		return applySkip(s, cmd)
	case CmdAddLot:
		return applyAddLot(s, cmd)
	case CmdPlaceBid:
		return applyBid(s, cmd)
	case CmdRequestJoin:
		return applyJoin(s, cmd)
	case CmdApproveBidder:
		return applyApprove(s, cmd)
	default:
		return nil, s, ErrInvalidTransition
	}
}

func applyStart(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	if s.Status == AuctionCompleted {
		return nil, s, ErrAuctionCompleted
	}
	if s.Status != AuctionDraft && s.Status != AuctionPaused {
		return nil, s, ErrInvalidTransition
	}
	ns := s.clone()
	ns.Status = AuctionActive
	return []Event{{Type: EvtAuctionStarted}}, ns, nil
}

func applyPause(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	// Pausing keeps the open lot's bidding status; only bids are frozen.
	if cmd.Paused && s.Status != AuctionActive {
		return nil, s, ErrInvalidTransition
	}
	if !cmd.Paused && s.Status != AuctionPaused {
		return nil, s, ErrInvalidTransition
	}
	ns := s.clone()
	if cmd.Paused {
		ns.Status = AuctionPaused
	} else {
		ns.Status = AuctionActive
	}
	return []Event{{Type: EvtAuctionPaused, Paused: cmd.Paused}}, ns, nil
}

func applyNextLot(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	if s.Status != AuctionActive {
		return nil, s, ErrAuctionNotActive
	}
	if s.CurrentLotID != "" {
		return nil, s, ErrLotAlreadyOpen
	}
	ns := s.clone()
	i := ns.nextAvailableLot()
	if i < 0 {
		// Nothing left to sell: the auction is over.
		ns.Status = AuctionCompleted
		return []Event{{Type: EvtAuctionCompleted}}, ns, nil
	}
	ns.Lots[i].Status = LotBidding
	ns.Lots[i].CurrentPrice = ns.Lots[i].BasePrice
	ns.CurrentLotID = ns.Lots[i].ID
	return []Event{{Type: EvtLotOpened, LotID: ns.Lots[i].ID, Amount: ns.Lots[i].BasePrice}}, ns, nil
}

func applySell(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	if s.CurrentLotID == "" {
		return nil, s, ErrNoOpenLot
	}
	if cmd.LotID != s.CurrentLotID {
		return nil, s, ErrNotBidding
	}
	ns := s.clone()
	li := ns.findLot(cmd.LotID)
	if li < 0 {
		return nil, s, ErrLotNotFound
	}

	wi := ns.winningBid(cmd.LotID)
	if wi < 0 {
		// No bids: the lot goes unsold, nobody's budget moves.
		ns.Lots[li].Status = LotUnsold
		ns.CurrentLotID = ""
		return []Event{{Type: EvtLotUnsold, LotID: cmd.LotID}}, ns, nil
	}

	win := ns.Bids[wi]
	bi := ns.findBidder(win.BidderID)
	if bi < 0 {
		return nil, s, ErrBidderNotFound
	}
	ns.Lots[li].Status = LotSold
	ns.Lots[li].SoldPrice = win.Amount
	ns.Lots[li].WinnerID = win.BidderID
	ns.Bidders[bi].RemainingBudget -= win.Amount
	ns.Bidders[bi].WonLots = append(append([]string(nil), ns.Bidders[bi].WonLots...), cmd.LotID)
	ns.CurrentLotID = ""
	return []Event{{Type: EvtLotSold, LotID: cmd.LotID, BidderID: win.BidderID, BidID: win.ID, Amount: win.Amount}}, ns, nil
}

func applySkip(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	if s.CurrentLotID == "" {
		return nil, s, ErrNoOpenLot
	}
	if cmd.LotID != s.CurrentLotID {
		return nil, s, ErrNotBidding
	}
	ns := s.clone()
	li := ns.findLot(cmd.LotID)
	if li < 0 {
		return nil, s, ErrLotNotFound
	}
	// Admin override: the lot goes unsold even if bids exist.
	ns.Lots[li].Status = LotUnsold
	for i := range ns.Bids {
		if ns.Bids[i].LotID == cmd.LotID {
			ns.Bids[i].Winning = false
		}
	}
	ns.CurrentLotID = ""
	return []Event{{Type: EvtLotUnsold, LotID: cmd.LotID}}, ns, nil
}

func applyAddLot(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	if s.Status == AuctionCompleted {
		return nil, s, ErrAuctionCompleted
	}
	ns := s.clone()
	ns.Lots = append(ns.Lots, Lot{
		ID:           cmd.NewLotID,
		Name:         cmd.Name,
		BasePrice:    cmd.BasePrice,
		CurrentPrice: cmd.BasePrice,
		Status:       LotAvailable,
	})
	return []Event{{Type: EvtLotAdded, LotID: cmd.NewLotID}}, ns, nil
}

// applyBid is the concurrency-critical path. The room serializes every bid
// for an auction through one goroutine, so the read-validate-write below
// runs as a single logical unit per lot.
func applyBid(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleBidder {
		return nil, s, ErrNotBidder
	}
	li := s.findLot(cmd.LotID)
	if li < 0 {
		return nil, s, ErrLotNotFound
	}
	if s.Status != AuctionActive {
		return nil, s, ErrNotBidding
	}
	if s.Lots[li].Status != LotBidding {
		return nil, s, ErrNotBidding
	}
	bi := s.findBidder(cmd.BidderID)
	if bi < 0 {
		return nil, s, ErrBidderNotFound
	}
	if s.Bidders[bi].Status != BidderApproved {
		return nil, s, ErrNotApproved
	}
	if cmd.Amount <= s.Lots[li].CurrentPrice {
		return nil, s, ErrBidTooLow
	}
	if cmd.Amount > s.Bidders[bi].RemainingBudget {
		return nil, s, ErrInsufficientBudget
	}

	ns := s.clone()
	ns.Lots[li].CurrentPrice = cmd.Amount
	for i := range ns.Bids {
		if ns.Bids[i].LotID == cmd.LotID {
			ns.Bids[i].Winning = false
		}
	}
	ns.Bids = append(ns.Bids, Bid{
		ID:       cmd.NewBidID,
		LotID:    cmd.LotID,
		BidderID: cmd.BidderID,
		Amount:   cmd.Amount,
		Winning:  true,
	})
	return []Event{{Type: EvtBidPlaced, LotID: cmd.LotID, BidderID: cmd.BidderID, BidID: cmd.NewBidID, Amount: cmd.Amount}}, ns, nil
}

func applyJoin(s State, cmd Command) ([]Event, State, error) {
	for i := range s.Bidders {
		if s.Bidders[i].Name == cmd.Name {
			return nil, s, ErrDuplicateName
		}
		if s.Bidders[i].TeamName == cmd.TeamName {
			return nil, s, ErrDuplicateTeam
		}
	}
	ns := s.clone()
	ns.Bidders = append(ns.Bidders, Bidder{
		ID:              cmd.NewBidderID,
		Name:            cmd.Name,
		TeamName:        cmd.TeamName,
		Status:          BidderPending,
		TotalBudget:     s.TotalBudget,
		RemainingBudget: s.TotalBudget,
	})
	return []Event{{Type: EvtBidderJoined, BidderID: cmd.NewBidderID}}, ns, nil
}

func applyApprove(s State, cmd Command) ([]Event, State, error) {
	if cmd.Role != RoleAdmin {
		return nil, s, ErrNotAdmin
	}
	bi := s.findBidder(cmd.BidderID)
	if bi < 0 {
		return nil, s, ErrBidderNotFound
	}
	target := BidderRejected
	if cmd.Approved {
		target = BidderApproved
	}
	// Repeating an identical approval is a no-op: no event, no broadcast.
	if s.Bidders[bi].Status == target {
		return nil, s, nil
	}
	ns := s.clone()
	ns.Bidders[bi].Status = target
	return []Event{{Type: EvtBidderStatusChanged, BidderID: cmd.BidderID, Approved: cmd.Approved}}, ns, nil
}

// SetOnline flags a bidder's presence. It is not a command: presence has no
// effect on bids or budgets and emits no event.
func SetOnline(s State, bidderID string, online bool) State {
	bi := s.findBidder(bidderID)
	if bi < 0 {
		return s
	}
	ns := s.clone()
	ns.Bidders[bi].Online = online
	return ns
}
