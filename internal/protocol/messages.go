package protocol

// Client -> server message types.
const (
	TypeJoinAuction   = "join-auction"
	TypeStartAuction  = "start-auction"
	TypePauseAuction  = "pause-auction"
	TypeNextPlayer    = "next-player"
	TypeSellPlayer    = "sell-player"
	TypeSkipPlayer    = "skip-player"
	TypePlaceBid      = "place-bid"
	TypeApproveBidder = "approve-bidder"
	TypeSendMessage   = "send-message"
)

// Server -> client message types.
const (
	TypeAuctionState        = "auction-state"
	TypeAuctionStarted      = "auction-started"
	TypeAuctionPaused       = "auction-paused"
	TypeAuctionCompleted    = "auction-completed"
	TypePlayerAdded         = "player-added"
	TypePlayerUpForBid      = "player-up-for-bid"
	TypeBidPlaced           = "bid-placed"
	TypePlayerSold          = "player-sold"
	TypePlayerUnsold        = "player-unsold"
	TypeBidderJoined        = "bidder-joined"
	TypeBidderStatusUpdated = "bidder-status-updated"
	TypeNewMessage          = "new-message"
	TypeError               = "error"
)

type ClientMessage struct {
	Type string `json:"type"`

	// join-auction handshake
	AuctionID  string `json:"auction_id,omitempty"`
	Role       string `json:"role,omitempty"`
	Credential string `json:"credential,omitempty"`
	Name       string `json:"name,omitempty"`

	// commands
	PlayerID string `json:"player_id,omitempty"`
	BidderID string `json:"bidder_id,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Paused   bool   `json:"paused,omitempty"`
	Approved bool   `json:"approved,omitempty"`
	Text     string `json:"text,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`

	State   *Snapshot    `json:"state,omitempty"`
	Player  *Player      `json:"player,omitempty"`
	Bidder  *Bidder      `json:"bidder,omitempty"`
	Bid     *Bid         `json:"bid,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
	Status  string       `json:"status,omitempty"`

	// error frames, delivered only to the originating session
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}
