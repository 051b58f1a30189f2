package room

import (
	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/protocol"
)

type Msg interface{ isRoomMsg() }

// Session is one live connection's entry in the room roster. Role and
// identity live here, not on the transport connection.
type Session struct {
	ID       string
	Role     engine.Role
	BidderID string // set for bidder sessions
	Name     string
	Outbox   chan protocol.ServerMessage
}

type Join struct {
	Session Session
}

func (Join) isRoomMsg() {}

type Leave struct{ SessionID string }

func (Leave) isRoomMsg() {}

// FromClient carries a command issued over the real-time protocol. The room
// stamps the session's role and bidder identity onto the command before it
// reaches the engine, so a session cannot bid as somebody else.
type FromClient struct {
	SessionID string
	Cmd       engine.Command
}

func (FromClient) isRoomMsg() {}

type Chat struct {
	SessionID string
	Text      string
}

func (Chat) isRoomMsg() {}

// AdminCommand is a lifecycle command arriving over REST rather than a live
// session. The caller has already authenticated the admin.
type AdminCommand struct {
	Cmd   engine.Command
	Reply chan error
}

func (AdminCommand) isRoomMsg() {}

// JoinRequest is a bidder admission request; it funnels through the room so
// duplicate-name checks are serialized with everything else.
type JoinRequest struct {
	Name     string
	TeamName string
	Reply    chan JoinResult
}

func (JoinRequest) isRoomMsg() {}

type JoinResult struct {
	Bidder protocol.Bidder
	Err    error
}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// View reflects room internals for tests without data races.
type View struct {
	NumSessions int
	State       engine.State
}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}
