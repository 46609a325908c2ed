package websocket

import (
	"github.com/bidstation/engine/internal/auction/application"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType tags the ws envelope. Outbound domain events (bid_accepted,
// lot_resolved, auction_status_changed) are sent as-is with their own type
// field; the types below cover the remaining traffic.
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"           // client msg to place a bid
	MessageTypeServerError        MessageType = "server_error"         // server msg indicating error
	MessageTypeServerInitialState MessageType = "server_initial_state" // auction snapshot sent on connect
)

// BaseMessage is the base struct for the envelope-style WS messages.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is the DTO for a bid placed over the socket. The bidder
// identity comes from the authenticated connection, never the payload.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		LotID  uuid.UUID       `json:"lot_id"`
		Amount decimal.Decimal `json:"amount"`
		Team   string          `json:"team,omitempty"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error        string `json:"error"`
		CurrentPrice string `json:"current_price,omitempty"`
	} `json:"payload"`
}

// ServerInitialStateMessage carries the authoritative auction snapshot sent
// to a client right after it subscribes. Reconnecting clients rely on this
// instead of event replay.
type ServerInitialStateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID                  `json:"auction_id"`
		Status    string                     `json:"status"`
		Lots      []*application.LotStateDTO `json:"lots"`
	} `json:"payload"`
}
