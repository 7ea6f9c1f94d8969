// Package command polls the inbound trade instruction artifact, enforces
// at-most-once consumption, and turns its content into a typed command or a
// structured rejection.
package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sierra_bridge/models"
)

const commandFileName = "trade_commands.json"

// ParseError reports a malformed command artifact. CommandID carries the id
// to key the rejection response: the parsed id when one was present, or a
// synthetic one when the command could not be identified.
type ParseError struct {
	CommandID string
	Reason    string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// ValidationError reports a well-formed command that violates business
// rules. No execution is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// rawCommand is the wire shape of the inbound artifact. The external writer
// may use either action/side and either order_type/type.
type rawCommand struct {
	CommandID string  `json:"command_id"`
	Action    string  `json:"action"`
	Side      string  `json:"side"`
	Symbol    string  `json:"symbol"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	OrderType string  `json:"order_type"`
	Type      string  `json:"type"`
}

// Channel consumes trade instructions from a single well-known path. One
// command per poll; if the external writer replaces the artifact between
// polls, earlier content is lost. That one-slot handoff is a known
// limitation of the protocol, not of this reader.
type Channel struct {
	path        string
	maxPosition uint32
}

func NewChannel(dir string, maxPosition uint32) *Channel {
	return &Channel{
		path:        filepath.Join(dir, commandFileName),
		maxPosition: maxPosition,
	}
}

// Path returns the well-known command artifact location.
func (c *Channel) Path() string { return c.path }

// Poll checks for a pending instruction. When the artifact exists with
// content, it is deleted immediately after the read, before parsing or
// execution, so a later poll can never consume it again. Returns
// found=false when there is nothing to do, a command on success, or a
// *ParseError in perr when the content was malformed. err reports I/O
// trouble only.
func (c *Channel) Poll() (found bool, cmd models.TradeCommand, perr *ParseError, err error) {
	data, readErr := os.ReadFile(c.path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return false, models.TradeCommand{}, nil, nil
		}
		return false, models.TradeCommand{}, nil, fmt.Errorf("read command artifact: %w", readErr)
	}
	if len(data) == 0 {
		// Writer may still be mid-replace; leave it for the next poll.
		return false, models.TradeCommand{}, nil, nil
	}

	// Claim the command before doing anything with it. A crash after this
	// point loses the command rather than risking a double execution.
	if rmErr := os.Remove(c.path); rmErr != nil && !os.IsNotExist(rmErr) {
		return false, models.TradeCommand{}, nil, fmt.Errorf("remove command artifact: %w", rmErr)
	}

	cmd, perr = parse(data)
	return true, cmd, perr, nil
}

// parse produces a complete TradeCommand or a ParseError; never both.
func parse(data []byte) (models.TradeCommand, *ParseError) {
	var raw rawCommand
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.TradeCommand{}, &ParseError{CommandID: "invalid", Reason: "malformed JSON: " + err.Error()}
	}

	id := strings.TrimSpace(raw.CommandID)
	if id == "" {
		return models.TradeCommand{}, &ParseError{CommandID: "unknown", Reason: "missing command_id"}
	}

	action := strings.ToUpper(raw.Action)
	if action == "" {
		action = strings.ToUpper(raw.Side)
	}
	if action != models.ActionBuy && action != models.ActionSell {
		return models.TradeCommand{}, &ParseError{CommandID: id, Reason: fmt.Sprintf("action %q not in {BUY, SELL}", action)}
	}

	if raw.Quantity <= 0 {
		return models.TradeCommand{}, &ParseError{CommandID: id, Reason: fmt.Sprintf("quantity %d must be > 0", raw.Quantity)}
	}

	kind := strings.ToUpper(raw.OrderType)
	if kind == "" {
		kind = strings.ToUpper(raw.Type)
	}
	if kind == "" {
		kind = models.OrderKindMarket
	}
	switch kind {
	case models.OrderKindMarket, models.OrderKindLimit, models.OrderKindStop:
	default:
		return models.TradeCommand{}, &ParseError{CommandID: id, Reason: fmt.Sprintf("unknown order type %q", kind)}
	}

	if raw.Price < 0 {
		return models.TradeCommand{}, &ParseError{CommandID: id, Reason: fmt.Sprintf("negative price %v", raw.Price)}
	}

	return models.TradeCommand{
		CommandID:  id,
		Action:     action,
		Symbol:     raw.Symbol,
		Quantity:   uint32(raw.Quantity),
		OrderKind:  kind,
		LimitPrice: raw.Price,
	}, nil
}

// Validate applies business rules to a parsed command against the active
// instrument.
func (c *Channel) Validate(cmd models.TradeCommand, activeSymbol string) *ValidationError {
	if cmd.Quantity > c.maxPosition {
		return &ValidationError{Reason: fmt.Sprintf("quantity %d exceeds max position size %d", cmd.Quantity, c.maxPosition)}
	}
	if cmd.OrderKind == models.OrderKindLimit || cmd.OrderKind == models.OrderKindStop {
		if cmd.LimitPrice <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("%s order requires a positive price", cmd.OrderKind)}
		}
	}
	if cmd.Symbol != "" && !strings.EqualFold(cmd.Symbol, activeSymbol) {
		return &ValidationError{Reason: fmt.Sprintf("symbol %q does not match active instrument %q", cmd.Symbol, activeSymbol)}
	}
	return nil
}
