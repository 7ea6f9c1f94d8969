// Package parser decodes the compact binary frames the host feed publishes
// for each market data event.
package parser

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"sierra_bridge/models"
)

// FeedFrame is one wire-format market data event. Prices travel as int64
// hundredths to keep the frame fixed-width.
type FeedFrame struct {
	Symbol      string
	TimestampUs uint64
	LastPrice   int64
	Volume      uint32
	Bid         int64
	Ask         int64
	BidSize     uint32
	AskSize     uint32
	Open        int64
	High        int64
	Low         int64
}

const symbolFieldLen = 16

// FrameSize is the fixed wire length of one feed frame.
const FrameSize = symbolFieldLen + 8 + 8 + 4 + 8 + 8 + 4 + 4 + 8 + 8 + 8

// Helper methods return adjusted float64 values without modifying the
// original frame data.
func (f *FeedFrame) GetLastPrice() float64 { return float64(f.LastPrice) / 100.0 }
func (f *FeedFrame) GetBid() float64       { return float64(f.Bid) / 100.0 }
func (f *FeedFrame) GetAsk() float64       { return float64(f.Ask) / 100.0 }
func (f *FeedFrame) GetOpen() float64      { return float64(f.Open) / 100.0 }
func (f *FeedFrame) GetHigh() float64      { return float64(f.High) / 100.0 }
func (f *FeedFrame) GetLow() float64       { return float64(f.Low) / 100.0 }

// ParseFeedFrame decodes one frame from the wire.
func ParseFeedFrame(data []byte) (*FeedFrame, error) {
	if len(data) < FrameSize {
		return nil, fmt.Errorf("feed frame too short: %d bytes, want %d", len(data), FrameSize)
	}

	f := &FeedFrame{}
	reader := bytes.NewReader(data)

	symbolBytes := make([]byte, symbolFieldLen)
	if _, err := reader.Read(symbolBytes); err != nil {
		return nil, fmt.Errorf("read symbol: %w", err)
	}
	f.Symbol = string(bytes.TrimRight(symbolBytes, "\x00"))

	for _, field := range []interface{}{
		&f.TimestampUs, &f.LastPrice, &f.Volume,
		&f.Bid, &f.Ask, &f.BidSize, &f.AskSize,
		&f.Open, &f.High, &f.Low,
	} {
		if err := binary.Read(reader, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("decode feed frame: %w", err)
		}
	}

	return f, nil
}

// Snapshot converts the frame into the normalizer's input shape.
func (f *FeedFrame) Snapshot() models.HostSnapshot {
	return models.HostSnapshot{
		Symbol:      f.Symbol,
		Price:       f.GetLastPrice(),
		Volume:      f.Volume,
		Bid:         f.GetBid(),
		Ask:         f.GetAsk(),
		BidSize:     f.BidSize,
		AskSize:     f.AskSize,
		Open:        f.GetOpen(),
		High:        f.GetHigh(),
		Low:         f.GetLow(),
		TimestampUs: f.TimestampUs,
	}
}

// EncodeFeedFrame renders a frame back to wire format. Used by the replay
// tooling and tests.
func EncodeFeedFrame(f *FeedFrame) ([]byte, error) {
	buf := &bytes.Buffer{}

	symbolBytes := make([]byte, symbolFieldLen)
	copy(symbolBytes, f.Symbol)
	buf.Write(symbolBytes)

	for _, field := range []interface{}{
		f.TimestampUs, f.LastPrice, f.Volume,
		f.Bid, f.Ask, f.BidSize, f.AskSize,
		f.Open, f.High, f.Low,
	} {
		if err := binary.Write(buf, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("encode feed frame: %w", err)
		}
	}
	return buf.Bytes(), nil
}
