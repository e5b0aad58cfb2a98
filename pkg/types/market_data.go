package types

import "time"

// Candle is a single OHLCV bar. Sequences are ordered by OpenTime and a bar is
// immutable once produced.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// PriceLevel is a single price+size entry in an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBookSnapshot holds bids (descending) and asks (ascending) at a point in
// time. It is consumed at decision time and discarded afterward.
type OrderBookSnapshot struct {
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the highest bid, or zero if the book side is empty.
func (ob *OrderBookSnapshot) BestBid() float64 {
	if ob == nil || len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk returns the lowest ask, or zero if the book side is empty.
func (ob *OrderBookSnapshot) BestAsk() float64 {
	if ob == nil || len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// MidPrice returns the bid/ask midpoint, or zero if either side is empty.
func (ob *OrderBookSnapshot) MidPrice() float64 {
	bid, ask := ob.BestBid(), ob.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Side is the direction of an order or position.
type Side int

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Fill is an append-only execution record produced by the exchange simulator
// or a live broker. Never mutated after creation.
type Fill struct {
	Price           float64
	Quantity        float64
	Fee             float64
	SlippageApplied float64
	Timestamp       time.Time
	Side            Side
}

// Position is the single open position for a symbol. ExtremePrice tracks the
// highest (long) or lowest (short) price seen since entry; StopPrice only moves
// in the favorable direction.
type Position struct {
	Symbol       string
	Side         Side
	EntryPrice   float64
	Quantity     float64
	EntryTime    time.Time
	ExtremePrice float64
	StopPrice    float64
	TakeProfit   float64
	EntryFee     float64
}

// UpdateExtreme records a new favorable price extreme since entry.
func (p *Position) UpdateExtreme(price float64) {
	if p.Side == SideLong {
		if price > p.ExtremePrice {
			p.ExtremePrice = price
		}
	} else if p.ExtremePrice == 0 || price < p.ExtremePrice {
		p.ExtremePrice = price
	}
}

// UnrealizedPnL marks the position to the given price, gross of fees.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideLong {
		return (price - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - price) * p.Quantity
}

// TradeRecord is one completed round trip, the unit the performance tracker
// aggregates over. Immutable once created.
type TradeRecord struct {
	Symbol       string
	Side         Side
	Entry        Fill
	Exit         Fill
	GrossPnL     float64
	FeesTotal    float64
	NetPnL       float64
	HoldDuration time.Duration
	ExitReason   string
}

// EquityPoint is one mark-to-market observation on the equity curve. Points are
// appended once per processed bar and never reordered or deleted.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}
