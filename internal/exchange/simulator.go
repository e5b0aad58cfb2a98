package exchange

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoanglm/trading-core/pkg/types"
)

// Rejection sentinels. Callers distinguish rejection classes with errors.Is.
var (
	ErrPositionOpen     = errors.New("position already open for symbol")
	ErrNoPosition       = errors.New("no open position for symbol")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrInvalidOrder     = errors.New("invalid order")
)

// SimConfig holds the simulator's execution model. Slippage is applied
// against the trader on every fill; fees are taken on notional at fill price.
type SimConfig struct {
	SlippageRate float64 `yaml:"slippage_rate" default:"0.0005" validate:"gte=0"`
	FeeRate      float64 `yaml:"fee_rate" default:"0.001" validate:"gte=0"`
	InitialCash  float64 `yaml:"initial_cash" default:"10000" validate:"gt=0"`
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		SlippageRate: 0.0005,
		FeeRate:      0.001,
		InitialCash:  10_000,
	}
}

// Simulator is a deterministic fill engine: same orders against the same
// reference prices always produce the same fills. It holds cash and at most
// one position per symbol. Not safe for concurrent use; the decision loop is
// single-threaded by design.
type Simulator struct {
	cfg       SimConfig
	cash      float64
	positions map[string]*types.Position
	log       zerolog.Logger
}

func NewSimulator(cfg SimConfig, log zerolog.Logger) *Simulator {
	return &Simulator{
		cfg:       cfg,
		cash:      cfg.InitialCash,
		positions: make(map[string]*types.Position),
		log:       log.With().Str("component", "simulator").Logger(),
	}
}

// Cash returns the free cash balance.
func (s *Simulator) Cash() float64 { return s.cash }

// Position returns the open position for symbol, or nil.
func (s *Simulator) Position(symbol string) *types.Position {
	return s.positions[symbol]
}

// OpenSymbols returns the symbols with open positions in sorted order, so
// iteration-dependent consumers stay deterministic.
func (s *Simulator) OpenSymbols() []string {
	out := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Equity marks all positions to the supplied prices and adds free cash.
// Symbols missing from marks fall back to their entry price.
func (s *Simulator) Equity(marks map[string]float64) float64 {
	equity := s.cash
	for sym, pos := range s.positions {
		price, ok := marks[sym]
		if !ok || price <= 0 {
			price = pos.EntryPrice
		}
		equity += pos.EntryPrice*pos.Quantity + pos.UnrealizedPnL(price)
	}
	return equity
}

// OpenPosition fills an entry at the reference price slipped against the
// trader and reserves notional plus fee from cash. Shorts are fully
// collateralized: they reserve the same notional a long would.
func (s *Simulator) OpenPosition(symbol string, side types.Side, quantity, refPrice float64, at time.Time) (*types.Position, error) {
	if quantity <= 0 || refPrice <= 0 {
		return nil, fmt.Errorf("%w: quantity %.8f at price %.8f", ErrInvalidOrder, quantity, refPrice)
	}
	if _, open := s.positions[symbol]; open {
		return nil, fmt.Errorf("%w: %s", ErrPositionOpen, symbol)
	}

	fillPrice := s.slip(refPrice, side, true)
	notional := fillPrice * quantity
	fee := notional * s.cfg.FeeRate
	if notional+fee > s.cash {
		return nil, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, notional+fee, s.cash)
	}
	s.cash -= notional + fee

	pos := &types.Position{
		Symbol:       symbol,
		Side:         side,
		EntryPrice:   fillPrice,
		Quantity:     quantity,
		EntryTime:    at,
		ExtremePrice: fillPrice,
		EntryFee:     fee,
	}
	s.positions[symbol] = pos

	s.log.Info().
		Str("symbol", symbol).
		Stringer("side", side).
		Float64("fill_price", fillPrice).
		Float64("quantity", quantity).
		Float64("fee", fee).
		Msg("position opened")

	return pos, nil
}

// ClosePosition fills the exit at the reference price slipped against the
// trader, releases the reserved notional plus realized profit and loss, and
// returns the completed round trip.
func (s *Simulator) ClosePosition(symbol string, refPrice float64, at time.Time, reason string) (types.TradeRecord, error) {
	pos, open := s.positions[symbol]
	if !open {
		return types.TradeRecord{}, fmt.Errorf("%w: %s", ErrNoPosition, symbol)
	}
	if refPrice <= 0 {
		return types.TradeRecord{}, fmt.Errorf("%w: exit price %.8f", ErrInvalidOrder, refPrice)
	}

	fillPrice := s.slip(refPrice, pos.Side, false)
	exitNotional := fillPrice * pos.Quantity
	exitFee := exitNotional * s.cfg.FeeRate

	grossPnL := pos.UnrealizedPnL(fillPrice)
	feesTotal := pos.EntryFee + exitFee
	netPnL := grossPnL - feesTotal

	// Entry already deducted notional and entry fee, so the exit returns the
	// reserved notional plus gross profit, minus the exit fee.
	s.cash += pos.EntryPrice*pos.Quantity + grossPnL - exitFee
	delete(s.positions, symbol)

	record := types.TradeRecord{
		Symbol: symbol,
		Side:   pos.Side,
		Entry: types.Fill{
			Price:           pos.EntryPrice,
			Quantity:        pos.Quantity,
			Fee:             pos.EntryFee,
			SlippageApplied: s.cfg.SlippageRate,
			Timestamp:       pos.EntryTime,
			Side:            pos.Side,
		},
		Exit: types.Fill{
			Price:           fillPrice,
			Quantity:        pos.Quantity,
			Fee:             exitFee,
			SlippageApplied: s.cfg.SlippageRate,
			Timestamp:       at,
			Side:            exitSide(pos.Side),
		},
		GrossPnL:     grossPnL,
		FeesTotal:    feesTotal,
		NetPnL:       netPnL,
		HoldDuration: at.Sub(pos.EntryTime),
		ExitReason:   reason,
	}

	s.log.Info().
		Str("symbol", symbol).
		Stringer("side", pos.Side).
		Float64("exit_price", fillPrice).
		Float64("net_pnl", netPnL).
		Str("reason", reason).
		Msg("position closed")

	return record, nil
}

// slip moves the reference price against the trader. Entering a long or
// exiting a short pays up; entering a short or exiting a long receives less.
func (s *Simulator) slip(refPrice float64, side types.Side, entry bool) float64 {
	paysUp := (side == types.SideLong) == entry
	if paysUp {
		return refPrice * (1 + s.cfg.SlippageRate)
	}
	return refPrice * (1 - s.cfg.SlippageRate)
}

func exitSide(side types.Side) types.Side {
	if side == types.SideLong {
		return types.SideShort
	}
	return types.SideLong
}
