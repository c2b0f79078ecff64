package portfolio

import (
	"math"
	"sort"
	"time"
)

// Portfolio is the cash/holdings book for a single backtest run. It is
// mutated only through Open and Close; nothing here is shared across
// runs, which is what makes parallel grid search safe.
type Portfolio struct {
	Cash           float64
	CommissionRate float64

	holdings  map[string]float64
	positions map[string]*Position
}

func New(cash, commissionRate float64) *Portfolio {
	return &Portfolio{
		Cash:           cash,
		CommissionRate: commissionRate,
		holdings:       make(map[string]float64),
		positions:      make(map[string]*Position),
	}
}

// Holding returns the signed units held for an instrument, zero if flat.
func (p *Portfolio) Holding(instrument string) float64 {
	return p.holdings[instrument]
}

// Position returns the open position for an instrument, if any.
func (p *Portfolio) Position(instrument string) (*Position, bool) {
	pos, ok := p.positions[instrument]
	return pos, ok
}

// OpenInstruments returns the instruments with open positions, sorted.
func (p *Portfolio) OpenInstruments() []string {
	out := make([]string, 0, len(p.positions))
	for inst := range p.positions {
		out = append(out, inst)
	}
	sort.Strings(out)
	return out
}

// SizeUnits computes the entry size for a close price under conviction
// sizing: allocation = cash * min(conviction, 1), quantity = floor
// shares, with a one-share minimum whenever the allocation is positive.
// Zero conviction means no trade.
func SizeUnits(cash, conviction, price float64) float64 {
	if conviction > 1 {
		conviction = 1
	}
	if conviction <= 0 || price <= 0 || cash <= 0 {
		return 0
	}
	alloc := cash * conviction
	qty := math.Floor(alloc / price)
	if qty < 1 {
		qty = 1
	}
	return qty
}

// Open fills units of instrument at price (positive units buys, negative
// sells short). Commission is charged on notional per execution. The
// instrument must be flat.
func (p *Portfolio) Open(instrument string, units, price float64, date time.Time, trailingStop float64) *Position {
	notional := math.Abs(units) * price
	commission := notional * p.CommissionRate

	p.Cash -= units * price
	p.Cash -= commission
	p.holdings[instrument] += units

	pos := &Position{
		Instrument:      instrument,
		Units:           units,
		EntryPrice:      price,
		EntryDate:       date,
		TrailingStop:    trailingStop,
		entryCommission: commission,
	}
	p.positions[instrument] = pos
	return pos
}

// Close unwinds the entire position for instrument at price and returns
// the realized trade. Reports false if the instrument is flat.
func (p *Portfolio) Close(instrument string, price float64, date time.Time, reason string) (Trade, bool) {
	pos, ok := p.positions[instrument]
	if !ok {
		return Trade{}, false
	}

	notional := math.Abs(pos.Units) * price
	commission := notional * p.CommissionRate

	p.Cash += pos.Units * price
	p.Cash -= commission

	delete(p.holdings, instrument)
	delete(p.positions, instrument)

	return Trade{
		Instrument: instrument,
		Units:      pos.Units,
		EntryDate:  pos.EntryDate,
		ExitDate:   date,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		PnL:        pos.Units*(price-pos.EntryPrice) - pos.entryCommission - commission,
		Reason:     reason,
	}, true
}

// Value is the total portfolio value: cash plus every holding marked at
// its last known close.
func (p *Portfolio) Value(lastClose map[string]float64) float64 {
	v := p.Cash
	for inst, units := range p.holdings {
		v += units * lastClose[inst]
	}
	return v
}
