// Package pricing turns a court's base price, a branch surcharge policy and a
// set of slots into a rounded price breakdown. Nothing here performs I/O.
package pricing

import (
	"courtbook/internal/calendar"
	"courtbook/pkg/model"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	minutesHour = decimal.NewFromInt(60)
)

type Input struct {
	BaseHourlyPrice decimal.Decimal
	Config          model.BranchConfig
	Slots           []calendar.Slot
	Day             calendar.DayInfo
	DiscountPercent decimal.Decimal
}

type SlotPrice struct {
	Slot    calendar.Slot   `json:"slot"`
	IsNight bool            `json:"is_night"`
	Base    decimal.Decimal `json:"base"`
	Holiday decimal.Decimal `json:"holiday"`
	Weekend decimal.Decimal `json:"weekend"`
	Night   decimal.Decimal `json:"night"`
	Total   decimal.Decimal `json:"total"`
}

type Breakdown struct {
	model.PriceBreakdown
	Subtotal decimal.Decimal `json:"subtotal"`
	Slots    []SlotPrice     `json:"slots"`
}

type Engine struct {
	night NightClassifier
	scale int32
}

// NightClassifier decides whether a slot carries the night surcharge.
type NightClassifier interface {
	Contains(s calendar.Slot) bool
}

func NewEngine(night NightClassifier, scale int32) *Engine {
	if scale < 0 {
		scale = 0
	}
	return &Engine{night: night, scale: scale}
}

func (e *Engine) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(e.scale)
}

// Calculate prices every slot additively and applies the discount once on the
// subtotal. Identical inputs always produce identical output.
func (e *Engine) Calculate(in Input) Breakdown {
	hourly := nonNegative(in.BaseHourlyPrice)
	holidayCharge := nonNegative(in.Config.HolidayCharge)
	weekendCharge := nonNegative(in.Config.WeekendCharge)
	nightCharge := nonNegative(in.Config.NightCharge)

	var out Breakdown
	out.Slots = make([]SlotPrice, 0, len(in.Slots))
	for _, s := range in.Slots {
		minutes := decimal.NewFromInt(int64(max(s.Minutes(), 0)))
		sp := SlotPrice{
			Slot: s,
			Base: e.round(hourly.Mul(minutes).Div(minutesHour)),
		}
		if in.Day.IsHoliday {
			sp.Holiday = e.round(holidayCharge)
		}
		if in.Day.IsWeekend {
			sp.Weekend = e.round(weekendCharge)
		}
		if e.night != nil && e.night.Contains(s) {
			sp.IsNight = true
			sp.Night = e.round(nightCharge)
		}
		sp.Total = sp.Base.Add(sp.Holiday).Add(sp.Weekend).Add(sp.Night)

		out.BaseTotal = out.BaseTotal.Add(sp.Base)
		out.HolidayTotal = out.HolidayTotal.Add(sp.Holiday)
		out.WeekendTotal = out.WeekendTotal.Add(sp.Weekend)
		out.NightTotal = out.NightTotal.Add(sp.Night)
		out.Subtotal = out.Subtotal.Add(sp.Total)
		out.Slots = append(out.Slots, sp)
	}

	pct := clampPercent(in.DiscountPercent)
	out.DiscountPercent = pct
	out.DiscountAmount = e.round(out.Subtotal.Mul(pct).Div(hundred))
	out.GrandTotal = nonNegative(out.Subtotal.Sub(out.DiscountAmount))
	return out
}

// CancellationFee splits grand into the fee kept by the branch and the
// refundable remainder.
func (e *Engine) CancellationFee(grand, ratePercent decimal.Decimal) (fee, refundable decimal.Decimal) {
	grand = nonNegative(grand)
	fee = e.round(grand.Mul(clampPercent(ratePercent)).Div(hundred))
	return fee, grand.Sub(fee)
}

// LoyaltyPoints awards floor(grand × rate / 100) points.
func LoyaltyPoints(grand, ratePercent decimal.Decimal) int64 {
	return nonNegative(grand).Mul(nonNegative(ratePercent)).Div(hundred).Floor().IntPart()
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(hundred) {
		return hundred
	}
	return nonNegative(d)
}
