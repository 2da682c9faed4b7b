package pricing

import (
	"courtbook/internal/calendar"
	"courtbook/pkg/model"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var loc = time.FixedZone("ICT", 7*3600)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func slotAt(t *testing.T, date time.Time, start, end string) calendar.Slot {
	t.Helper()
	r, err := calendar.ParseRange(start, end)
	if err != nil {
		t.Fatalf("ParseRange(%s, %s): %v", start, end, err)
	}
	return r.On(date)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	night, err := calendar.NewNightWindow("18:00", "06:00")
	if err != nil {
		t.Fatalf("NewNightWindow: %v", err)
	}
	return NewEngine(night, 0)
}

func branchConfig() model.BranchConfig {
	return model.BranchConfig{
		HolidayCharge:      dec("20000"),
		WeekendCharge:      dec("15000"),
		NightCharge:        dec("10000"),
		CancelFeeBefore24h: dec("10"),
		CancelFeeWithin24h: dec("50"),
		LoyaltyPointRate:   dec("1"),
	}
}

func TestCalculate_HolidayNightScenario(t *testing.T) {
	e := newEngine(t)
	date := time.Date(2025, 1, 29, 0, 0, 0, 0, loc)

	got := e.Calculate(Input{
		BaseHourlyPrice: dec("100000"),
		Config:          branchConfig(),
		Slots:           []calendar.Slot{slotAt(t, date, "18:00", "19:00")},
		Day:             calendar.DayInfo{Date: date, IsHoliday: true},
	})

	if !got.GrandTotal.Equal(dec("130000")) {
		t.Errorf("GrandTotal = %s, want 130000", got.GrandTotal)
	}
	if !got.BaseTotal.Equal(dec("100000")) || !got.HolidayTotal.Equal(dec("20000")) || !got.NightTotal.Equal(dec("10000")) {
		t.Errorf("unexpected breakdown: %+v", got.PriceBreakdown)
	}
	if !got.WeekendTotal.IsZero() {
		t.Errorf("WeekendTotal = %s, want 0", got.WeekendTotal)
	}
	if len(got.Slots) != 1 || !got.Slots[0].IsNight {
		t.Errorf("expected one night slot, got %+v", got.Slots)
	}
}

func TestCalculate_Cases(t *testing.T) {
	date := time.Date(2025, 1, 11, 0, 0, 0, 0, loc)

	tests := []struct {
		name     string
		price    string
		slots    [][2]string
		day      calendar.DayInfo
		discount string
		want     model.PriceBreakdown
	}{
		{
			name:  "weekday morning",
			price: "80000",
			slots: [][2]string{{"08:00", "09:00"}},
			want:  model.PriceBreakdown{BaseTotal: dec("80000"), GrandTotal: dec("80000")},
		},
		{
			name:  "weekend evening two slots",
			price: "80000",
			slots: [][2]string{{"17:00", "18:00"}, {"18:00", "19:00"}},
			day:   calendar.DayInfo{IsWeekend: true},
			want: model.PriceBreakdown{
				BaseTotal:    dec("160000"),
				WeekendTotal: dec("30000"),
				NightTotal:   dec("10000"),
				GrandTotal:   dec("200000"),
			},
		},
		{
			name:  "ninety minute slot",
			price: "100000",
			slots: [][2]string{{"06:00", "07:30"}},
			want:  model.PriceBreakdown{BaseTotal: dec("150000"), GrandTotal: dec("150000")},
		},
		{
			name:     "discount on subtotal",
			price:    "100000",
			slots:    [][2]string{{"08:00", "09:00"}},
			day:      calendar.DayInfo{IsHoliday: true},
			discount: "10",
			want: model.PriceBreakdown{
				BaseTotal:       dec("100000"),
				HolidayTotal:    dec("20000"),
				DiscountPercent: dec("10"),
				DiscountAmount:  dec("12000"),
				GrandTotal:      dec("108000"),
			},
		},
		{
			name:     "discount rounds half up",
			price:    "12345",
			slots:    [][2]string{{"08:00", "09:00"}},
			discount: "10",
			want: model.PriceBreakdown{
				BaseTotal:       dec("12345"),
				DiscountPercent: dec("10"),
				DiscountAmount:  dec("1235"),
				GrandTotal:      dec("11110"),
			},
		},
		{
			name:     "discount above hundred is capped",
			price:    "50000",
			slots:    [][2]string{{"08:00", "09:00"}},
			discount: "150",
			want: model.PriceBreakdown{
				BaseTotal:       dec("50000"),
				DiscountPercent: dec("100"),
				DiscountAmount:  dec("50000"),
				GrandTotal:      dec("0"),
			},
		},
		{
			name:  "negative price clamps to zero",
			price: "-100",
			slots: [][2]string{{"08:00", "09:00"}},
			want:  model.PriceBreakdown{},
		},
	}

	e := newEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slots []calendar.Slot
			for _, s := range tt.slots {
				slots = append(slots, slotAt(t, date, s[0], s[1]))
			}
			discount := decimal.Zero
			if tt.discount != "" {
				discount = dec(tt.discount)
			}

			got := e.Calculate(Input{
				BaseHourlyPrice: dec(tt.price),
				Config:          branchConfig(),
				Slots:           slots,
				Day:             tt.day,
				DiscountPercent: discount,
			}).PriceBreakdown

			checks := []struct {
				field     string
				got, want decimal.Decimal
			}{
				{"BaseTotal", got.BaseTotal, tt.want.BaseTotal},
				{"HolidayTotal", got.HolidayTotal, tt.want.HolidayTotal},
				{"WeekendTotal", got.WeekendTotal, tt.want.WeekendTotal},
				{"NightTotal", got.NightTotal, tt.want.NightTotal},
				{"DiscountPercent", got.DiscountPercent, tt.want.DiscountPercent},
				{"DiscountAmount", got.DiscountAmount, tt.want.DiscountAmount},
				{"GrandTotal", got.GrandTotal, tt.want.GrandTotal},
			}
			for _, c := range checks {
				if !c.got.Equal(c.want) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	e := newEngine(t)
	date := time.Date(2025, 1, 11, 0, 0, 0, 0, loc)
	in := Input{
		BaseHourlyPrice: dec("99999.5"),
		Config:          branchConfig(),
		Slots:           []calendar.Slot{slotAt(t, date, "17:00", "18:30"), slotAt(t, date, "20:00", "21:30")},
		Day:             calendar.DayInfo{IsWeekend: true, IsHoliday: true},
		DiscountPercent: dec("7.5"),
	}

	first := e.Calculate(in)
	second := e.Calculate(in)

	if !first.GrandTotal.Equal(second.GrandTotal) || !first.DiscountAmount.Equal(second.DiscountAmount) {
		t.Fatalf("results differ: %s vs %s", first.GrandTotal, second.GrandTotal)
	}
	if !first.GrandTotal.Equal(first.GrandTotal.Round(0)) {
		t.Errorf("GrandTotal %s not rounded to the currency unit", first.GrandTotal)
	}
}

func TestCalculate_CurrencyScale(t *testing.T) {
	night, _ := calendar.NewNightWindow("18:00", "06:00")
	e := NewEngine(night, 2)
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, loc)

	got := e.Calculate(Input{
		BaseHourlyPrice: dec("10.01"),
		Slots:           []calendar.Slot{slotAt(t, date, "08:00", "09:30")},
	})

	if !got.BaseTotal.Equal(dec("15.02")) {
		t.Errorf("BaseTotal = %s, want 15.02", got.BaseTotal)
	}
}

func TestCancellationFee(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name           string
		grand          string
		rate           string
		wantFee        string
		wantRefundable string
	}{
		{"before 24h", "200000", "10", "20000", "180000"},
		{"within 24h", "200000", "50", "100000", "100000"},
		{"zero rate", "200000", "0", "0", "200000"},
		{"rounds half up", "12345", "10", "1235", "11110"},
		{"full forfeit", "80000", "100", "80000", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, refundable := e.CancellationFee(dec(tt.grand), dec(tt.rate))
			if !fee.Equal(dec(tt.wantFee)) {
				t.Errorf("fee = %s, want %s", fee, tt.wantFee)
			}
			if !refundable.Equal(dec(tt.wantRefundable)) {
				t.Errorf("refundable = %s, want %s", refundable, tt.wantRefundable)
			}
		})
	}
}

func TestLoyaltyPoints(t *testing.T) {
	if got := LoyaltyPoints(dec("130000"), dec("1")); got != 1300 {
		t.Errorf("LoyaltyPoints = %d, want 1300", got)
	}
	if got := LoyaltyPoints(dec("999"), dec("1")); got != 9 {
		t.Errorf("LoyaltyPoints floors, got %d want 9", got)
	}
	if got := LoyaltyPoints(dec("1000"), dec("-5")); got != 0 {
		t.Errorf("negative rate should award nothing, got %d", got)
	}
}
