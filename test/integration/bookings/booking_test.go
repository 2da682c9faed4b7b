//go:build integration

package bookings

import (
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"courtbook/internal/servicebookings/repository"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/model"
	"courtbook/test/integration/testutil"

	"github.com/shopspring/decimal"
)

func location(t *testing.T) *time.Location {
	t.Helper()
	name := os.Getenv("TIME_ZONE")
	if name == "" {
		name = "Asia/Ho_Chi_Minh"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("invalid TIME_ZONE %q: %v", name, err)
	}
	return loc
}

func bookingBody(c testutil.Catalog, date time.Time, start, end string) map[string]any {
	return map[string]any{
		"customer":  map[string]string{"kind": "customer", "id": c.CustomerID},
		"court_id":  c.CourtID,
		"branch_id": c.BranchID,
		"date":      date.Format("2006-01-02"),
		"slots":     []map[string]string{{"start": start, "end": end}},
	}
}

func TestBookingLifecycle(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	catalog := mongo.SeedCatalog(t)
	date := testutil.NextWeekday(time.Wednesday, location(t))

	var booking model.CourtBooking

	// ────────────────────────────────────────────────
	// Create
	// ────────────────────────────────────────────────
	t.Run("create priced night slot", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(catalog, date, "18:00", "19:00"))
		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var created []model.CourtBooking
		testutil.Data(t, resp, &created)
		if len(created) != 1 {
			t.Fatalf("expected one booking, got %d", len(created))
		}
		booking = created[0]

		if booking.Status != model.Confirmed {
			t.Errorf("status = %s, want Confirmed", booking.Status)
		}
		if !booking.Price.BaseTotal.Equal(decimal.RequireFromString("100000")) {
			t.Errorf("base_total = %s, want 100000", booking.Price.BaseTotal)
		}
		if !booking.Price.NightTotal.Equal(decimal.RequireFromString("10000")) {
			t.Errorf("night_total = %s, want 10000", booking.Price.NightTotal)
		}
	})

	t.Run("same slot conflicts", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(catalog, date, "18:00", "19:00"))
		testutil.AssertStatusCode(t, resp, http.StatusConflict)
		if code := testutil.ErrorCode(t, resp); code != apperrors.CodeConflict {
			t.Errorf("code = %s, want %s", code, apperrors.CodeConflict)
		}
	})

	t.Run("availability reports the overlap", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/availability", map[string]any{
			"court_id": catalog.CourtID,
			"date":     date.Format("2006-01-02"),
			"slots":    []map[string]string{{"start": "18:00", "end": "19:00"}},
		})
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result model.AvailabilityResult
		testutil.Data(t, resp, &result)
		if result.Available {
			t.Fatal("expected slot to be unavailable")
		}
		if result.Conflict == nil || result.Conflict.BookingID != booking.ID {
			t.Errorf("unexpected conflict: %+v", result.Conflict)
		}
	})

	t.Run("concurrent requests for one slot have one winner", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		statuses := make(chan int, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp := client.POST(t, "/api/v1/bookings", bookingBody(catalog, date, "20:00", "21:00"))
				statuses <- resp.StatusCode
			}()
		}
		wg.Wait()
		close(statuses)

		created := 0
		for status := range statuses {
			switch status {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
			default:
				t.Errorf("unexpected status %d", status)
			}
		}
		if created != 1 {
			t.Errorf("created = %d, want exactly 1", created)
		}
	})

	// ────────────────────────────────────────────────
	// Services
	// ────────────────────────────────────────────────
	t.Run("attach services decrements stock", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/service-bookings", map[string]any{
			"court_booking_id": booking.ID,
			"items":            []map[string]any{{"branch_service_id": catalog.WaterID, "quantity": 3}},
		})
		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var stored model.BranchService
		mongo.FindByID(t, repository.BranchServicesCollection, catalog.WaterID, &stored)
		if stored.CurrentStock != 7 {
			t.Errorf("current_stock = %d, want 7", stored.CurrentStock)
		}
	})

	t.Run("oversized attachment is rejected whole", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/service-bookings", map[string]any{
			"court_booking_id": booking.ID,
			"items":            []map[string]any{{"branch_service_id": catalog.WaterID, "quantity": 50}},
		})
		testutil.AssertStatusCode(t, resp, http.StatusConflict)
		if code := testutil.ErrorCode(t, resp); code != apperrors.CodeInsufficientStock {
			t.Errorf("code = %s, want %s", code, apperrors.CodeInsufficientStock)
		}
	})

	// ────────────────────────────────────────────────
	// Cancel
	// ────────────────────────────────────────────────
	t.Run("cancel more than a day ahead charges the lower rate", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings/id/"+booking.ID+"/cancel", map[string]any{})
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var invoice model.Invoice
		testutil.Data(t, resp, &invoice)

		wantFee := booking.Price.GrandTotal.Mul(decimal.RequireFromString("0.1")).Round(0)
		if !invoice.Fee.Equal(wantFee) {
			t.Errorf("fee = %s, want %s", invoice.Fee, wantFee)
		}
		if !invoice.Refundable.Equal(booking.Price.GrandTotal.Sub(wantFee)) {
			t.Errorf("refundable = %s, want %s", invoice.Refundable, booking.Price.GrandTotal.Sub(wantFee))
		}
	})

	t.Run("second cancel is an invalid transition", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings/id/"+booking.ID+"/cancel", map[string]any{})
		testutil.AssertStatusCode(t, resp, http.StatusConflict)
		if code := testutil.ErrorCode(t, resp); code != apperrors.CodeInvalidStateTransition {
			t.Errorf("code = %s, want %s", code, apperrors.CodeInvalidStateTransition)
		}
	})

	t.Run("cancelled slot can be rebooked", func(t *testing.T) {
		resp := client.POST(t, "/api/v1/bookings", bookingBody(catalog, date, "18:00", "19:00"))
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
	})
}
