package validator

import (
	"errors"
	"testing"
	"time"

	"pitstop/pkg/config"
	"pitstop/pkg/logger"
	"pitstop/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewBookingValidator(log)
}

func validBooking() *model.Booking {
	start := time.Now().Add(24 * time.Hour).UTC()
	return &model.Booking{
		ParkingSpaceID: "65f0000000000000000000aa",
		UserID:         "user-1",
		StartDate:      start,
		EndDate:        start.Add(4 * time.Hour),
		Status:         config.StatusPending,
	}
}

func fieldErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	return verrs
}

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidBooking(t *testing.T) {
	v := newTestValidator()
	if err := v.Validate(validBooking()); err != nil {
		t.Fatalf("expected valid booking to pass, got: %v", err)
	}
}

func TestValidate_AccumulatesAllFieldErrors(t *testing.T) {
	v := newTestValidator()

	start := time.Now().Add(24 * time.Hour).UTC()
	booking := &model.Booking{
		// ParkingSpaceID and UserID missing, EndDate before StartDate,
		// bogus status.
		StartDate: start,
		EndDate:   start.Add(-time.Hour),
		Status:    "tentative",
	}

	errs := fieldErrors(t, v.Validate(booking))

	for _, field := range []string{"ParkingSpaceID", "UserID", "EndDate", "Status"} {
		if !hasField(errs, field) {
			t.Errorf("expected a reported error for %s, got %v", field, errs)
		}
	}
}

func TestValidate_InvalidSpaceIDFormat(t *testing.T) {
	v := newTestValidator()

	booking := validBooking()
	booking.ParkingSpaceID = "not-an-object-id"

	errs := fieldErrors(t, v.Validate(booking))
	if !hasField(errs, "ParkingSpaceID") {
		t.Errorf("expected ParkingSpaceID error, got %v", errs)
	}
}

func TestValidate_EndEqualsStartRejected(t *testing.T) {
	v := newTestValidator()

	booking := validBooking()
	booking.EndDate = booking.StartDate

	errs := fieldErrors(t, v.Validate(booking))
	if !hasField(errs, "EndDate") {
		t.Errorf("expected EndDate error for zero-length range, got %v", errs)
	}
}

func TestValidateCreate_PastStart(t *testing.T) {
	v := newTestValidator()

	booking := validBooking()
	booking.StartDate = time.Now().Add(-time.Hour)
	booking.EndDate = time.Now().Add(time.Hour)

	errs := fieldErrors(t, v.ValidateCreate(booking))
	if !hasField(errs, "StartDate") {
		t.Errorf("expected StartDate error for past start, got %v", errs)
	}
}

func TestValidateCreate_FutureBookingPasses(t *testing.T) {
	v := newTestValidator()
	if err := v.ValidateCreate(validBooking()); err != nil {
		t.Fatalf("expected future booking to pass, got: %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()
	now := time.Now().Add(24 * time.Hour).UTC()
	later := now.Add(4 * time.Hour)
	earlier := now.Add(-4 * time.Hour)
	var zero time.Time

	tests := []struct {
		name      string
		update    model.BookingUpdate
		wantField string
	}{
		{"empty update is fine", model.BookingUpdate{}, ""},
		{"status only", model.BookingUpdate{Status: config.StatusConfirmed}, ""},
		{"valid range", model.BookingUpdate{StartDate: &now, EndDate: &later}, ""},
		{"start only", model.BookingUpdate{StartDate: &now}, ""},
		{"unknown status", model.BookingUpdate{Status: "tentative"}, "Status"},
		{"end before start", model.BookingUpdate{StartDate: &now, EndDate: &earlier}, "EndDate"},
		{"end equals start", model.BookingUpdate{StartDate: &now, EndDate: &now}, "EndDate"},
		{"zero start instant", model.BookingUpdate{StartDate: &zero}, "StartDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(&tt.update)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected update to pass, got: %v", err)
				}
				return
			}
			errs := fieldErrors(t, err)
			if !hasField(errs, tt.wantField) {
				t.Errorf("expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}
