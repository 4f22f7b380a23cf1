package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "pitstop/internal/bookings/errors"
	"pitstop/internal/bookings/validator"
	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/pkg/config"
	mongotx "pitstop/pkg/db/mongo"
	apperrors "pitstop/pkg/errors"
	"pitstop/pkg/logger"
	"pitstop/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc                func(ctx context.Context, booking *model.Booking) error
	findByIDFunc              func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc               func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	updateFunc                func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	deleteFunc                func(ctx context.Context, id string) error
	findActiveOverlappingFunc func(ctx context.Context, spaceID string, startDate, endDate time.Time, excludeID string) ([]model.Interval, error)
	countFunc                 func(ctx context.Context) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "65f000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) FindBySpace(ctx context.Context, spaceID string, startDate, endDate *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountBySpace(ctx context.Context, spaceID string, startDate, endDate *time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) FindActiveOverlapping(ctx context.Context, spaceID string, startDate, endDate time.Time, excludeID string) ([]model.Interval, error) {
	if m.findActiveOverlappingFunc != nil {
		return m.findActiveOverlappingFunc(ctx, spaceID, startDate, endDate, excludeID)
	}
	return []model.Interval{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockSpaceStore struct {
	findByIDFunc func(ctx context.Context, id string) (*model.ParkingSpace, error)
	availability []bool
}

func (m *mockSpaceStore) FindByID(ctx context.Context, id string) (*model.ParkingSpace, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.ParkingSpace{ID: id, OwnerID: "owner-1", Title: "Spot", Availability: true}, nil
}

func (m *mockSpaceStore) SetAvailability(ctx context.Context, id string, available bool) error {
	m.availability = append(m.availability, available)
	return nil
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

const (
	testSpaceID   = "65f0000000000000000000aa"
	testBookingID = "65f0000000000000000000bb"
)

func newTestService(repo *mockBookingRepository, locks *mockLockRepository, spaces *mockSpaceStore) BookingService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:            log,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		BookingLockTTL: 10 * time.Second,
	}
	return NewBookingService(repo, locks, spaces, validator.NewBookingValidator(log), nil, cfg)
}

func futureWindow(startIn, length time.Duration) (time.Time, time.Time) {
	start := time.Now().Add(startIn).UTC().Truncate(time.Second)
	return start, start.Add(length)
}

func validBooking() *model.Booking {
	start, end := futureWindow(24*time.Hour, 4*time.Hour)
	return &model.Booking{
		ParkingSpaceID: testSpaceID,
		UserID:         "user-1",
		StartDate:      start,
		EndDate:        end,
	}
}

func assertAppErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != wantCode {
		t.Fatalf("expected code %s, got %s (%v)", wantCode, appErr.Code, appErr)
	}
}

// ────────────────────────────────────────────────
// Overlap predicate
// ────────────────────────────────────────────────

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name                       string
		start1, end1, start2, end2 time.Time
		want                       bool
	}{
		{"identical intervals", at(0), at(4), at(0), at(4), true},
		{"partial overlap at end", at(0), at(4), at(2), at(6), true},
		{"partial overlap at start", at(2), at(6), at(0), at(4), true},
		{"first contains second", at(0), at(8), at(2), at(4), true},
		{"second contains first", at(2), at(4), at(0), at(8), true},
		{"back to back, first then second", at(0), at(4), at(4), at(8), false},
		{"back to back, second then first", at(4), at(8), at(0), at(4), false},
		{"disjoint", at(0), at(2), at(5), at(7), false},
		{"zero-length inside interval", at(1), at(1), at(0), at(4), false},
		{"one minute overlap", at(0), at(4), at(4).Add(-time.Minute), at(6), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlaps(tt.start1, tt.end1, tt.start2, tt.end2)
			if got != tt.want {
				t.Errorf("overlaps(%v, %v, %v, %v) = %v, want %v",
					tt.start1, tt.end1, tt.start2, tt.end2, got, tt.want)
			}
			// The predicate is symmetric.
			if mirrored := overlaps(tt.start2, tt.end2, tt.start1, tt.end1); mirrored != got {
				t.Errorf("overlap predicate is not symmetric for %s", tt.name)
			}
		})
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	booking := validBooking()
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != config.StatusPending {
		t.Errorf("expected new booking to be pending, got %s", booking.Status)
	}
	if booking.ID == "" {
		t.Error("expected booking ID to be set")
	}
	if len(spaces.availability) != 1 || spaces.availability[0] != false {
		t.Errorf("expected availability to be set to false once, got %v", spaces.availability)
	}
	if len(locks.deleted) != 1 {
		t.Errorf("expected advisory lock to be released, got %v", locks.deleted)
	}
}

func TestCreate_SpaceMissing(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return nil, spaceserrors.ErrNotFound
		},
	}
	svc := newTestService(repo, locks, spaces)

	err := svc.Create(context.Background(), validBooking())
	assertAppErrorCode(t, err, apperrors.CodeResourceUnavailable)
}

func TestCreate_SpaceNotAvailable(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return &model.ParkingSpace{ID: id, Availability: false}, nil
		},
	}
	svc := newTestService(repo, locks, spaces)

	err := svc.Create(context.Background(), validBooking())
	assertAppErrorCode(t, err, apperrors.CodeResourceUnavailable)

	if len(spaces.availability) != 0 {
		t.Error("availability must not be touched when admission fails")
	}
}

func TestCreate_DateConflict(t *testing.T) {
	booking := validBooking()
	existing := model.Interval{
		Start: booking.StartDate.Add(-time.Hour),
		End:   booking.StartDate.Add(time.Hour),
	}

	repo := &mockBookingRepository{
		findActiveOverlappingFunc: func(ctx context.Context, spaceID string, startDate, endDate time.Time, excludeID string) ([]model.Interval, error) {
			return []model.Interval{existing}, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("booking must not be written when dates conflict")
			return nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Create(context.Background(), booking)
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestCreate_BackToBackAllowed(t *testing.T) {
	booking := validBooking()
	// Ends exactly when the requested window starts.
	adjacent := model.Interval{
		Start: booking.StartDate.Add(-4 * time.Hour),
		End:   booking.StartDate,
	}

	repo := &mockBookingRepository{
		findActiveOverlappingFunc: func(ctx context.Context, spaceID string, startDate, endDate time.Time, excludeID string) ([]model.Interval, error) {
			// The Mongo filter already excludes it, but the in-memory
			// check must agree.
			return []model.Interval{adjacent}, nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("back-to-back booking should be admitted, got: %v", err)
	}
}

func TestCreate_ValidationAccumulatesFields(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	start, _ := futureWindow(24*time.Hour, 0)
	booking := &model.Booking{
		// Missing ParkingSpaceID and UserID, end before start.
		StartDate: start,
		EndDate:   start.Add(-time.Hour),
	}

	err := svc.Create(context.Background(), booking)
	assertAppErrorCode(t, err, apperrors.CodeValidation)

	appErr := apperrors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", appErr.Details)
	}
	if len(fields) < 3 {
		t.Errorf("expected all failing fields to be reported together, got %v", fields)
	}
}

func TestCreate_PastStartRejected(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	booking := validBooking()
	booking.StartDate = time.Now().Add(-2 * time.Hour)
	booking.EndDate = time.Now().Add(2 * time.Hour)

	err := svc.Create(context.Background(), booking)
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestCreate_LockHeldByAnotherRequest(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, mongo.WriteException{
				WriteErrors: []mongo.WriteError{{Code: 11000}},
			}
		},
	}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Create(context.Background(), validBooking())
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func existingBooking(status string) *model.Booking {
	start, end := futureWindow(48*time.Hour, 4*time.Hour)
	return &model.Booking{
		ID:             testBookingID,
		ParkingSpaceID: testSpaceID,
		UserID:         "user-1",
		StartDate:      start,
		EndDate:        end,
		Status:         status,
	}
}

func TestUpdate_StatusTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		wantCode string
	}{
		{"pending to confirmed", config.StatusPending, config.StatusConfirmed, ""},
		{"pending to cancelled", config.StatusPending, config.StatusCancelled, ""},
		{"confirmed to completed", config.StatusConfirmed, config.StatusCompleted, ""},
		{"confirmed to cancelled", config.StatusConfirmed, config.StatusCancelled, ""},
		{"pending to completed", config.StatusPending, config.StatusCompleted, apperrors.CodeConflict},
		{"completed to cancelled", config.StatusCompleted, config.StatusCancelled, apperrors.CodeConflict},
		{"cancelled to confirmed", config.StatusCancelled, config.StatusConfirmed, apperrors.CodeConflict},
		{"completed to pending", config.StatusCompleted, config.StatusPending, apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					return existingBooking(tt.from), nil
				},
			}
			locks := &mockLockRepository{}
			spaces := &mockSpaceStore{}
			svc := newTestService(repo, locks, spaces)

			err := svc.Update(context.Background(), testBookingID, "user-1", &model.BookingUpdate{Status: tt.to})
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected transition to succeed, got: %v", err)
				}
			} else {
				assertAppErrorCode(t, err, tt.wantCode)
			}
		})
	}
}

func TestUpdate_CancelRestoresAvailability(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusConfirmed), nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Update(context.Background(), testBookingID, "user-1", &model.BookingUpdate{Status: config.StatusCancelled})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(spaces.availability) != 1 || spaces.availability[0] != true {
		t.Errorf("expected availability restored to true, got %v", spaces.availability)
	}
}

func TestUpdate_CompleteDoesNotRestoreAvailability(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusConfirmed), nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Update(context.Background(), testBookingID, "user-1", &model.BookingUpdate{Status: config.StatusCompleted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(spaces.availability) != 0 {
		t.Errorf("completing a booking must not touch availability, got %v", spaces.availability)
	}
}

func TestUpdate_ForbiddenForOtherUser(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusPending), nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Update(context.Background(), testBookingID, "intruder", &model.BookingUpdate{Status: config.StatusCancelled})
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestUpdate_DateChangeExcludesOwnBooking(t *testing.T) {
	var gotExcludeID string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusPending), nil
		},
		findActiveOverlappingFunc: func(ctx context.Context, spaceID string, startDate, endDate time.Time, excludeID string) ([]model.Interval, error) {
			gotExcludeID = excludeID
			return []model.Interval{}, nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	start, end := futureWindow(72*time.Hour, 6*time.Hour)
	err := svc.Update(context.Background(), testBookingID, "user-1", &model.BookingUpdate{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotExcludeID != testBookingID {
		t.Errorf("re-admission must exclude the booking's own ID, got %q", gotExcludeID)
	}
}

func TestUpdate_DateChangeOnTerminalBookingRejected(t *testing.T) {
	for _, status := range []string{config.StatusCompleted, config.StatusCancelled} {
		t.Run(status, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					return existingBooking(status), nil
				},
			}
			locks := &mockLockRepository{}
			spaces := &mockSpaceStore{}
			svc := newTestService(repo, locks, spaces)

			start, end := futureWindow(72*time.Hour, 6*time.Hour)
			err := svc.Update(context.Background(), testBookingID, "user-1", &model.BookingUpdate{
				StartDate: &start,
				EndDate:   &end,
			})
			assertAppErrorCode(t, err, apperrors.CodeConflict)
		})
	}
}

// ────────────────────────────────────────────────
// Delete
// ────────────────────────────────────────────────

func TestDelete_RestoresAvailability(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusConfirmed), nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	if err := svc.Delete(context.Background(), testBookingID, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(spaces.availability) != 1 || spaces.availability[0] != true {
		t.Errorf("expected availability restored to true, got %v", spaces.availability)
	}
}

func TestDelete_ForbiddenForOtherUser(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return existingBooking(config.StatusPending), nil
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Delete(context.Background(), testBookingID, "intruder")
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Delete(context.Background(), testBookingID, "user-1")
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

// ────────────────────────────────────────────────
// GetAll
// ────────────────────────────────────────────────

func TestGetAll_StoreFailure(t *testing.T) {
	repo := &mockBookingRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("connection reset")
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	_, _, err := svc.GetAll(context.Background(), 10, 0)
	assertAppErrorCode(t, err, apperrors.CodeInternal)
}

func TestGetAll_StoreTimeout(t *testing.T) {
	repo := &mockBookingRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			return 0, context.DeadlineExceeded
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	_, _, err := svc.GetAll(context.Background(), 10, 0)
	assertAppErrorCode(t, err, apperrors.CodeTimeout)
}

func TestCreate_OverlapCheckTimeout(t *testing.T) {
	repo := &mockBookingRepository{
		findActiveOverlappingFunc: func(ctx context.Context, spaceID string, start, end time.Time, excludeID string) ([]model.Interval, error) {
			return nil, context.DeadlineExceeded
		},
	}
	locks := &mockLockRepository{}
	spaces := &mockSpaceStore{}
	svc := newTestService(repo, locks, spaces)

	err := svc.Create(context.Background(), validBooking())
	assertAppErrorCode(t, err, apperrors.CodeTimeout)
}
