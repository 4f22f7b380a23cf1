package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "pitstop/internal/bookings/errors"
	"pitstop/internal/bookings/events"
	"pitstop/internal/bookings/repository"
	"pitstop/internal/bookings/validator"
	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/pkg/config"
	apperrors "pitstop/pkg/errors"
	"pitstop/pkg/model"
)

// SpaceStore is the slice of the parking-space repository the booking flow
// needs: resolving a space and flipping its availability flag. Both run inside
// the booking transaction, so implementations must honor SessionContext.
type SpaceStore interface {
	FindByID(ctx context.Context, id string) (*model.ParkingSpace, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, userID string, updates *model.BookingUpdate) error
	Delete(ctx context.Context, id string, userID string) error
	SearchBySpace(ctx context.Context, spaceID string, startDate, endDate *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	spaces    SpaceStore
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	spaces SpaceStore,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		spaces:    spaces,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// allowedTransitions is the booking status state machine. Completed and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	config.StatusPending:   {config.StatusConfirmed, config.StatusCancelled},
	config.StatusConfirmed: {config.StatusCompleted, config.StatusCancelled},
}

func canTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	// New bookings always start pending, regardless of what the client sent.
	booking.Status = config.StatusPending
	booking.StartDate = booking.StartDate.UTC()
	booking.EndDate = booking.EndDate.UTC()

	if err := s.validator.ValidateCreate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", validationDetails(err))
	}

	// Acquire the advisory lock so concurrent admissions on the same space
	// are serialized; requests for other spaces proceed independently.
	lockID, err := s.acquireSpaceLock(ctx, booking.ParkingSpaceID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSpaceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.admit(sessCtx, booking, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return storeError("Failed to create booking", err)
		}
		// The availability flip commits or rolls back together with the
		// booking insert; a half-applied pair cannot be observed.
		if err := s.spaces.SetAvailability(sessCtx, booking.ParkingSpaceID, false); err != nil {
			return storeError("Failed to mark parking space unavailable", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"parking_space_id", booking.ParkingSpaceID,
		"user_id", booking.UserID,
		"start_date", booking.StartDate,
	)
	s.publisher.Publish(ctx, &events.BookingEvent{
		Type:           events.TypeBookingCreated,
		BookingID:      booking.ID,
		ParkingSpaceID: booking.ParkingSpaceID,
		UserID:         booking.UserID,
		StartDate:      booking.StartDate,
		EndDate:        booking.EndDate,
		Status:         booking.Status,
	})
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, storeError("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = storeError("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = storeError("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, userID string, updates *model.BookingUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if userID == "" {
		return apperrors.InvalidInput("User ID is required")
	}

	existing, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", validationDetails(err))
	}

	datesChanged := updates.StartDate != nil || updates.EndDate != nil
	statusChanged := updates.Status != "" && updates.Status != existing.Status

	if statusChanged && !canTransition(existing.Status, updates.Status) {
		return apperrors.Conflict(fmt.Sprintf(
			"Cannot change booking status from %s to %s", existing.Status, updates.Status,
		))
	}
	if datesChanged && terminal(existing.Status) {
		return apperrors.Conflict(fmt.Sprintf(
			"Cannot change dates of a %s booking", existing.Status,
		))
	}

	merged := s.mergeBookingUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "id", id, "error", err)
		return apperrors.Validation("Booking validation failed", validationDetails(err))
	}

	lockID, err := s.acquireSpaceLock(ctx, merged.ParkingSpaceID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSpaceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if datesChanged {
			// Re-admission: the booking's own document must not count
			// against itself.
			if err := s.admit(sessCtx, merged, id); err != nil {
				return err
			}
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return storeError("Failed to update booking", err)
		}
		if statusChanged && updates.Status == config.StatusCancelled {
			if err := s.spaces.SetAvailability(sessCtx, merged.ParkingSpaceID, true); err != nil {
				return storeError("Failed to restore parking space availability", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id, "status", merged.Status)
	if statusChanged {
		s.publisher.Publish(ctx, &events.BookingEvent{
			Type:           events.TypeBookingStatusChanged,
			BookingID:      id,
			ParkingSpaceID: merged.ParkingSpaceID,
			UserID:         merged.UserID,
			StartDate:      merged.StartDate,
			EndDate:        merged.EndDate,
			Status:         merged.Status,
		})
	}
	return nil
}

func (s *bookingService) Delete(ctx context.Context, id string, userID string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if userID == "" {
		return apperrors.InvalidInput("User ID is required")
	}

	existing, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return storeError("Failed to delete booking", err)
		}
		if err := s.spaces.SetAvailability(sessCtx, existing.ParkingSpaceID, true); err != nil {
			return storeError("Failed to restore parking space availability", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publisher.Publish(ctx, &events.BookingEvent{
		Type:           events.TypeBookingDeleted,
		BookingID:      id,
		ParkingSpaceID: existing.ParkingSpaceID,
		UserID:         existing.UserID,
		StartDate:      existing.StartDate,
		EndDate:        existing.EndDate,
		Status:         existing.Status,
	})
	return nil
}

func (s *bookingService) SearchBySpace(ctx context.Context, spaceID string, startDate, endDate *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if spaceID == "" {
		return nil, 0, apperrors.InvalidInput("Parking space ID is required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySpace(ctx, spaceID, startDate, endDate)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by search",
				"parking_space_id", spaceID,
				"error", err,
			)
			errCount = storeError("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindBySpace(ctx, spaceID, startDate, endDate, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"parking_space_id", spaceID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = storeError("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Booking search completed",
		"parking_space_id", spaceID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// --- Helpers ---

// admit runs the full admission check for a booking: the space must exist and
// be available, and no non-cancelled booking on the space may overlap the
// requested window. excludeID exempts the booking's own document on update.
func (s *bookingService) admit(ctx context.Context, booking *model.Booking, excludeID string) error {
	space, err := s.spaces.FindByID(ctx, booking.ParkingSpaceID)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) || errors.Is(err, spaceserrors.ErrInvalidID) {
			return apperrors.ResourceUnavailable(fmt.Sprintf("Parking space %s does not exist", booking.ParkingSpaceID))
		}
		return storeError("Failed to resolve parking space", err)
	}
	if excludeID == "" && !space.Availability {
		return apperrors.ResourceUnavailable(fmt.Sprintf("Parking space %s is not available for booking", booking.ParkingSpaceID))
	}

	existing, err := s.repo.FindActiveOverlapping(ctx, booking.ParkingSpaceID, booking.StartDate, booking.EndDate, excludeID)
	if err != nil {
		return storeError("Failed to check existing bookings", err)
	}

	for _, iv := range existing {
		if overlaps(iv.Start, iv.End, booking.StartDate, booking.EndDate) {
			return apperrors.Conflict(fmt.Sprintf(
				"Booking dates overlap with an existing booking (%s - %s)",
				iv.Start.Format(time.RFC3339),
				iv.End.Format(time.RFC3339),
			))
		}
	}
	return nil
}

// overlaps reports whether two half-open intervals [start1, end1) and
// [start2, end2) intersect. Back-to-back bookings (end1 == start2) do not,
// and an empty interval intersects nothing.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	if !start1.Before(end1) || !start2.Before(end2) {
		return false
	}
	return start1.Before(end2) && end1.After(start2)
}

func terminal(status string) bool {
	return status == config.StatusCompleted || status == config.StatusCancelled
}

// storeError classifies a failed store call. Deadline exhaustion is transient
// and surfaces as a timeout so callers can retry; anything else is internal.
func storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return apperrors.Timeout(message)
	}
	return apperrors.Internal(message, err)
}

func (s *bookingService) findOwned(ctx context.Context, id string, userID string) (*model.Booking, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, storeError("Failed to check booking existence", err)
	}
	if existing.UserID != userID {
		return nil, apperrors.Forbidden("You can only modify your own bookings")
	}
	return existing, nil
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.StartDate != nil {
		merged.StartDate = updates.StartDate.UTC()
	}
	if updates.EndDate != nil {
		merged.EndDate = updates.EndDate.UTC()
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

func validationDetails(err error) map[string]any {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]map[string]string, 0, len(validationErrs))
		for _, ve := range validationErrs {
			fields = append(fields, map[string]string{
				"field":   ve.Field,
				"message": ve.Message,
			})
		}
		return map[string]any{"fields": fields}
	}
	return map[string]any{"error": err.Error()}
}

// acquireSpaceLock creates the advisory lock that linearizes admission on a
// single parking space. Conflict means another request holds the space.
func (s *bookingService) acquireSpaceLock(ctx context.Context, spaceID string) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s", spaceID)

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This parking space is currently being booked by another request. Please try again.")
		}
		return "", storeError("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSpaceLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
