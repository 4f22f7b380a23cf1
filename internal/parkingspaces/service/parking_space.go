package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/internal/parkingspaces/geocode"
	"pitstop/internal/parkingspaces/repository"
	"pitstop/internal/parkingspaces/validator"
	"pitstop/pkg/config"
	apperrors "pitstop/pkg/errors"
	"pitstop/pkg/model"
	"pitstop/pkg/sanitizer"
)

type ParkingSpaceService interface {
	Create(ctx context.Context, space *model.ParkingSpace) error
	GetByID(ctx context.Context, id string) (*model.ParkingSpace, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSpace, int64, error)
	Update(ctx context.Context, id string, ownerID string, updates *model.ParkingSpaceUpdate) error
	Delete(ctx context.Context, id string, ownerID string) error
	Search(ctx context.Context, search *model.SpaceSearch, limit int, offset int64) ([]*model.ParkingSpace, int64, error)
}

type parkingSpaceService struct {
	repo      repository.ParkingSpaceRepository
	geocoder  geocode.Geocoder
	validator *validator.ParkingSpaceValidator
	cfg       *config.Config
}

func NewParkingSpaceService(
	repo repository.ParkingSpaceRepository,
	geocoder geocode.Geocoder,
	validator *validator.ParkingSpaceValidator,
	cfg *config.Config,
) ParkingSpaceService {
	return &parkingSpaceService{
		repo:      repo,
		geocoder:  geocoder,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *parkingSpaceService) Create(ctx context.Context, space *model.ParkingSpace) error {
	s.sanitize(space)
	space.Availability = true // new listings are bookable until a booking lands

	// Coordinates win over the address; geocode only when they are absent.
	if space.Address != "" && space.Latitude == 0 && space.Longitude == 0 {
		coords, err := s.geocodeAddress(ctx, space.Address)
		if err != nil {
			return err
		}
		space.Latitude = coords.Latitude
		space.Longitude = coords.Longitude
	}

	if err := s.validator.Validate(space); err != nil {
		s.cfg.Log.Warn("Parking space validation failed", "error", err)
		return apperrors.Validation("Parking space validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, space); err != nil {
		s.cfg.Log.Error("Failed to create parking space", "error", err)
		return storeError("Failed to create parking space", err)
	}

	s.cfg.Log.Info("Parking space created successfully",
		"id", space.ID,
		"owner_id", space.OwnerID,
		"title", space.Title,
	)
	return nil
}

func (s *parkingSpaceService) GetByID(ctx context.Context, id string) (*model.ParkingSpace, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Parking space ID cannot be empty")
	}

	space, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Parking space", id)
		}
		if errors.Is(err, spaceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid parking space ID format")
		}
		return nil, storeError("Failed to retrieve parking space", err)
	}

	return space, nil
}

func (s *parkingSpaceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSpace, int64, error) {
	var count int64
	var spaces []*model.ParkingSpace
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count parking spaces", "error", errCount)
			errCount = storeError("Failed to count parking spaces", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		spaces, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list parking spaces", "error", errFind)
			errFind = storeError("Failed to retrieve parking spaces", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return spaces, count, nil
}

func (s *parkingSpaceService) Update(ctx context.Context, id string, ownerID string, updates *model.ParkingSpaceUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Parking space ID cannot be empty")
	}
	if ownerID == "" {
		return apperrors.InvalidInput("User ID is required")
	}

	existing, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Parking space update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeSpaceUpdates(existing, updates)
	s.sanitize(merged)

	// A changed address without explicit coordinates needs re-geocoding.
	addressChanged := updates.Address != nil && *updates.Address != existing.Address
	coordsSupplied := updates.Latitude != nil || updates.Longitude != nil
	if addressChanged && !coordsSupplied && merged.Address != "" {
		coords, err := s.geocodeAddress(ctx, merged.Address)
		if err != nil {
			return err
		}
		merged.Latitude = coords.Latitude
		merged.Longitude = coords.Longitude
	}

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Parking space validation failed", "id", id, "error", err)
		return apperrors.Validation("Parking space validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Parking space", id)
		}
		s.cfg.Log.Error("Failed to update parking space", "id", id, "error", err)
		return storeError("Failed to update parking space", err)
	}

	s.cfg.Log.Info("Parking space updated successfully", "id", id)
	return nil
}

func (s *parkingSpaceService) Delete(ctx context.Context, id string, ownerID string) error {
	if id == "" {
		return apperrors.InvalidInput("Parking space ID cannot be empty")
	}
	if ownerID == "" {
		return apperrors.InvalidInput("User ID is required")
	}

	if _, err := s.findOwned(ctx, id, ownerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Parking space", id)
		}
		return storeError("Failed to delete parking space", err)
	}

	s.cfg.Log.Info("Parking space deleted successfully", "id", id)
	return nil
}

func (s *parkingSpaceService) Search(ctx context.Context, search *model.SpaceSearch, limit int, offset int64) ([]*model.ParkingSpace, int64, error) {
	var count int64
	var spaces []*model.ParkingSpace
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountSearch(ctx, search)
		if err != nil {
			s.cfg.Log.Error("Failed to count parking spaces by search", "error", err)
			errCount = storeError("Failed to count parking spaces", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		spaces, err = s.repo.Search(ctx, search, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search parking spaces",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = storeError("Failed to search parking spaces", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Parking space search completed",
		"count", len(spaces),
		"total_count", count,
	)
	return spaces, count, nil
}

// --- Helpers ---

func (s *parkingSpaceService) sanitize(space *model.ParkingSpace) {
	space.Title = sanitizer.NormalizeTitle(space.Title)
	space.Description = sanitizer.TrimAndNormalize(space.Description)
	space.Address = sanitizer.NormalizeAddress(space.Address)
	space.SurfaceType = sanitizer.NormalizeSurfaceType(space.SurfaceType)
	space.PricePerHour = sanitizer.ClampPrice(space.PricePerHour)
	space.PricePerDay = sanitizer.ClampPrice(space.PricePerDay)
}

func (s *parkingSpaceService) geocodeAddress(ctx context.Context, address string) (*geocode.Coordinates, error) {
	coords, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrAddressNotFound) {
			s.cfg.Log.Warn("Address could not be geocoded", "error", err)
			return nil, apperrors.Validation("Address could not be geocoded", map[string]any{"error": err.Error()})
		}
		s.cfg.Log.Error("Geocoding provider failure", "error", err)
		return nil, apperrors.Unavailable("Geocoding service")
	}
	return coords, nil
}

// storeError classifies a failed store call. Deadline exhaustion is transient
// and surfaces as a timeout so callers can retry; anything else is internal.
func storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return apperrors.Timeout(message)
	}
	return apperrors.Internal(message, err)
}

func (s *parkingSpaceService) findOwned(ctx context.Context, id string, ownerID string) (*model.ParkingSpace, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, spaceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Parking space", id)
		}
		if errors.Is(err, spaceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid parking space ID format")
		}
		return nil, storeError("Failed to check parking space existence", err)
	}
	if existing.OwnerID != ownerID {
		return nil, apperrors.Forbidden("You can only modify your own parking spaces")
	}
	return existing, nil
}

func (s *parkingSpaceService) mergeSpaceUpdates(existing *model.ParkingSpace, updates *model.ParkingSpaceUpdate) *model.ParkingSpace {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Latitude != nil {
		merged.Latitude = *updates.Latitude
	}
	if updates.Longitude != nil {
		merged.Longitude = *updates.Longitude
	}
	if updates.PricePerHour != nil {
		merged.PricePerHour = *updates.PricePerHour
	}
	if updates.PricePerDay != nil {
		merged.PricePerDay = *updates.PricePerDay
	}
	if updates.HasRoof != nil {
		merged.HasRoof = *updates.HasRoof
	}
	if updates.CanAccomodateLargeVehicles != nil {
		merged.CanAccomodateLargeVehicles = *updates.CanAccomodateLargeVehicles
	}
	if updates.SurfaceType != nil {
		merged.SurfaceType = *updates.SurfaceType
	}
	if updates.Dimensions != nil {
		merged.Dimensions = updates.Dimensions
	}

	return &merged
}
