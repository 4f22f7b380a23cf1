package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/internal/parkingspaces/geocode"
	"pitstop/internal/parkingspaces/validator"
	"pitstop/pkg/config"
	mongotx "pitstop/pkg/db/mongo"
	apperrors "pitstop/pkg/errors"
	"pitstop/pkg/logger"
	"pitstop/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockSpaceRepository struct {
	createFunc   func(ctx context.Context, space *model.ParkingSpace) error
	findByIDFunc func(ctx context.Context, id string) (*model.ParkingSpace, error)
	updateFunc   func(ctx context.Context, id string, space *model.ParkingSpace) (*mongo.UpdateResult, error)
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockSpaceRepository) Create(ctx context.Context, space *model.ParkingSpace) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, space)
	}
	space.ID = "65f0000000000000000000aa"
	return nil
}

func (m *mockSpaceRepository) FindByID(ctx context.Context, id string) (*model.ParkingSpace, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, spaceserrors.ErrNotFound
}

func (m *mockSpaceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSpace, error) {
	return []*model.ParkingSpace{}, nil
}

func (m *mockSpaceRepository) Update(ctx context.Context, id string, space *model.ParkingSpace) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, space)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockSpaceRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return nil
}

func (m *mockSpaceRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSpaceRepository) Search(ctx context.Context, search *model.SpaceSearch, limit int, offset int64) ([]*model.ParkingSpace, error) {
	return []*model.ParkingSpace{}, nil
}

func (m *mockSpaceRepository) CountSearch(ctx context.Context, search *model.SpaceSearch) (int64, error) {
	return 0, nil
}

func (m *mockSpaceRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockSpaceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockGeocoder struct {
	geocodeFunc func(ctx context.Context, address string) (*geocode.Coordinates, error)
	calls       int
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Coordinates, error) {
	m.calls++
	if m.geocodeFunc != nil {
		return m.geocodeFunc(ctx, address)
	}
	return &geocode.Coordinates{Latitude: 43.65, Longitude: -79.38}, nil
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

const testSpaceID = "65f0000000000000000000aa"

func newTestService(repo *mockSpaceRepository, geocoder *mockGeocoder) ParkingSpaceService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewParkingSpaceService(repo, geocoder, validator.NewParkingSpaceValidator(log), cfg)
}

func validSpace() *model.ParkingSpace {
	return &model.ParkingSpace{
		OwnerID:      "owner-1",
		Title:        "Covered downtown spot",
		Address:      "100 Queen St W, Toronto, ON M5H 2N2",
		PricePerHour: 4.5,
		PricePerDay:  30,
		HasRoof:      true,
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
// Create
// ────────────────────────────────────────────────

func TestCreate_GeocodesAddressWhenCoordinatesAbsent(t *testing.T) {
	repo := &mockSpaceRepository{}
	geocoder := &mockGeocoder{}
	svc := newTestService(repo, geocoder)

	space := validSpace()
	if err := svc.Create(context.Background(), space); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if geocoder.calls != 1 {
		t.Errorf("expected exactly one geocode call, got %d", geocoder.calls)
	}
	if space.Latitude != 43.65 || space.Longitude != -79.38 {
		t.Errorf("expected geocoded coordinates, got (%g, %g)", space.Latitude, space.Longitude)
	}
	if !space.Availability {
		t.Error("new listings must start available")
	}
}

func TestCreate_SkipsGeocodingWhenCoordinatesSupplied(t *testing.T) {
	repo := &mockSpaceRepository{}
	geocoder := &mockGeocoder{}
	svc := newTestService(repo, geocoder)

	space := validSpace()
	space.Latitude = 43.70
	space.Longitude = -79.40

	if err := svc.Create(context.Background(), space); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if geocoder.calls != 0 {
		t.Errorf("expected no geocode calls, got %d", geocoder.calls)
	}
	if space.Latitude != 43.70 {
		t.Errorf("supplied coordinates must win, got %g", space.Latitude)
	}
}

func TestCreate_BadAddressIsValidationError(t *testing.T) {
	repo := &mockSpaceRepository{}
	geocoder := &mockGeocoder{
		geocodeFunc: func(ctx context.Context, address string) (*geocode.Coordinates, error) {
			return nil, spaceserrors.ErrAddressNotFound
		},
	}
	svc := newTestService(repo, geocoder)

	err := svc.Create(context.Background(), validSpace())
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestCreate_GeocoderDownIsUnavailable(t *testing.T) {
	repo := &mockSpaceRepository{}
	geocoder := &mockGeocoder{
		geocodeFunc: func(ctx context.Context, address string) (*geocode.Coordinates, error) {
			return nil, spaceserrors.ErrGeocoderUnavailable
		},
	}
	svc := newTestService(repo, geocoder)

	err := svc.Create(context.Background(), validSpace())
	assertAppErrorCode(t, err, apperrors.CodeUnavailable)
}

func TestCreate_MissingTitleRejected(t *testing.T) {
	repo := &mockSpaceRepository{}
	geocoder := &mockGeocoder{}
	svc := newTestService(repo, geocoder)

	space := validSpace()
	space.Title = "   "

	err := svc.Create(context.Background(), space)
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

// ────────────────────────────────────────────────
// Update / Delete ownership
// ────────────────────────────────────────────────

func storedSpace() *model.ParkingSpace {
	return &model.ParkingSpace{
		ID:           testSpaceID,
		OwnerID:      "owner-1",
		Title:        "Covered downtown spot",
		Address:      "100 Queen St W, Toronto, ON M5H 2N2",
		Latitude:     43.65,
		Longitude:    -79.38,
		PricePerHour: 4.5,
		Availability: true,
	}
}

func TestUpdate_ForbiddenForNonOwner(t *testing.T) {
	repo := &mockSpaceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return storedSpace(), nil
		},
	}
	svc := newTestService(repo, &mockGeocoder{})

	title := "New title"
	err := svc.Update(context.Background(), testSpaceID, "intruder", &model.ParkingSpaceUpdate{Title: title})
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestUpdate_RegeocodesOnAddressChange(t *testing.T) {
	repo := &mockSpaceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return storedSpace(), nil
		},
	}
	geocoder := &mockGeocoder{
		geocodeFunc: func(ctx context.Context, address string) (*geocode.Coordinates, error) {
			return &geocode.Coordinates{Latitude: 44.0, Longitude: -78.0}, nil
		},
	}
	svc := newTestService(repo, geocoder)

	newAddress := "200 King St W, Toronto, ON M5H 3T4"
	var updated *model.ParkingSpace
	repo.updateFunc = func(ctx context.Context, id string, space *model.ParkingSpace) (*mongo.UpdateResult, error) {
		updated = space
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}

	err := svc.Update(context.Background(), testSpaceID, "owner-1", &model.ParkingSpaceUpdate{Address: &newAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geocoder.calls != 1 {
		t.Errorf("expected one geocode call for changed address, got %d", geocoder.calls)
	}
	if updated == nil || updated.Latitude != 44.0 {
		t.Errorf("expected re-geocoded coordinates to be persisted, got %+v", updated)
	}
}

func TestUpdate_NoGeocodeWhenCoordinatesSupplied(t *testing.T) {
	repo := &mockSpaceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return storedSpace(), nil
		},
	}
	geocoder := &mockGeocoder{}
	svc := newTestService(repo, geocoder)

	newAddress := "200 King St W, Toronto, ON M5H 3T4"
	lat, lng := 44.1, -78.1
	err := svc.Update(context.Background(), testSpaceID, "owner-1", &model.ParkingSpaceUpdate{
		Address:   &newAddress,
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geocoder.calls != 0 {
		t.Errorf("expected no geocode calls when coordinates supplied, got %d", geocoder.calls)
	}
}

func TestDelete_ForbiddenForNonOwner(t *testing.T) {
	repo := &mockSpaceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return storedSpace(), nil
		},
	}
	svc := newTestService(repo, &mockGeocoder{})

	err := svc.Delete(context.Background(), testSpaceID, "intruder")
	assertAppErrorCode(t, err, apperrors.CodeForbidden)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockSpaceRepository{}
	svc := newTestService(repo, &mockGeocoder{})

	err := svc.Delete(context.Background(), testSpaceID, "owner-1")
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestGetByID_EmptyID(t *testing.T) {
	svc := newTestService(&mockSpaceRepository{}, &mockGeocoder{})

	_, err := svc.GetByID(context.Background(), "")
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
}

func TestGetByID_StoreTimeout(t *testing.T) {
	repo := &mockSpaceRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ParkingSpace, error) {
			return nil, context.DeadlineExceeded
		},
	}
	svc := newTestService(repo, &mockGeocoder{})

	_, err := svc.GetByID(context.Background(), testSpaceID)
	assertAppErrorCode(t, err, apperrors.CodeTimeout)
}
