package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	spaceserrors "pitstop/internal/parkingspaces/errors"
	"pitstop/pkg/config"
	mongotx "pitstop/pkg/db/mongo"
	"pitstop/pkg/model"
)

const (
	CollectionName = "Parking_spaces"
)

type mongoParkingSpaceRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ParkingSpaceRepository interface {
	Create(ctx context.Context, space *model.ParkingSpace) error
	FindByID(ctx context.Context, id string) (*model.ParkingSpace, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSpace, error)
	Update(ctx context.Context, id string, space *model.ParkingSpace) (*mongo.UpdateResult, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, search *model.SpaceSearch, limit int, offset int64) ([]*model.ParkingSpace, error)
	CountSearch(ctx context.Context, search *model.SpaceSearch) (int64, error)
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoParkingSpaceRepository(cfg *config.Config) ParkingSpaceRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoParkingSpaceRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func (r *mongoParkingSpaceRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoParkingSpaceRepository) Create(ctx context.Context, space *model.ParkingSpace) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	space.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, space)
	if err != nil {
		return fmt.Errorf("failed to create parking space: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		space.ID = oid.Hex()
	}
	return nil
}

func (r *mongoParkingSpaceRepository) FindByID(ctx context.Context, id string) (*model.ParkingSpace, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", spaceserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var space model.ParkingSpace
	err = r.collection.FindOne(ctx, filter).Decode(&space)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, spaceserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find parking space: %w", err)
	}

	return &space, nil
}

func (r *mongoParkingSpaceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSpace, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find parking spaces: %w", err)
	}
	defer cursor.Close(ctx)

	var spaces []*model.ParkingSpace
	if err = cursor.All(ctx, &spaces); err != nil {
		return nil, fmt.Errorf("failed to decode parking spaces: %w", err)
	}

	return spaces, nil
}

func (r *mongoParkingSpaceRepository) Update(ctx context.Context, id string, space *model.ParkingSpace) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", spaceserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"title":                         space.Title,
			"description":                   space.Description,
			"address":                       space.Address,
			"latitude":                      space.Latitude,
			"longitude":                     space.Longitude,
			"price_per_hour":                space.PricePerHour,
			"price_per_day":                 space.PricePerDay,
			"has_roof":                      space.HasRoof,
			"can_accomodate_large_vehicles": space.CanAccomodateLargeVehicles,
			"surface_type":                  space.SurfaceType,
			"dimensions":                    space.Dimensions,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update parking space: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, spaceserrors.ErrNotFound
	}

	return result, nil
}

// SetAvailability flips only the availability flag. The booking service calls
// this inside its transaction; the flag is never exposed for direct mutation.
func (r *mongoParkingSpaceRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", spaceserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"availability": available}},
	)
	if err != nil {
		return fmt.Errorf("failed to set parking space availability: %w", err)
	}

	if result.MatchedCount == 0 {
		return spaceserrors.ErrNotFound
	}

	return nil
}

func (r *mongoParkingSpaceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", spaceserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete parking space: %w", err)
	}

	if result.DeletedCount == 0 {
		return spaceserrors.ErrNotFound
	}

	return nil
}

func (r *mongoParkingSpaceRepository) Search(ctx context.Context, search *model.SpaceSearch, limit int, offset int64) ([]*model.ParkingSpace, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := buildSearchFilter(search)

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "price_per_hour", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search parking spaces: %w", err)
	}
	defer cursor.Close(ctx)

	var spaces []*model.ParkingSpace
	if err = cursor.All(ctx, &spaces); err != nil {
		return nil, fmt.Errorf("failed to decode parking spaces: %w", err)
	}

	return spaces, nil
}

func (r *mongoParkingSpaceRepository) CountSearch(ctx context.Context, search *model.SpaceSearch) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(search))
	if err != nil {
		return 0, fmt.Errorf("failed to count parking spaces by search: %w", err)
	}
	return count, nil
}

func buildSearchFilter(search *model.SpaceSearch) bson.M {
	filter := bson.M{}
	if search == nil {
		return filter
	}

	if search.OnlyAvailable {
		filter["availability"] = true
	}
	if search.MaxPricePerHour != nil {
		filter["price_per_hour"] = bson.M{"$lte": *search.MaxPricePerHour}
	}
	if search.MaxPricePerDay != nil {
		filter["price_per_day"] = bson.M{"$lte": *search.MaxPricePerDay}
	}
	if search.RequireRoof {
		filter["has_roof"] = true
	}
	if search.LargeVehicleOnly {
		filter["can_accomodate_large_vehicles"] = true
	}

	return filter
}

func (r *mongoParkingSpaceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count parking spaces: %w", err)
	}

	return count, nil
}

func (r *mongoParkingSpaceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
