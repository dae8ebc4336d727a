package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	scheduleserrors "slotbook/internal/schedules/errors"
	"slotbook/pkg/config"
	mongotx "slotbook/pkg/db/mongo"
	"slotbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "ScheduledEvents"

	maxEventsPerRange = 2000
)

type EventRepository interface {
	Create(ctx context.Context, ev *model.ScheduledEvent) error
	FindByID(ctx context.Context, id string) (*model.ScheduledEvent, error)
	FindByVendorInRange(ctx context.Context, vendorID string, from, to model.CalendarDate) ([]model.ScheduledEvent, error)
	InsertMany(ctx context.Context, evs []model.ScheduledEvent) ([]string, error)
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// eventDocument is the stored shape of a ScheduledEvent. Mongo keeps only
// UTC instants, so the original offset and the wall-clock day are stored
// alongside to give the event back on the day it was booked for.
type eventDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	VendorID    string             `bson:"vendor_id"`
	Title       string             `bson:"title"`
	ServiceName string             `bson:"service_name"`
	ClientName  string             `bson:"client_name"`
	OccursAt    time.Time          `bson:"occurs_at"`
	UTCOffset   int                `bson:"utc_offset"`
	Day         string             `bson:"day"`
	Notes       string             `bson:"notes,omitempty"`
	Source      string             `bson:"source,omitempty"`
	ExternalRef string             `bson:"external_ref,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func toDocument(ev model.ScheduledEvent) eventDocument {
	_, offset := ev.OccursAt.Zone()
	return eventDocument{
		VendorID:    ev.VendorID,
		Title:       ev.Title,
		ServiceName: ev.ServiceName,
		ClientName:  ev.ClientName,
		OccursAt:    ev.OccursAt.UTC(),
		UTCOffset:   offset,
		Day:         ev.Date().String(),
		Notes:       ev.Notes,
		Source:      ev.Source,
		ExternalRef: ev.ExternalRef,
		CreatedAt:   ev.CreatedAt,
	}
}

func (d eventDocument) toModel() model.ScheduledEvent {
	occursAt := d.OccursAt.UTC()
	if d.UTCOffset != 0 {
		occursAt = occursAt.In(time.FixedZone("", d.UTCOffset))
	}
	ev := model.ScheduledEvent{
		VendorID:    d.VendorID,
		Title:       d.Title,
		ServiceName: d.ServiceName,
		ClientName:  d.ClientName,
		OccursAt:    occursAt,
		Notes:       d.Notes,
		Source:      d.Source,
		ExternalRef: d.ExternalRef,
		CreatedAt:   d.CreatedAt,
	}
	if !d.ID.IsZero() {
		ev.ID = d.ID.Hex()
	}
	return ev
}

// withTimeout leaves a SessionContext untouched; wrapping it would detach
// the operation from its transaction.
func (r *mongoEventRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoEventRepository) Create(ctx context.Context, ev *model.ScheduledEvent) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ev.CreatedAt = now()
	result, err := r.collection.InsertOne(ctx, toDocument(*ev))
	if err != nil {
		return fmt.Errorf("failed to create scheduled event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		ev.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.ScheduledEvent, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	var doc eventDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find scheduled event: %w", err)
	}

	ev := doc.toModel()
	return &ev, nil
}

// FindByVendorInRange returns the vendor's events whose wall-clock day lies
// in [from, to]. Days are stored as YYYY-MM-DD so they compare as strings.
func (r *mongoEventRepository) FindByVendorInRange(ctx context.Context, vendorID string, from, to model.CalendarDate) ([]model.ScheduledEvent, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"vendor_id": vendorID,
		"day": bson.M{
			"$gte": from.String(),
			"$lte": to.String(),
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurs_at", Value: 1}}).
		SetLimit(maxEventsPerRange)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled events: %w", err)
	}

	events := make([]model.ScheduledEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toModel())
	}
	return events, nil
}

func (r *mongoEventRepository) InsertMany(ctx context.Context, evs []model.ScheduledEvent) ([]string, error) {
	if len(evs) == 0 {
		return nil, nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	createdAt := now()
	docs := make([]any, 0, len(evs))
	for _, ev := range evs {
		ev.CreatedAt = createdAt
		docs = append(docs, toDocument(ev))
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scheduled events: %w", err)
	}

	ids := make([]string, 0, len(result.InsertedIDs))
	for _, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}

func (r *mongoEventRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete scheduled event: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
