package repository

import (
	"context"
	"time"

	"salesdesk/internal/core"
	client "salesdesk/internal/database/client"
	"salesdesk/internal/database/mongodb/model"
	"salesdesk/internal/telemetry"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TenantEventRepository MongoDB 停用時所有操作都是 no-op
type TenantEventRepository struct {
	trace      *telemetry.Trace
	collection *mongo.Collection
}

func NewTenantEventRepository(trace *telemetry.Trace, mongoClient *client.MongoClient) *TenantEventRepository {
	repository := &TenantEventRepository{
		trace:      trace,
		collection: mongoClient.Collection(core.MongoCollectionTenantEvents),
	}
	_ = repository.ensureIndexes(context.Background())
	return repository
}

func (repository *TenantEventRepository) Enabled() bool {
	return repository.collection != nil
}

func (repository *TenantEventRepository) ensureIndexes(contextValue context.Context) error {
	if !repository.Enabled() {
		return nil
	}
	_, err := repository.collection.Indexes().CreateMany(contextValue, model.TenantEventIndexes)
	return err
}

func (repository *TenantEventRepository) Create(contextValue context.Context, event *model.TenantEvent) (_ *model.TenantEvent, returnedError error) {
	if !repository.Enabled() {
		return event, nil
	}
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()
	repository.trace.ApplyTraceAttributes(span, core.TraceTenantEventMeta{
		Op:       "create",
		TenantID: event.TenantID,
		Action:   string(event.Action),
		Status:   string(event.Status),
	})

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if _, returnedError = repository.collection.InsertOne(contextValue, event); returnedError != nil {
		return nil, returnedError
	}
	return event, nil
}

// ListByTenant 新到舊；limit <= 0 代表不限制
func (repository *TenantEventRepository) ListByTenant(contextValue context.Context, tenantID string, limit int64) (_ []*model.TenantEvent, returnedError error) {
	if !repository.Enabled() {
		return []*model.TenantEvent{}, nil
	}
	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	cursor, findError := repository.collection.Find(contextValue, bson.M{"tenantId": tenantID}, findOptions)
	if findError != nil {
		return nil, findError
	}
	defer cursor.Close(contextValue)

	results := []*model.TenantEvent{}
	for cursor.Next(contextValue) {
		var event model.TenantEvent
		if decodeError := cursor.Decode(&event); decodeError != nil {
			return nil, decodeError
		}
		results = append(results, &event)
	}
	if cursorError := cursor.Err(); cursorError != nil {
		return nil, cursorError
	}
	repository.trace.ApplyTraceAttributes(span, core.TraceTenantEventMeta{Op: "list", TenantID: tenantID, Count: len(results)})
	return results, nil
}
