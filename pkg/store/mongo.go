package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/observability"
)

const (
	layoutCollection = "layouts"
	reportCollection = "reports"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	client  *mongo.Client
	layouts *mongo.Collection
	reports *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// ping.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongodb")
	}

	db := client.Database(database)
	return &MongoStore{
		client:  client,
		layouts: db.Collection(layoutCollection),
		reports: db.Collection(reportCollection),
	}, nil
}

// SaveLayout implements [Store].
func (s *MongoStore) SaveLayout(ctx context.Context, rec *LayoutRecord) error {
	start := time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := s.layouts.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	if err != nil {
		observability.Store().OnStoreError(ctx, layoutCollection, err)
		return errors.Wrap(errors.ErrCodeStore, err, "save layout %s", rec.ID)
	}
	observability.Store().OnStoreWrite(ctx, layoutCollection, rec.ID, time.Since(start))
	return nil
}

// GetLayout implements [Store].
func (s *MongoStore) GetLayout(ctx context.Context, id string) (*LayoutRecord, error) {
	start := time.Now()
	var rec LayoutRecord
	err := s.layouts.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		observability.Store().OnStoreRead(ctx, layoutCollection, id, false, time.Since(start))
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	if err != nil {
		observability.Store().OnStoreError(ctx, layoutCollection, err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get layout %s", id)
	}
	observability.Store().OnStoreRead(ctx, layoutCollection, id, true, time.Since(start))
	return &rec, nil
}

// ListLayouts implements [Store].
func (s *MongoStore) ListLayouts(ctx context.Context, limit int) ([]LayoutSummary, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetProjection(bson.M{"document": 0, "settings": 0})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.layouts.Find(ctx, bson.M{}, opts)
	if err != nil {
		observability.Store().OnStoreError(ctx, layoutCollection, err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list layouts")
	}
	var out []LayoutSummary
	if err := cur.All(ctx, &out); err != nil {
		observability.Store().OnStoreError(ctx, layoutCollection, err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode layout listing")
	}
	return out, nil
}

// DeleteLayout implements [Store].
func (s *MongoStore) DeleteLayout(ctx context.Context, id string) error {
	res, err := s.layouts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		observability.Store().OnStoreError(ctx, layoutCollection, err)
		return errors.Wrap(errors.ErrCodeStore, err, "delete layout %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	// Evaluations of a deleted layout are orphans; drop them too.
	_, _ = s.reports.DeleteMany(ctx, bson.M{"layout_id": id})
	return nil
}

// SaveReport implements [Store].
func (s *MongoStore) SaveReport(ctx context.Context, rec *ReportRecord) error {
	start := time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := s.reports.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	if err != nil {
		observability.Store().OnStoreError(ctx, reportCollection, err)
		return errors.Wrap(errors.ErrCodeStore, err, "save report %s", rec.ID)
	}
	observability.Store().OnStoreWrite(ctx, reportCollection, rec.ID, time.Since(start))
	return nil
}

// ListReports implements [Store].
func (s *MongoStore) ListReports(ctx context.Context, layoutID string) ([]ReportRecord, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := s.reports.Find(ctx, bson.M{"layout_id": layoutID}, opts)
	if err != nil {
		observability.Store().OnStoreError(ctx, reportCollection, err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list reports for %s", layoutID)
	}
	var out []ReportRecord
	if err := cur.All(ctx, &out); err != nil {
		observability.Store().OnStoreError(ctx, reportCollection, err)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode report listing")
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
