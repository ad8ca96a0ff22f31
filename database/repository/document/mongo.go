package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restate/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoStore implements Store on a MongoDB database, one collection per name.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a Store backed by db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// withTimeout bounds a single store round trip.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes listing and reconciliation rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context, indexes map[string][]mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for collection, idx := range indexes {
		if len(idx) == 0 {
			continue
		}
		if _, err := s.coll(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc Document
	if err := s.coll(collection).FindOne(ctx, bson.M{models.FieldID: id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *MongoStore) List(ctx context.Context, collection string, queries ...Query) ([]Document, error) {
	filter, opts, err := Compile(queries)
	if err != nil {
		return nil, fmt.Errorf("invalid query on %s: %w", collection, err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := make([]Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, fields Document) (Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	doc := make(Document, len(fields)+3)
	for k, v := range fields {
		doc[k] = v
	}
	doc[models.FieldID] = id
	doc[models.FieldCreatedAt] = now
	doc[models.FieldUpdatedAt] = now

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.coll(collection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Document) (Document, error) {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		if k == models.FieldID || k == models.FieldCreatedAt {
			continue
		}
		set[k] = v
	}
	set[models.FieldUpdatedAt] = time.Now().UTC()

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc Document
	err := s.coll(collection).FindOneAndUpdate(ctx, bson.M{models.FieldID: id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll(collection).DeleteOne(ctx, bson.M{models.FieldID: id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// AddToSet compares against the id of each existing entry, so a value is not
// appended next to an embedded reference to the same document.
func (s *MongoStore) AddToSet(ctx context.Context, collection, id, field string, values ...string) error {
	current := bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}
	refs := bson.M{"$map": bson.M{"input": current, "as": "item", "in": refExpr("$$item")}}
	missing := bson.M{"$filter": bson.M{
		"input": bson.M{"$literal": dedupe(values)},
		"as":    "value",
		"cond":  bson.M{"$not": bson.A{bson.M{"$in": bson.A{"$$value", refs}}}},
	}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		field:                 bson.M{"$concatArrays": bson.A{current, missing}},
		models.FieldUpdatedAt: time.Now().UTC(),
	}}}}
	return s.updateArray(ctx, collection, id, field, update)
}

// Pull removes raw ids and embedded references whose id is in values.
func (s *MongoStore) Pull(ctx context.Context, collection, id, field string, values ...string) error {
	kept := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}},
		"as":    "item",
		"cond":  bson.M{"$not": bson.A{bson.M{"$in": bson.A{refExpr("$$item"), bson.M{"$literal": values}}}}},
	}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		field:                 kept,
		models.FieldUpdatedAt: time.Now().UTC(),
	}}}}
	return s.updateArray(ctx, collection, id, field, update)
}

// refExpr resolves an array entry to its id the way models.RefID does.
// $getField is needed because "$id" cannot be written as a field path.
func refExpr(item string) bson.M {
	get := func(name string) bson.M {
		return bson.M{"$getField": bson.M{"field": bson.M{"$literal": name}, "input": item}}
	}
	return bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$type": item}, "object"}},
		bson.M{"$ifNull": bson.A{get(models.FieldID), get("$id"), get("id"), ""}},
		item,
	}}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *MongoStore) updateArray(ctx context.Context, collection, id, field string, update interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll(collection).UpdateOne(ctx, bson.M{models.FieldID: id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s on %s/%s: %w", field, collection, id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}
