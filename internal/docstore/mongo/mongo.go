// Package mongo keeps documents in MongoDB collections. Document ids are the hex form of the
// ObjectID that MongoDB generates on insert.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
)

// Store is a document store on top of a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates a client for the configured URI and checks that the server answers.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", cfg.URI, err)
	}
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Insert inserts a document and returns the generated ObjectID in hex form.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	result, err := s.db.Collection(collection).InsertOne(ctx, toBSON(fields))
	if err != nil {
		return "", err
	}
	oid, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongo: unexpected id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// MergeUpdate sets the supplied fields with $set.
func (s *Store) MergeUpdate(ctx context.Context, collection string, id string, fields docstore.Fields) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return docstore.ErrNotFound
	}
	result, err := s.db.Collection(collection).UpdateByID(ctx, oid, bson.M{"$set": toBSON(fields)})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// FetchAllOrdered finds all documents sorted on the server. Equal keys are ordered by _id, which
// for ObjectIDs is the insertion order.
func (s *Store) FetchAllOrdered(ctx context.Context, collection string, sortField string, ascending bool) ([]docstore.Document, error) {
	opts := options.Find().SetSort(sortSpec(sortField, ascending))
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

// Get finds a single document by id.
func (s *Store) Get(ctx context.Context, collection string, id string) (docstore.Document, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return docstore.Document{}, docstore.ErrNotFound
	}
	var m bson.M
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return fromBSON(m), nil
}

func sortSpec(field string, ascending bool) bson.D {
	direction := 1
	if !ascending {
		direction = -1
	}
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}}
}

func toBSON(fields docstore.Fields) bson.M {
	m := make(bson.M, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return m
}

func fromBSON(m bson.M) docstore.Document {
	doc := docstore.Document{Fields: docstore.Fields{}}
	for k, v := range m {
		if k == "_id" {
			switch id := v.(type) {
			case bson.ObjectID:
				doc.Id = id.Hex()
			default:
				doc.Id = fmt.Sprint(id)
			}
			continue
		}
		doc.Fields[k] = v
	}
	return doc
}
