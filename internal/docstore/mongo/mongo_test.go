package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
)

func TestFromBSON(t *testing.T) {
	oid := bson.NewObjectID()

	doc := fromBSON(bson.M{"_id": oid, "name": "Aaron", "lastContactDate": "2024-01-01"})

	assert.Equal(t, oid.Hex(), doc.Id)
	assert.Equal(t, docstore.Fields{"name": "Aaron", "lastContactDate": "2024-01-01"}, doc.Fields)
}

func TestSortSpec(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "lastContactDate", Value: 1}, {Key: "_id", Value: 1}}, sortSpec("lastContactDate", true))
	assert.Equal(t, bson.D{{Key: "lastContactDate", Value: -1}, {Key: "_id", Value: 1}}, sortSpec("lastContactDate", false))
}

// TestStoreAgainstServer runs the store against a real MongoDB. It is skipped unless MONGO_URI is
// set, e.g.
//
//	> MONGO_URI=mongodb://localhost:27017 go test ./internal/docstore/mongo
func TestStoreAgainstServer(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := Connect(ctx, config.MongoConfig{URI: uri, Database: "contacts_test"})
	require.NoError(t, err)
	defer store.Close()
	collection := "contacts_" + bson.NewObjectID().Hex()
	defer store.db.Collection(collection).Drop(ctx)

	late, err := store.Insert(ctx, collection, docstore.Fields{"name": "Late", "image": "a", "lastContactDate": "2024-05-01"})
	require.NoError(t, err)
	early, err := store.Insert(ctx, collection, docstore.Fields{"name": "Early", "image": "b", "lastContactDate": "2023-05-01"})
	require.NoError(t, err)

	require.NoError(t, store.MergeUpdate(ctx, collection, late, docstore.Fields{"name": "Later"}))
	assert.ErrorIs(t, store.MergeUpdate(ctx, collection, bson.NewObjectID().Hex(), docstore.Fields{"name": "x"}), docstore.ErrNotFound)

	docs, err := store.FetchAllOrdered(ctx, collection, "lastContactDate", true)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, early, docs[0].Id)
	assert.Equal(t, "Later", docs[1].Fields["name"])
	assert.Equal(t, "a", docs[1].Fields["image"])

	_, err = store.Get(ctx, collection, "not-an-object-id")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
