// Package redis keeps documents in Redis. A collection is made of a counter for the ids, one hash
// per document and a sorted set with the ids in insertion order:
//
//	contacts:seq        INCR counter
//	contacts:doc:<id>   HASH field -> value
//	contacts:ids        ZSET id scored by id
//
// All values are stored as strings.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
)

// Store is a document store on top of a Redis database.
type Store struct {
	rdb *redis.Client
}

// NewClient creates a client for the configured server. It does not connect before use.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// New returns a store using rdb.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func seqKey(collection string) string { return collection + ":seq" }
func idsKey(collection string) string { return collection + ":ids" }
func docKey(collection, id string) string {
	return collection + ":doc:" + id
}

// Insert draws the next id from the counter and stores the hash and its index entry in one
// transaction.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	seq, err := s.rdb.Incr(ctx, seqKey(collection)).Result()
	if err != nil {
		return "", err
	}
	id := strconv.FormatInt(seq, 10)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(fields) > 0 {
			pipe.HSet(ctx, docKey(collection, id), toHash(fields))
		}
		pipe.ZAdd(ctx, idsKey(collection), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// MergeUpdate sets the supplied hash fields of an indexed document.
func (s *Store) MergeUpdate(ctx context.Context, collection string, id string, fields docstore.Fields) error {
	if err := s.exists(ctx, collection, id); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return s.rdb.HSet(ctx, docKey(collection, id), toHash(fields)).Err()
}

// FetchAllOrdered loads all hashes in one pipeline and sorts them on the client.
func (s *Store) FetchAllOrdered(ctx context.Context, collection string, sortField string, ascending bool) ([]docstore.Document, error) {
	ids, err := s.rdb.ZRange(ctx, idsKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, docKey(collection, id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(ids))
	for i, id := range ids {
		docs = append(docs, document(id, cmds[i].Val()))
	}
	docstore.SortDocuments(docs, sortField, ascending)
	return docs, nil
}

// Get loads a single hash.
func (s *Store) Get(ctx context.Context, collection string, id string) (docstore.Document, error) {
	if err := s.exists(ctx, collection, id); err != nil {
		return docstore.Document{}, err
	}
	hash, err := s.rdb.HGetAll(ctx, docKey(collection, id)).Result()
	if err != nil {
		return docstore.Document{}, err
	}
	return document(id, hash), nil
}

// exists checks the index rather than the hash, since a document without fields has no hash.
func (s *Store) exists(ctx context.Context, collection, id string) error {
	err := s.rdb.ZScore(ctx, idsKey(collection), id).Err()
	if err == redis.Nil {
		return docstore.ErrNotFound
	}
	return err
}

func toHash(fields docstore.Fields) map[string]any {
	hash := make(map[string]any, len(fields))
	for k, v := range fields {
		hash[k] = fmt.Sprint(v)
	}
	return hash
}

func document(id string, hash map[string]string) docstore.Document {
	doc := docstore.Document{Id: id, Fields: make(docstore.Fields, len(hash))}
	for k, v := range hash {
		doc.Fields[k] = v
	}
	return doc
}
