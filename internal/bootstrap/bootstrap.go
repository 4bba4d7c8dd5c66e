// Package bootstrap builds the stores and the contact service from the configuration. The
// service and the interactive app share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/contact"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore/memory"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore/mongo"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore/mysql"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore/redis"
	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore"
	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore/local"
	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore/minio"
)

// App holds the wired contact service and the resources behind it.
type App struct {
	Contacts *contact.Service

	// ObjectsRoot is the directory of the local object store, empty for other drivers.
	ObjectsRoot string

	closers []func() error
}

// Close releases the stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// New connects the configured document and object stores and builds the contact service on top.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{}
	docs, err := app.documentStore(ctx, cfg.DocumentStore)
	if err != nil {
		app.Close()
		return nil, err
	}
	objects, err := app.objectStore(ctx, cfg.ObjectStore)
	if err != nil {
		app.Close()
		return nil, err
	}
	logger.Info("stores ready",
		zap.String("documentStore", cfg.DocumentStore.Driver),
		zap.String("objectStore", cfg.ObjectStore.Driver),
	)
	app.Contacts = contact.NewService(docs, objects, cfg.DocumentStore.Collection, cfg.ObjectStore.Prefix, logger)
	return app, nil
}

func (a *App) documentStore(ctx context.Context, cfg config.DocumentStoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "mysql":
		db, err := mysql.CreateDatabase(cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		table := mysql.ContactsTable
		table.Name = cfg.Collection
		store, err := mysql.New(db, table)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "mongo":
		store, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "redis":
		store := redis.New(redis.NewClient(cfg.Redis))
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("unknown document store driver %q", cfg.Driver)
}

func (a *App) objectStore(ctx context.Context, cfg config.ObjectStoreConfig) (objstore.Store, error) {
	switch cfg.Driver {
	case "local":
		store, err := local.New(cfg.Local.Root, cfg.Local.BaseURL)
		if err != nil {
			return nil, err
		}
		a.ObjectsRoot = store.Root()
		return store, nil
	case "minio":
		store, err := minio.New(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("bucket %s: %w", cfg.Minio.Bucket, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown object store driver %q", cfg.Driver)
}
