// Package contact implements saving and loading contacts: the image goes to the object store, the
// record to the document store.
package contact

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
	"gitlab.com/dirk.krummacker/contacts-app/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/errorx"
)

// MaxImageSize is the largest image that can be uploaded, 10 MiB.
const MaxImageSize = 10 << 20

// The errors a save can end with. Their message is shown to the user as is.
var (
	ErrFieldsRequired = errorx.New(errorx.CodeValidation, "All fields are required.")
	ErrNotAnImage     = errorx.New(errorx.CodeValidation, "Please select an image file.")
	ErrImageTooLarge  = errorx.New(errorx.CodeValidation, "Image size should be less than 10MB.")
	ErrUpload         = errorx.New(errorx.CodeUpload, "Error uploading image.")
	ErrAddContact     = errorx.New(errorx.CodeSave, "Error adding contact.")
	ErrSaveContact    = errorx.New(errorx.CodeSave, "Error saving contact.")
	ErrNotFound       = errorx.New(errorx.CodeNotFound, "Contact not found.")
)

// ImageFile is an image chosen by the user that has not been uploaded yet.
type ImageFile struct {
	// Name is the original file name. Only its extension is kept.
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SaveRequest holds the input of a save. Existing is nil when a new contact is created.
type SaveRequest struct {
	Name            string
	LastContactDate string
	Image           *ImageFile
	Existing        *model.Contact
}

// Service saves and loads contacts.
type Service struct {
	docs       docstore.Store
	objects    objstore.Store
	collection string
	prefix     string
	logger     *zap.Logger
	newKey     func(fileName string) string
}

// NewService returns a service that keeps contacts in the given collection and uploads images
// with the given key prefix.
func NewService(docs docstore.Store, objects objstore.Store, collection string, prefix string, logger *zap.Logger) *Service {
	s := &Service{
		docs:       docs,
		objects:    objects,
		collection: collection,
		prefix:     prefix,
		logger:     logger,
	}
	s.newKey = s.objectKey
	return s
}

// objectKey returns a new unique key that keeps the extension of the file name.
func (s *Service) objectKey(fileName string) string {
	return path.Join(s.prefix, uuid.NewString()+filepath.Ext(fileName))
}

// Validate checks the request without doing any I/O. The first failing check wins.
func Validate(req SaveRequest) error {
	if req.Name == "" || req.LastContactDate == "" || (req.Existing == nil && req.Image == nil) {
		return ErrFieldsRequired
	}
	if req.Image != nil && !strings.HasPrefix(req.Image.ContentType, "image/") {
		return ErrNotAnImage
	}
	if req.Image != nil && req.Image.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// Save validates the request, uploads the image if there is one and then writes the record,
// inserting it or merging it into the existing one. onProgress, if not nil, receives the upload
// progress in percent; it is called from the goroutine that runs Save.
//
// The upload is not rolled back if the document write fails.
func (s *Service) Save(ctx context.Context, req SaveRequest, onProgress func(percent int)) (model.Contact, error) {
	if err := Validate(req); err != nil {
		return model.Contact{}, err
	}

	c := model.Contact{Name: req.Name, LastContactDate: req.LastContactDate}
	if req.Existing != nil {
		c.Id = req.Existing.Id
		c.Image = req.Existing.Image
	}

	if req.Image == nil {
		fields := docstore.Fields{
			model.FieldName:            c.Name,
			model.FieldLastContactDate: c.LastContactDate,
		}
		if err := s.write(ctx, &c, fields); err != nil {
			s.logger.Error("saving contact failed", zap.String("id", c.Id), zap.Error(err))
			return model.Contact{}, errorx.Wrap(err, ErrSaveContact.Code, ErrSaveContact.Msg)
		}
		s.logger.Info("contact saved", zap.String("id", c.Id))
		return c, nil
	}

	url, err := s.upload(ctx, req.Image, onProgress)
	if err != nil {
		return model.Contact{}, err
	}
	c.Image = url

	if err := s.write(ctx, &c, c.Fields()); err != nil {
		s.logger.Error("adding contact failed", zap.String("id", c.Id), zap.String("image", url), zap.Error(err))
		return model.Contact{}, errorx.Wrap(err, ErrAddContact.Code, ErrAddContact.Msg)
	}
	s.logger.Info("contact saved", zap.String("id", c.Id), zap.String("image", url))
	return c, nil
}

// upload moves the image into the object store and returns its download URL.
func (s *Service) upload(ctx context.Context, img *ImageFile, onProgress func(percent int)) (string, error) {
	key := s.newKey(img.Name)
	upload := s.objects.UploadResumable(ctx, key, img.Reader, img.Size, img.ContentType)
	for p := range upload.Progress() {
		if onProgress != nil {
			onProgress(p.Percent())
		}
	}
	obj, err := upload.Wait()
	metrics.RecordUpload(img.Size, err)
	if err != nil {
		s.logger.Error("uploading image failed", zap.String("key", key), zap.Error(err))
		return "", errorx.Wrap(err, ErrUpload.Code, ErrUpload.Msg)
	}

	url, err := s.objects.ResolveDownloadURL(ctx, obj)
	if err != nil {
		s.logger.Error("resolving download URL failed", zap.String("key", key), zap.Error(err))
		return "", errorx.Wrap(err, ErrAddContact.Code, ErrAddContact.Msg)
	}
	return url, nil
}

// write inserts c, setting its id, or merges fields into the stored contact if c has an id.
func (s *Service) write(ctx context.Context, c *model.Contact, fields docstore.Fields) error {
	if c.Id == "" {
		id, err := s.docs.Insert(ctx, s.collection, fields)
		metrics.RecordWrite("insert", err)
		if err != nil {
			return err
		}
		c.Id = id
		return nil
	}
	err := s.docs.MergeUpdate(ctx, s.collection, c.Id, fields)
	metrics.RecordWrite("update", err)
	return err
}

// List returns all contacts, sorted by last contact date, oldest first.
func (s *Service) List(ctx context.Context) ([]model.Contact, error) {
	docs, err := s.docs.FetchAllOrdered(ctx, s.collection, model.FieldLastContactDate, true)
	metrics.RecordFetch(err)
	if err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, model.FromFields(doc.Id, doc.Fields))
	}
	return contacts, nil
}

// Get returns a single contact. It returns ErrNotFound if there is none with that id.
func (s *Service) Get(ctx context.Context, id string) (model.Contact, error) {
	doc, err := s.docs.Get(ctx, s.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.Contact{}, errorx.Wrap(err, ErrNotFound.Code, ErrNotFound.Msg)
	}
	if err != nil {
		return model.Contact{}, err
	}
	return model.FromFields(doc.Id, doc.Fields), nil
}
