// Package service is the HTTP front-end of the contacts app. It offers the same operations as
// the terminal app: listing contacts, and creating and updating them with an uploaded image.
package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/contact"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/errorx"
	api "gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// Form fields of POST and PUT requests.
const (
	formName            = "name"
	formLastContactDate = "lastContactDate"
	formImage           = "image"
)

// ObjectsPath is the URL path the local object store is served under.
const ObjectsPath = "/objects"

// Contacts is what the HTTP front-end needs from the contact service.
type Contacts interface {
	List(ctx context.Context) ([]model.Contact, error)
	Get(ctx context.Context, id string) (model.Contact, error)
	Save(ctx context.Context, req contact.SaveRequest, onProgress func(percent int)) (model.Contact, error)
}

// Options configure the router.
type Options struct {
	Logger *zap.Logger
	// GinLogging turns on logging of every request.
	GinLogging bool
	// ObjectsRoot is the root directory of the local object store. If set, it is served under
	// ObjectsPath.
	ObjectsRoot string
}

type handler struct {
	contacts Contacts
	logger   *zap.Logger
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter(contacts Contacts, opts Options) *gin.Engine {
	h := &handler{contacts: contacts, logger: opts.Logger}

	router := gin.New()
	if opts.GinLogging {
		router.Use(logger.GinLogger(opts.Logger))
	} else {
		opts.Logger.Info("Turning off HTTP request logging.")
	}
	router.Use(logger.GinRecovery(opts.Logger, true))
	router.Use(metrics.Gin())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	if opts.ObjectsRoot != "" {
		router.Static(ObjectsPath, opts.ObjectsRoot)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/contacts", h.findContacts)
	router.POST("/contacts", h.createContact)
	router.GET("/contacts/:id", h.findContactByID)
	router.PUT("/contacts/:id", h.updateContactByID)
	return router
}

// SetupObjectsRouter returns a router that only serves the local object store under
// ObjectsPath. The terminal app runs it, so that the image URLs it stores resolve without the
// HTTP service.
func SetupObjectsRouter(root string, lg *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinRecovery(lg, false))
	router.Static(ObjectsPath, root)
	return router
}

// findContacts responds with all contacts as JSON, sorted by the date of the last contact, the
// oldest first. The list may be empty.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts
func (h *handler) findContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	body := make([]api.Contact, 0, len(contacts))
	for _, ct := range contacts {
		body = append(body, toAPI(ct))
	}
	c.IndentedJSON(http.StatusOK, body)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (h *handler) findContactByID(c *gin.Context) {
	found, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, toAPI(found))
}

// createContact creates a contact from a multipart form with the fields 'name',
// 'lastContactDate' and 'image'. It responds with the full contact including the newly assigned
// id and the URL of the uploaded image.
//
// With the header 'Accept: text/event-stream' the response is a stream of server-sent events
// instead: 'progress' events while the image is uploaded, then one 'contact' or 'error' event.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts --include --form name="Erika Mustermann" --form lastContactDate=2024-01-01 --form image=@erika.png
//	> curl http://localhost:8080/contacts --no-buffer --header "Accept: text/event-stream" --form name="Erika Mustermann" --form lastContactDate=2024-01-01 --form image=@erika.png
func (h *handler) createContact(c *gin.Context) {
	req, closeImage, err := h.bindSaveRequest(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeImage()
	h.save(c, req, http.StatusCreated)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL. The multipart form carries the same fields as for createContact, but the image may be
// left out, in which case the stored image is kept. It responds with the new version of the
// contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --form name="Erika Mustermann" --form lastContactDate=2024-06-01
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --form name="Erika Mustermann" --form lastContactDate=2024-06-01 --form image=@erika.jpg
func (h *handler) updateContactByID(c *gin.Context) {
	existing, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	req, closeImage, err := h.bindSaveRequest(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeImage()
	req.Existing = &existing
	h.save(c, req, http.StatusOK)
}

// bindSaveRequest reads the multipart form. The returned function closes the image file.
func (h *handler) bindSaveRequest(c *gin.Context) (contact.SaveRequest, func(), error) {
	req := contact.SaveRequest{
		Name:            c.PostForm(formName),
		LastContactDate: c.PostForm(formLastContactDate),
	}
	header, err := c.FormFile(formImage)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return req, func() {}, nil
	}
	if err != nil {
		return req, nil, errorx.Wrap(err, errorx.CodeValidation, contact.ErrFieldsRequired.Msg)
	}
	file, err := header.Open()
	if err != nil {
		return req, nil, err
	}
	contentType, err := detectContentType(header, file)
	if err != nil {
		file.Close()
		return req, nil, err
	}
	req.Image = &contact.ImageFile{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      file,
	}
	return req, func() { file.Close() }, nil
}

// detectContentType takes the content type the client declared for the file, and sniffs it from
// the first bytes if the client did not declare one.
func detectContentType(header *multipart.FileHeader, file multipart.File) (string, error) {
	declared := header.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mtype.String(), nil
}

// save runs the save and writes the response, as JSON or as event stream.
func (h *handler) save(c *gin.Context, req contact.SaveRequest, status int) {
	if wantsEventStream(c) {
		// Invalid input is answered before the stream starts, with the same status as without it.
		if err := contact.Validate(req); err != nil {
			h.handleError(c, err)
			return
		}
		h.saveStreaming(c, req)
		return
	}
	saved, err := h.contacts.Save(c.Request.Context(), req, nil)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.IndentedJSON(status, toAPI(saved))
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

type saveResult struct {
	contact model.Contact
	err     error
}

// saveStreaming runs the save in the background and streams its progress. Progress is coalesced,
// so a slow client sees fewer, but never decreasing, percentages.
func (h *handler) saveStreaming(c *gin.Context, req contact.SaveRequest) {
	progress := make(chan int, 1)
	done := make(chan saveResult, 1)
	go func() {
		saved, err := h.contacts.Save(c.Request.Context(), req, func(percent int) {
			select {
			case progress <- percent:
			default:
				select {
				case <-progress:
				default:
				}
				progress <- percent
			}
		})
		done <- saveResult{contact: saved, err: err}
		close(progress)
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	for percent := range progress {
		c.SSEvent("progress", api.Progress{Percent: percent})
		c.Writer.Flush()
	}
	result := <-done
	if result.err != nil {
		if errorx.GetCode(result.err) == errorx.CodeServerBusy {
			h.logger.Error("system error", zap.String("path", c.Request.URL.Path), zap.Error(result.err))
		}
		c.SSEvent("error", api.Message{Message: errorx.Message(result.err)})
	} else {
		c.SSEvent("contact", toAPI(result.contact))
	}
	c.Writer.Flush()
}
