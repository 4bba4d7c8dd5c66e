package integrationtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/dirk.krummacker/contacts-app/internal/bootstrap"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/service"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7}, 2048)...)

// startService runs the whole service on a local port. The document store driver can be chosen
// with DOCSTORE_DRIVER and the usual connection variables; it defaults to the in-memory store.
func startService(t *testing.T) *httptest.Server {
	var handler http.Handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	if driver := os.Getenv("DOCSTORE_DRIVER"); driver != "" {
		cfg.DocumentStore.Driver = driver
		setIfPresent(&cfg.DocumentStore.MySQL.Host, "DBHOST")
		setIfPresent(&cfg.DocumentStore.MySQL.User, "DBUSER")
		setIfPresent(&cfg.DocumentStore.MySQL.Password, "DBPWD")
		setIfPresent(&cfg.DocumentStore.Mongo.URI, "MONGO_URI")
		setIfPresent(&cfg.DocumentStore.Redis.Addr, "REDIS_ADDR")
	}
	cfg.ObjectStore.Local.Root = t.TempDir()
	cfg.ObjectStore.Local.BaseURL = server.URL + "/objects"

	logger := zaptest.NewLogger(t)
	app, err := bootstrap.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	gin.SetMode(gin.ReleaseMode)
	handler = service.SetupHttpRouter(app.Contacts, service.Options{Logger: logger, ObjectsRoot: app.ObjectsRoot})
	return server
}

func setIfPresent(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

func send(t *testing.T, method string, url string, name string, date string, image []byte) (*http.Response, []byte) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("name", name))
	require.NoError(t, writer.WriteField("lastContactDate", date))
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="erika.png"`)
		header.Set("Content-Type", http.DetectContentType(image))
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, resBody
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

// TestContactHappyPath tests a POST, GET, PUT and the list with valid data, and downloads the
// uploaded image.
func TestContactHappyPath(t *testing.T) {
	server := startService(t)

	// test the endpoint for creating a contact
	res, body := send(t, "POST", server.URL+"/contacts", "Erika Mustermann", "2024-03-02", png)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var created model.Contact
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.Id)
	assert.Equal(t, "Erika Mustermann", created.Name)
	assert.Equal(t, "2024-03-02", created.LastContactDate)

	// the image can be downloaded under the returned URL
	res, image := get(t, created.Image)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, png, image)

	// test the endpoint for finding a contact
	res, body = get(t, server.URL+"/contacts/"+created.Id)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var found model.Contact
	require.NoError(t, json.Unmarshal(body, &found))
	assert.Equal(t, created, found)

	// test the endpoint for updating a contact without a new image
	res, body = send(t, "PUT", server.URL+"/contacts/"+created.Id, "Rudi Völler", "2024-04-13", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var updated model.Contact
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, model.Contact{
		Id:              created.Id,
		Name:            "Rudi Völler",
		Image:           created.Image,
		LastContactDate: "2024-04-13",
	}, updated)

	// test if a subsequent lookup of the contact returns the updated values
	res, body = get(t, server.URL+"/contacts/"+created.Id)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(body, &found))
	assert.Equal(t, updated, found)
}

// TestListIsOrderedByLastContactDate creates contacts out of order and expects the list to start
// with the contact that was contacted longest ago.
func TestListIsOrderedByLastContactDate(t *testing.T) {
	server := startService(t)
	for _, c := range []struct{ name, date string }{
		{"Carla", "2024-05-01"},
		{"Aaron", "2023-01-15"},
		{"Berta", "2023-11-30"},
	} {
		res, body := send(t, "POST", server.URL+"/contacts", c.name, c.date, png)
		require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	}

	res, body := get(t, server.URL+"/contacts")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var contacts []model.Contact
	require.NoError(t, json.Unmarshal(body, &contacts))
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Aaron", "Berta", "Carla"}, names)
}

// TestContactErrors tests the answers for invalid requests.
func TestContactErrors(t *testing.T) {
	server := startService(t)

	res, body := send(t, "POST", server.URL+"/contacts", "Erika Mustermann", "2024-03-02", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"message": "All fields are required."}`, string(body))

	res, body = send(t, "POST", server.URL+"/contacts", "Erika Mustermann", "2024-03-02", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.JSONEq(t, `{"message": "Please select an image file."}`, string(body))

	res, _ = get(t, server.URL+"/contacts/does-not-exist")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = send(t, "PUT", server.URL+"/contacts/does-not-exist", "Erika Mustermann", "2024-03-02", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
