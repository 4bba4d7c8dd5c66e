package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// image is a small PNG that is sent with every POST request.
var image = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 4096)...)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "the base URL of the contacts service")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET")
	fmt.Println("-----------------------------------------")
	sizes := []int{100, 500, 1000, 5000}
	for _, loops := range sizes {
		fmt.Printf("%10d", loops)
		ids := make([]string, 0, loops)
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest(*baseURL, i)
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			f := func(id string) int64 {
				body, contentType := createForm("Marcus Antonius", "2024-03-15", false)
				_, d := sendRequest(http.MethodPut, *baseURL+"/contacts/"+id, contentType, body)
				return d
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id string) int64 {
				_, d := sendRequest(http.MethodGet, *baseURL+"/contacts/"+id, "", nil)
				return d
			}
			callInLoop(ids, f)
		}
		fmt.Println()
	}
}

func callInLoop(ids []string, f func(id string) int64) {
	shuffled := append([]string(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		duration += f(id)
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

// createForm builds the multipart form of a save request.
func createForm(name string, lastContactDate string, withImage bool) (io.Reader, string) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("name", name)
	_ = writer.WriteField("lastContactDate", lastContactDate)
	if withImage {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="marcus.png"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		if err != nil {
			panic(err)
		}
		_, _ = part.Write(image)
	}
	if err := writer.Close(); err != nil {
		panic(err)
	}
	return &body, writer.FormDataContentType()
}

func sendPostRequest(baseURL string, i int) (string, int64) {
	date := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%1000)
	body, contentType := createForm("Marcus Antonius", date.Format(time.DateOnly), true)
	resBody, duration := sendRequest(http.MethodPost, baseURL+"/contacts", contentType, body)
	var contact model.Contact
	err := json.Unmarshal(resBody, &contact)
	if err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
	return contact.Id, duration
}

func sendRequest(method string, requestURL string, contentType string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
