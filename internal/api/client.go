package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"simple-mercari-web/internal/config"
)

const (
	defaultImageName = "image.jpg"
	maxErrorBody     = 4 << 10
)

// Client talks to the marketplace backend.
type Client struct {
	endpoints config.Endpoints
	http      *http.Client
}

// New returns a Client for the given endpoints. A nil httpClient uses
// http.DefaultClient.
func New(endpoints config.Endpoints, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoints: endpoints.Trimmed(), http: httpClient}
}

// FetchItems lists every item in server order.
func (c *Client) FetchItems(ctx context.Context) (res *ItemListResponse, err error) {
	defer func(start time.Time) { observe(opFetchItems, start, err) }(time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.ItemsURL+"/items", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var out ItemListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if out.Items == nil {
		out.Items = []Item{}
	}
	return &out, nil
}

// FetchSearchResults runs a keyword search on the search endpoint and
// returns the body as-is.
func (c *Client) FetchSearchResults(ctx context.Context, keyword string) (res json.RawMessage, err error) {
	defer func(start time.Time) { observe(opSearch, start, err) }(time.Now())

	u := c.endpoints.SearchURL + "/search?keyword=" + url.QueryEscape(keyword)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search results: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("search results from %s are not JSON", u)
	}
	return json.RawMessage(body), nil
}

// PostItem submits a new listing as multipart form data. The response is
// returned uninterpreted; the caller closes its body and checks the status,
// e.g. with CheckResponse.
func (c *Client) PostItem(ctx context.Context, input CreateItemInput) (resp *http.Response, err error) {
	defer func(start time.Time) {
		if err == nil {
			observe(opPostItem, start, statusOnly(resp))
			return
		}
		observe(opPostItem, start, err)
	}(time.Now())

	body, contentType, err := encodeItem(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.ItemsURL+"/items", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err = c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post item: %w", err)
	}
	return resp, nil
}

// ImageURL is where the image of an item is served from. The name is
// appended as stored; the backend only hands out hex file names.
func (c *Client) ImageURL(imageName string) string {
	return c.endpoints.ImageURL + "/image/" + imageName
}

func encodeItem(input CreateItemInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", input.Name); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("category", input.Category); err != nil {
		return nil, "", err
	}

	filename := input.ImageName
	if filename == "" {
		filename = defaultImageName
	}
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", err
	}
	if input.Image != nil {
		if _, err := io.Copy(part, input.Image); err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// CheckResponse returns a *StatusError when resp is not 2xx. Part of the
// body is read into the error; the caller still owns resp.Body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	se := &StatusError{StatusCode: resp.StatusCode}
	if req := resp.Request; req != nil {
		se.Method = req.Method
		if req.URL != nil {
			se.URL = req.URL.String()
		}
	}
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se.Body = strings.TrimSpace(string(body))
	}
	return se
}

// statusOnly classifies resp for metrics without touching its body.
func statusOnly(resp *http.Response) error {
	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode}
}
