package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServerError represents an error response from the server
type ServerError struct {
	Result  int            `json:"result"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// HTTPError represents an error response from the server with a status code
type HTTPError struct {
	StatusCode int
	Message    string
	Details    map[string]any
}

func (e *HTTPError) Error() string {
	if holder, ok := e.Details["checkedOutBy"].(string); ok && holder != "" {
		return fmt.Sprintf("%s (checked out by %s)", e.Message, holder)
	}
	if files, ok := e.Details["invalidFiles"].([]any); ok && len(files) > 0 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, fmt.Sprint(f))
		}
		return fmt.Sprintf("%s (invalid files: %s)", e.Message, strings.Join(names, ", "))
	}
	return e.Message
}

// HTTPClient talks to the asset server on behalf of the configured user.
type HTTPClient struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client using the provided configuration
func NewHTTPClient(config *Config) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// RequestOptions contains options for making HTTP requests
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        io.Reader
	ContentType string
}

func (c *HTTPClient) newRequest(opts RequestOptions) (*http.Request, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(opts.Method, u.String(), opts.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if c.config.IdentityHeader != "" && c.config.User != "" {
		req.Header.Set(c.config.IdentityHeader, c.config.User)
	}
	return req, nil
}

// Do sends the request and returns the open response. Error statuses are
// decoded into an HTTPError and the body is closed.
func (c *HTTPClient) Do(opts RequestOptions) (*http.Response, error) {
	req, err := c.newRequest(opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var serverErr ServerError
		if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
			return nil, &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    serverErr.Error,
				Details:    serverErr.Details,
			}
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// DoRequest makes an HTTP request and returns the response body and Location header.
func (c *HTTPClient) DoRequest(opts RequestOptions) ([]byte, string, error) {
	resp, err := c.Do(opts)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %v", err)
	}
	return body, resp.Header.Get("Location"), nil
}

// PostJSON marshals v and posts it to p.
func (c *HTTPClient) PostJSON(p string, v any) ([]byte, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request: %v", err)
	}
	return c.DoRequest(RequestOptions{
		Method: http.MethodPost,
		Path:   p,
		Body:   bytes.NewReader(data),
	})
}

// Get fetches p with the given query parameters.
func (c *HTTPClient) Get(p string, queryParams map[string]string) ([]byte, error) {
	body, _, err := c.DoRequest(RequestOptions{
		Method:      http.MethodGet,
		Path:        p,
		QueryParams: queryParams,
	})
	return body, err
}

// Upload stages one file for asset and returns the locator to put in a manifest.
func (c *HTTPClient) Upload(asset, filename string, r io.Reader) (string, error) {
	query := map[string]string{}
	if c.config.User != "" {
		query["requester"] = c.config.User
	}
	body, _, err := c.DoRequest(RequestOptions{
		Method:      http.MethodPut,
		Path:        "/assets/" + asset + "/files/" + filename,
		QueryParams: query,
		Body:        r,
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", err
	}
	var rsp struct {
		Locator string `json:"locator"`
	}
	if err := json.Unmarshal(body, &rsp); err != nil || rsp.Locator == "" {
		return "", fmt.Errorf("unexpected upload response: %s", string(body))
	}
	return rsp.Locator, nil
}
