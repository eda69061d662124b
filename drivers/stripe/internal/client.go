package driver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/singer-io/tap-stripe/types"
)

const (
	apiBaseURL = "https://api.stripe.com/v1"
	pageLimit  = "100"

	// transient failures are absorbed here, not in the sync engine
	retryCount       = 5
	notFoundCode     = "resource_missing"
	deletedLineMsg   = "line item no longer exists"
	defaultUserAgent = "tap-stripe/1.0 (go)"
)

// APIError is a typed upstream failure carrying the HTTP status and the
// error code when the API supplied one.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Msg        string `json:"message"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed [status=%d, code=%s, request=%s]: %s", e.StatusCode, e.Code, e.RequestID, e.Msg)
}

// IsNotFound reports the not-found / invalid-request family of failures.
// Prefers the coded error; falls back to message matching only when the
// upstream omitted a code.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != "" {
		return apiErr.Code == notFoundCode
	}
	return apiErr.StatusCode == http.StatusNotFound ||
		strings.Contains(strings.ToLower(apiErr.Msg), deletedLineMsg)
}

// IsDeletedLineItem matches the known recoverable deletion race on invoice
// line items.
func IsDeletedLineItem(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Msg), deletedLineMsg)
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Client is the resource client: paginated list and retrieve against the
// billing API, with retry/backoff on rate limits and server errors.
type Client struct {
	http *resty.Client
}

func NewClient(config *Config) *Client {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	rest := resty.New().
		SetBaseURL(apiBaseURL).
		SetAuthToken(config.ClientSecret).
		SetHeader("Stripe-Account", config.AccountID).
		SetHeader("User-Agent", userAgent).
		SetTimeout(time.Duration(config.RequestTimeout) * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil || resp == nil {
				return err != nil
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})

	return &Client{http: rest}
}

type listEnvelope struct {
	Object  string         `json:"object"`
	Data    []types.Record `json:"data"`
	HasMore bool           `json:"has_more"`
}

func (c *Client) get(path string, params map[string]string, dest any) error {
	resp, err := c.http.R().SetQueryParams(params).Get(path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), RequestID: resp.Header().Get("Request-Id")}
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if err := json.Unmarshal(resp.Body(), &wrapper); err == nil && wrapper.Error != nil {
			apiErr.Type = wrapper.Error.Type
			apiErr.Code = wrapper.Error.Code
			apiErr.Msg = wrapper.Error.Msg
		}
		if apiErr.Msg == "" {
			apiErr.Msg = resp.Status()
		}
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %s", path, err)
	}
	return nil
}

// List walks every page of a collection endpoint, invoking fn per raw object
// in upstream order. Filters are passed through as query parameters.
func (c *Client) List(path string, filters map[string]string, fn func(record types.Record) error) error {
	startingAfter := ""
	for {
		params := map[string]string{"limit": pageLimit}
		for key, value := range filters {
			params[key] = value
		}
		if startingAfter != "" {
			params["starting_after"] = startingAfter
		}

		page := listEnvelope{}
		if err := c.get(path, params, &page); err != nil {
			return err
		}

		for _, record := range page.Data {
			if err := fn(record); err != nil {
				return err
			}
		}

		if !page.HasMore || len(page.Data) == 0 {
			return nil
		}
		last := page.Data[len(page.Data)-1]
		id, _ := last["id"].(string)
		if id == "" {
			return fmt.Errorf("cannot paginate %s: last object has no id", path)
		}
		startingAfter = id
	}
}

// Retrieve fetches a single object by id.
func (c *Client) Retrieve(path, id string) (types.Record, error) {
	record := types.Record{}
	if err := c.get(path+"/"+id, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Account fetches the connected account, used as the connectivity check.
func (c *Client) Account() (types.Record, error) {
	record := types.Record{}
	if err := c.get("/account", nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}
