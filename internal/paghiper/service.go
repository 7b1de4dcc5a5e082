package paghiper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.paghiper.com/"

// RequestError is returned for any failed PagHiper API call. StatusCode
// is 0 when the request never got a response.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("paghiper api request failed: %s (%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("paghiper api request failed: %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type ServiceImpl struct {
	baseURL    string
	httpClient *http.Client
}

// creates a new ServiceImpl
func New(baseURL string) (*ServiceImpl, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	_, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid PagHiper base URL %s: %v", baseURL, err)
	}

	return &ServiceImpl{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

type ReadNotificationRequest struct {
	APIKey         string
	TransactionID  string
	NotificationID string
	// merchant token resolved from the app hidden data
	Token string
}

type StatusRequest struct {
	TransactionID string      `json:"transaction_id"`
	OrderID       string      `json:"order_id"`
	Status        string      `json:"status"`
	StatusDate    string      `json:"status_date"`
	ValueCents    json.Number `json:"value_cents"`
	PaidDate      string      `json:"paid_date"`
}

type NotificationResponse struct {
	StatusRequest StatusRequest `json:"status_request"`
}

func (s *ServiceImpl) fromBaseURL(route string) (*url.URL, error) {
	u, err := url.Parse(route)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}

	return base.ResolveReference(u), nil
}

// reads the full notification body back from the PagHiper API, the
// callback itself only carries identifiers
func (s *ServiceImpl) ReadNotification(ctx context.Context, readNotificationRequest ReadNotificationRequest) (*NotificationResponse, error) {
	// "/transaction/notification/"
	u, err := s.fromBaseURL("transaction/notification/")
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("apiKey", readNotificationRequest.APIKey)
	form.Set("token", readNotificationRequest.Token)
	form.Set("transaction_id", readNotificationRequest.TransactionID)
	form.Set("notification_id", readNotificationRequest.NotificationID)

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: u.String(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read notification failed: %s", string(bodyBytes)),
		}
	}

	var respBody NotificationResponse
	err = json.Unmarshal(bodyBytes, &respBody)
	if err != nil {
		return nil, &RequestError{URL: u.String(), StatusCode: resp.StatusCode, Err: err}
	}

	return &respBody, nil
}
