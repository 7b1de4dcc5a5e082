package ecomplus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/constants"
)

const (
	defaultBaseURL  = "https://api.e-com.plus/v1/"
	authCachePrefix = "paghiper-bridge:auth:"
	// sessions are dropped from cache before the Store API expires them
	authCacheExpiryMargin = 5 * time.Minute
)

// returned when the PagHiper app is not installed on the store
var ErrNoApplication = errors.New("paghiper application not found on store")

// RequestError is returned for any failed Store API call. StatusCode is
// 0 when the request never got a response.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("store api request failed: %s (%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("store api request failed: %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// authenticated Store API session for one store
type Auth struct {
	StoreID     string `json:"store_id"`
	MyID        string `json:"my_id"`
	AccessToken string `json:"access_token"`
	Expires     string `json:"expires"`
}

type Discount struct {
	ApplyAt   string  `json:"apply_at,omitempty"`
	Type      string  `json:"type,omitempty"`
	Value     float64 `json:"value,omitempty"`
	MinAmount float64 `json:"min_amount,omitempty"`
}

// merged app data and hidden data for one store
type AppConfig struct {
	PagHiperAPIKey      string    `json:"paghiper_api_key"`
	PagHiperToken       string    `json:"paghiper_token"`
	Label               string    `json:"label"`
	Text                string    `json:"text"`
	Icon                string    `json:"icon"`
	Discount            *Discount `json:"discount"`
	DiscountOptionLabel string    `json:"discount_option_label"`
}

type Order struct {
	ID string `json:"_id"`
}

type ServiceImpl struct {
	baseURL     string
	appID       string
	appSecret   string
	redisClient *redis.Client
	httpClient  *http.Client
}

// creates a new ServiceImpl, redisClient may be nil to disable the
// session cache
func New(baseURL, appID, appSecret string, redisClient *redis.Client) (*ServiceImpl, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	_, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Store API base URL %s: %v", baseURL, err)
	}

	return &ServiceImpl{
		baseURL:     baseURL,
		appID:       appID,
		appSecret:   appSecret,
		redisClient: redisClient,
		httpClient:  &http.Client{},
	}, nil
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

// executes a request, checks for a 2xx status and unmarshals the
// response into out when given
func (s *ServiceImpl) do(req *http.Request, out interface{}) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &RequestError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{URL: req.URL.String(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(bodyBytes)),
		}
	}

	if out != nil {
		err = json.Unmarshal(bodyBytes, out)
		if err != nil {
			return &RequestError{URL: req.URL.String(), StatusCode: resp.StatusCode, Err: err}
		}
	}

	return nil
}

// builds an authenticated Store API request
func (s *ServiceImpl) apiRequest(ctx context.Context, auth *Auth, method, route string, body interface{}) (*http.Request, error) {
	u, err := s.fromBaseURL(route)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Store-ID", auth.StoreID)
	req.Header.Set("X-My-ID", auth.MyID)
	req.Header.Set("X-Access-Token", auth.AccessToken)

	return req, nil
}

// GetAuth authenticates against the Store API for the given store.
// Sessions are cached in Redis keyed by store ID, a cache failure falls
// back to authenticating directly.
func (s *ServiceImpl) GetAuth(ctx context.Context, storeID string) (*Auth, error) {
	cacheKey := authCachePrefix + storeID
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var auth Auth
			if json.Unmarshal([]byte(cached), &auth) == nil {
				return &auth, nil
			}
		}
	}

	u, err := s.fromBaseURL("_authenticate")
	if err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(map[string]string{
		"_id":    s.appID,
		"secret": s.appSecret,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Store-ID", storeID)

	var auth Auth
	err = s.do(req, &auth)
	if err != nil {
		return nil, err
	}
	auth.StoreID = storeID

	if s.redisClient != nil {
		if ttl := s.cacheTTL(auth.Expires); ttl > 0 {
			if authBytes, err := json.Marshal(auth); err == nil {
				s.redisClient.Set(ctx, cacheKey, authBytes, ttl)
			}
		}
	}

	return &auth, nil
}

func (s *ServiceImpl) cacheTTL(expires string) time.Duration {
	expiresAt, err := time.Parse(time.RFC3339, expires)
	if err != nil {
		return 0
	}
	return time.Until(expiresAt) - authCacheExpiryMargin
}

// MergeAppData merges app data with hidden data the way the Store API
// module requests do, hidden data wins.
func MergeAppData(data, hiddenData map[string]interface{}) (*AppConfig, error) {
	merged := map[string]interface{}{}
	for k, v := range data {
		merged[k] = v
	}
	for k, v := range hiddenData {
		merged[k] = v
	}

	mergedBytes, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	var config AppConfig
	err = json.Unmarshal(mergedBytes, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// GetAppConfig reads the installed PagHiper application row and merges
// its configured options. Hidden data carries the merchant credentials.
func (s *ServiceImpl) GetAppConfig(ctx context.Context, auth *Auth, includeHidden bool) (*AppConfig, error) {
	route := fmt.Sprintf("applications.json?app_id=%s&fields=data,hidden_data", url.QueryEscape(s.appID))
	req, err := s.apiRequest(ctx, auth, "GET", route, nil)
	if err != nil {
		return nil, err
	}

	var respBody struct {
		Result []struct {
			Data       map[string]interface{} `json:"data"`
			HiddenData map[string]interface{} `json:"hidden_data"`
		} `json:"result"`
	}
	err = s.do(req, &respBody)
	if err != nil {
		return nil, err
	}

	if len(respBody.Result) == 0 {
		return nil, ErrNoApplication
	}

	application := respBody.Result[0]
	if !includeHidden {
		return MergeAppData(application.Data, nil)
	}
	return MergeAppData(application.Data, application.HiddenData)
}

// ListOrdersByTransaction lists order IDs referencing a transaction
// code, optionally narrowed to this payment integration.
func (s *ServiceImpl) ListOrdersByTransaction(ctx context.Context, auth *Auth, transactionCode, intermediatorCode string) ([]Order, error) {
	route := fmt.Sprintf(
		"orders.json?fields=_id&transactions.intermediator.transaction_code=%s",
		url.QueryEscape(transactionCode),
	)
	if intermediatorCode != "" {
		route += fmt.Sprintf("&transactions.app.intermediator.code=%s", url.QueryEscape(intermediatorCode))
	}

	req, err := s.apiRequest(ctx, auth, "GET", route, nil)
	if err != nil {
		return nil, err
	}

	var respBody struct {
		Result []Order `json:"result"`
	}
	err = s.do(req, &respBody)
	if err != nil {
		return nil, err
	}

	return respBody.Result, nil
}

// UpdatePaymentStatus appends a payments history record to an order,
// the notification code keeps the change idempotent platform side.
func (s *ServiceImpl) UpdatePaymentStatus(ctx context.Context, auth *Auth, orderID, status, notificationCode string) error {
	route := fmt.Sprintf("orders/%s/payments_history.json", url.PathEscape(orderID))
	body := map[string]interface{}{
		"date_time":         time.Now().Format(constants.ISO8601DateFormat),
		"status":            status,
		"notification_code": notificationCode,
		"flags":             []string{constants.IntermediatorCode},
	}

	req, err := s.apiRequest(ctx, auth, "POST", route, body)
	if err != nil {
		return err
	}

	return s.do(req, nil)
}
