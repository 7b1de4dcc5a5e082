package prometheus_monitoring

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/config"
)

// https://prometheus.io/docs/guides/go-application/

const (
	namespace       = "paghiper_bridge"
	status_interval = 30 * time.Second
)

var (
	microserviceStatusMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "microservice_status",
		Help:      "Health status indicator for paghiper-bridge microservice",
	})
	notificationCompletedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_completed",
		Help:      "The total number of PagHiper notifications handled successfully",
	})
	notificationBadRequestMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_bad_request",
		Help:      "The total number of PagHiper notifications rejected for a malformed payload",
	})
	notificationRejectedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_rejected",
		Help:      "The total number of PagHiper notifications rejected as an expected conflict",
	})
	notificationFailedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failed",
		Help:      "The total number of PagHiper notifications failed on an operational error",
	})
	notificationAuthFailedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_auth_failed",
		Help:      "The total number of PagHiper notifications whose API key did not match the merchant config",
	})
	notificationStatusSkippedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_status_skipped",
		Help:      "The total number of PagHiper notifications ignored for an unknown transaction status",
	})
	ordersUpdatedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_updated",
		Help:      "The total number of order payment statuses changed on the Store API",
	})
	orderUpdateFailedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_update_failed",
		Help:      "The total number of times changing an order payment status on the Store API failed",
	})
)

type statusIndicators struct {
	microserviceStatus float64
}

func getStatus() (*statusIndicators, error) {
	config, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config from env")
	}

	req, err := http.NewRequest("GET", config.Monitoring.StatusURL, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status health check failed: %+v", resp)
	}

	var respBody struct {
		Status string `json:"status"`
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(bodyBytes, &respBody)
	if err != nil {
		return nil, err
	}

	s := statusIndicators{
		microserviceStatus: 0,
	}
	if respBody.Status == "UP" {
		s.microserviceStatus = 1
	}

	return &s, nil
}

func RecordMetrics() {
	go func() {
		for {
			indicators, err := getStatus()
			if err != nil {
				indicators = &statusIndicators{
					microserviceStatus: 0,
				}
				fmt.Printf("Checked status, got error: %+v\n", err)
			}

			microserviceStatusMetric.Set(indicators.microserviceStatus)

			time.Sleep(status_interval)
		}
	}()
}

func TickNotificationCompleted() {
	notificationCompletedMetric.Inc()
}

func TickNotificationBadRequest() {
	notificationBadRequestMetric.Inc()
}

func TickNotificationRejected() {
	notificationRejectedMetric.Inc()
}

func TickNotificationFailed() {
	notificationFailedMetric.Inc()
}

func TickNotificationAuthFailed() {
	notificationAuthFailedMetric.Inc()
}

func TickNotificationStatusSkipped() {
	notificationStatusSkippedMetric.Inc()
}

func AddOrdersUpdated(count int) {
	ordersUpdatedMetric.Add(float64(count))
}

func TickOrderUpdateFailed() {
	orderUpdateFailedMetric.Inc()
}
