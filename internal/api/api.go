package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/ecomplus"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/gateway"
	prometheus_monitoring "bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/monitoring"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/notifications"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/transactions"
)

type ApiServicer interface {
	PagHiperNotification(w http.ResponseWriter, r *http.Request)
	ListPayments(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
}

type ApiService struct {
	notificationsService notifications.Service
	transactionsService  transactions.Service
	logger               *zerolog.Logger
}

// NewApiService creates an api service
func NewApiService(
	notificationsService notifications.Service,
	transactionsService transactions.Service,
	logger *zerolog.Logger,
) ApiServicer {
	return &ApiService{
		notificationsService: notificationsService,
		transactionsService:  transactionsService,
		logger:               logger,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// receives PagHiper notification callbacks
// https://dev.paghiper.com/reference#qq
func (s *ApiService) PagHiperNotification(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With().
		Str("request_id", uuid.NewString()).
		Logger()

	var payload notifications.Payload
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		prometheus_monitoring.TickNotificationBadRequest()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = s.notificationsService.ProcessNotification(r.Context(), payload)
	if err == nil {
		// Store API was changed with current transaction status, all done
		prometheus_monitoring.TickNotificationCompleted()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var notificationErr *notifications.Error
	if !errors.As(err, &notificationErr) {
		prometheus_monitoring.TickNotificationFailed()
		logger.Error().Err(err).Msg("unclassified notification failure")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "paghiper_notification_error",
			Message: err.Error(),
		})
		return
	}

	switch notificationErr.Kind {
	case notifications.KindInput:
		prometheus_monitoring.TickNotificationBadRequest()
		w.WriteHeader(http.StatusBadRequest)

	case notifications.KindAuth, notifications.KindNotFound, notifications.KindConflict:
		// expected conflict, one concise diagnostic line
		prometheus_monitoring.TickNotificationRejected()
		debugMsg := fmt.Sprintf("[#%s / %s] Unhandled notification: %s",
			notificationErr.StoreID, notificationErr.TransactionCode, notificationErr.Endpoint)
		if notificationErr.StatusCode > 0 {
			debugMsg += fmt.Sprintf(" %d", notificationErr.StatusCode)
		} else {
			debugMsg += " " + notificationErr.Message
		}
		logger.Info().Str("kind", notificationErr.Kind.String()).Msg(debugMsg)
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "paghiper_notification_error",
			Message: notificationErr.Message,
		})

	default:
		// operational error, log with full detail
		prometheus_monitoring.TickNotificationFailed()
		logger.Error().
			Err(notificationErr.Err).
			Str("store_id", notificationErr.StoreID).
			Str("transaction_code", notificationErr.TransactionCode).
			Str("endpoint", notificationErr.Endpoint).
			Int("status_code", notificationErr.StatusCode).
			Msg(notificationErr.Message)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "paghiper_notification_error",
			Message: notificationErr.Message,
		})
	}
}

// E-Com Plus list_payments module request body, the platform sends the
// app row along so no Store API call is needed here
type listPaymentsRequestBody struct {
	Params      gateway.ListPaymentsParams `json:"params"`
	Application struct {
		Data       map[string]interface{} `json:"data"`
		HiddenData map[string]interface{} `json:"hidden_data"`
	} `json:"application"`
}

// responds to the list_payments module with the configured banking
// billet option
func (s *ApiService) ListPayments(w http.ResponseWriter, r *http.Request) {
	var body listPaymentsRequestBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "LIST_PAYMENTS_ERR",
			Message: "invalid module request body",
		})
		return
	}

	appConfig, err := ecomplus.MergeAppData(body.Application.Data, body.Application.HiddenData)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "LIST_PAYMENTS_ERR",
			Message: "invalid application data",
		})
		return
	}

	if appConfig.PagHiperAPIKey == "" {
		// must have configured PagHiper API key and token
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "LIST_PAYMENTS_ERR",
			Message: "PagHiper API key is unset on app hidden data (merchant must configure the app)",
		})
		return
	}

	writeJSON(w, http.StatusOK, gateway.BuildListPaymentsResponse(body.Params, appConfig))
}

type statusResponse struct {
	Status string `json:"status"`
}

// Health check for microservice
func (s *ApiService) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Status: "UP",
	}

	// check the transaction lookup store
	err := s.transactionsService.Ping(r.Context())
	if err != nil {
		status.Status = fmt.Sprintf("Failed to reach transaction store: %+v", err)
	}

	writeJSON(w, http.StatusOK, status)
}
