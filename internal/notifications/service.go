package notifications

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/constants"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/ecomplus"
	prometheus_monitoring "bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/monitoring"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/paghiper"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/transactions"
)

// fields consumed from the PagHiper callback body
// https://dev.paghiper.com/reference#qq
type Payload struct {
	TransactionID  string `json:"transaction_id"`
	APIKey         string `json:"apiKey"`
	NotificationID string `json:"notification_id"`
}

type ServiceImpl struct {
	transactionsService transactions.Service
	ecomplusService     ecomplus.Service
	paghiperService     paghiper.Service
	logger              *zerolog.Logger
}

// creates a new ServiceImpl
func New(
	transactionsService transactions.Service,
	ecomplusService ecomplus.Service,
	paghiperService paghiper.Service,
	logger *zerolog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		transactionsService: transactionsService,
		ecomplusService:     ecomplusService,
		paghiperService:     paghiperService,
		logger:              logger,
	}
}

// ProcessNotification runs the whole notification pipeline: locate the
// store, authenticate the callback, read the authoritative transaction
// status from PagHiper, map it and change every matching order on the
// Store API. A nil return means the caller should answer 204.
func (s *ServiceImpl) ProcessNotification(ctx context.Context, payload Payload) error {
	if payload.TransactionID == "" {
		return &Error{
			Kind:    KindInput,
			Message: "notification body is missing transaction_id",
		}
	}

	transaction, err := s.transactionsService.GetTransaction(ctx, payload.TransactionID)
	if err != nil {
		return s.externalError(err, "", payload.TransactionID, "failed to locate store for transaction")
	}
	storeID := transaction.StoreID

	auth, err := s.ecomplusService.GetAuth(ctx, storeID)
	if err != nil {
		return s.externalError(err, storeID, payload.TransactionID, "failed to authenticate on Store API")
	}

	// app configured options including hidden (authenticated) data
	appConfig, err := s.ecomplusService.GetAppConfig(ctx, auth, true)
	if err != nil {
		return s.externalError(err, storeID, payload.TransactionID, "failed to read app config")
	}

	// sole authentication gate for inbound callbacks, they carry no signature
	if appConfig.PagHiperToken == "" || appConfig.PagHiperAPIKey != payload.APIKey {
		prometheus_monitoring.TickNotificationAuthFailed()
		s.recordEvent(ctx, storeID, payload, "", "rejected_auth")
		return &Error{
			Kind:            KindAuth,
			StoreID:         storeID,
			TransactionCode: payload.TransactionID,
			Message:         "API key does not match",
		}
	}

	notification, err := s.paghiperService.ReadNotification(ctx, paghiper.ReadNotificationRequest{
		APIKey:         payload.APIKey,
		TransactionID:  payload.TransactionID,
		NotificationID: payload.NotificationID,
		Token:          appConfig.PagHiperToken,
	})
	if err != nil {
		return s.externalError(err, storeID, payload.TransactionID, "failed to read notification from PagHiper")
	}

	paghiperStatus := notification.StatusRequest.Status
	status, ok := MapPaymentStatus(paghiperStatus)
	if !ok {
		// ignore unknown status
		prometheus_monitoring.TickNotificationStatusSkipped()
		s.recordEvent(ctx, storeID, payload, paghiperStatus, "skipped")
		return nil
	}

	orders, err := s.ecomplusService.ListOrdersByTransaction(ctx, auth, payload.TransactionID, constants.IntermediatorCode)
	if err != nil {
		return s.externalError(err, storeID, payload.TransactionID, "failed to list orders for transaction")
	}

	// change transaction status on every matching order concurrently,
	// orders are independent so no ordering is required
	var group errgroup.Group
	for _, order := range orders {
		order := order
		group.Go(func() error {
			return s.ecomplusService.UpdatePaymentStatus(ctx, auth, order.ID, status, payload.NotificationID)
		})
	}
	if err := group.Wait(); err != nil {
		prometheus_monitoring.TickOrderUpdateFailed()
		s.recordEvent(ctx, storeID, payload, status, "update_failed")
		return s.externalError(err, storeID, payload.TransactionID, "failed to update order payment status")
	}

	prometheus_monitoring.AddOrdersUpdated(len(orders))
	s.recordEvent(ctx, storeID, payload, status, "updated")
	return nil
}

// externalError wraps a collaborator failure into a tagged Error,
// classifying refused calls apart from operational faults.
func (s *ServiceImpl) externalError(err error, storeID, transactionCode, message string) *Error {
	notificationErr := &Error{
		Kind:            KindTransport,
		StoreID:         storeID,
		TransactionCode: transactionCode,
		Message:         message,
		Err:             err,
	}

	var storeErr *ecomplus.RequestError
	var processorErr *paghiper.RequestError
	switch {
	case errors.Is(err, transactions.ErrNotFound), errors.Is(err, ecomplus.ErrNoApplication):
		notificationErr.Kind = KindNotFound
	case errors.As(err, &storeErr):
		notificationErr.Endpoint = storeErr.URL
		notificationErr.StatusCode = storeErr.StatusCode
		if storeErr.StatusCode >= 400 && storeErr.StatusCode < 500 {
			notificationErr.Kind = KindConflict
		}
	case errors.As(err, &processorErr):
		notificationErr.Endpoint = processorErr.URL
		notificationErr.StatusCode = processorErr.StatusCode
		if processorErr.StatusCode >= 400 && processorErr.StatusCode < 500 {
			notificationErr.Kind = KindConflict
		}
	}

	return notificationErr
}

// recordEvent writes the audit row for a handled callback, bookkeeping
// never changes the pipeline outcome
func (s *ServiceImpl) recordEvent(ctx context.Context, storeID string, payload Payload, status, result string) {
	event := transactions.NotificationEvent{
		EventID:          s.transactionsService.GenerateULID("EVENT"),
		TransactionCode:  payload.TransactionID,
		StoreID:          storeID,
		NotificationCode: payload.NotificationID,
		Status:           status,
		Result:           result,
	}

	err := s.transactionsService.RecordNotificationEvent(ctx, event)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("transaction_code", payload.TransactionID).
			Str("store_id", storeID).
			Msg("failed to record notification event")
	}
}
