package api

import (
	"net/http"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/gateway"
)

type MockedApiService struct{}

// NewMockedApiService creates an api service with canned responses,
// used for local development without live collaborators
func NewMockedApiService() ApiServicer {
	return &MockedApiService{}
}

// accepts any notification without touching collaborators
func (s *MockedApiService) PagHiperNotification(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// returns the default banking billet option
func (s *MockedApiService) ListPayments(w http.ResponseWriter, r *http.Request) {
	response := gateway.ListPaymentsResponse{
		PaymentGateways: []gateway.PaymentGateway{*gateway.NewPaymentGateway("pt_br")},
	}

	writeJSON(w, http.StatusOK, response)
}

// Health check for microservice
func (s *MockedApiService) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status: "UP",
	})
}
