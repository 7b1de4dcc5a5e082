package gateway

import (
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/constants"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/ecomplus"
)

type Intermediator struct {
	Code string `json:"code"`
	Link string `json:"link"`
	Name string `json:"name"`
}

type PaymentMethod struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type PaymentGateway struct {
	Label         string             `json:"label"`
	Text          string             `json:"text,omitempty"`
	Icon          string             `json:"icon,omitempty"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	Intermediator Intermediator      `json:"intermediator"`
	Type          string             `json:"type"`
	Discount      *ecomplus.Discount `json:"discount,omitempty"`
}

type Amount struct {
	Total float64 `json:"total"`
}

type ListPaymentsParams struct {
	Lang   string  `json:"lang"`
	Amount *Amount `json:"amount"`
}

type DiscountOption struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Type      string  `json:"type,omitempty"`
	MinAmount float64 `json:"min_amount,omitempty"`
}

type ListPaymentsResponse struct {
	PaymentGateways []PaymentGateway `json:"payment_gateways"`
	DiscountOption  *DiscountOption  `json:"discount_option,omitempty"`
}

// NewPaymentGateway builds the default banking billet gateway
// descriptor. Constructed per call, callers own the returned value.
func NewPaymentGateway(lang string) *PaymentGateway {
	label := "Boleto bancário"
	paymentMethodName := "Boleto bancário - PagHiper"
	if lang != "" && lang != "pt_br" {
		label = "Banking billet"
		paymentMethodName = "Banking billet - PagHiper"
	}

	return &PaymentGateway{
		Label: label,
		Icon:  "https://www.paghiper.com/wp-content/themes/paghiper/assets/images/logo.png",
		PaymentMethod: PaymentMethod{
			Code: "banking_billet",
			Name: paymentMethodName,
		},
		Intermediator: Intermediator{
			Code: constants.IntermediatorCode,
			Link: "https://www.paghiper.com/",
			Name: "PagHiper",
		},
		Type: "payment",
	}
}

// BuildListPaymentsResponse shapes the list_payments module response
// from the merchant's configured options and the request context.
func BuildListPaymentsResponse(params ListPaymentsParams, config *ecomplus.AppConfig) *ListPaymentsResponse {
	lang := params.Lang
	if lang == "" {
		lang = "pt_br"
	}

	paymentGateway := NewPaymentGateway(lang)
	if config.Label != "" {
		paymentGateway.Label = config.Label
	}
	if config.Text != "" {
		paymentGateway.Text = config.Text
	}
	if config.Icon != "" {
		paymentGateway.Icon = config.Icon
	}
	if config.Discount != nil {
		// copy, the discount may be edited below
		discount := *config.Discount
		paymentGateway.Discount = &discount
	}

	response := ListPaymentsResponse{
		PaymentGateways: []PaymentGateway{*paymentGateway},
	}

	discount := paymentGateway.Discount
	if discount != nil && discount.Value > 0 {
		if discount.ApplyAt != "freight" {
			label := config.DiscountOptionLabel
			if label == "" {
				label = paymentGateway.Label
			}
			response.DiscountOption = &DiscountOption{
				Label:     label,
				Value:     discount.Value,
				Type:      discount.Type,
				MinAmount: discount.MinAmount,
			}
		}

		if discount.MinAmount > 0 {
			// check amount against the configured minimum
			if params.Amount != nil && params.Amount.Total < discount.MinAmount {
				response.PaymentGateways[0].Discount = nil
			} else {
				response.PaymentGateways[0].Discount.MinAmount = 0
			}
		}
	}

	return &response
}
