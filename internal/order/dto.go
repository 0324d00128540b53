package order

// CreateOrderItem is one requested line.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the order creation payload; the buyer is the caller.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

// UpdateStatusRequest payload of PATCH /orders/:id/status.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ProcessPaymentRequest payload of POST /orders/:id/payment.
// swagger:model ProcessPaymentRequest
type ProcessPaymentRequest struct {
	Provider string `json:"provider"`
}
