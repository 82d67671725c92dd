package dto

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateServiceRequest represents the request to open a new service request
type CreateServiceRequest struct {
	ProblemType string  `json:"problem_type" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	Address     string  `json:"address"`
	PhotoID     *string `json:"photo_id"`
}

// OverrideStatusRequest represents the operator request to force a status
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BeginSettlementRequest represents the request to start a payment
type BeginSettlementRequest struct {
	RequestID string  `json:"request_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
}

// ConfirmSettlementRequest represents the signed payment proof from the gateway
type ConfirmSettlementRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	OrderRef  string `json:"order_ref" binding:"required"`
	TxnRef    string `json:"txn_ref" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// PublishPositionRequest represents a provider position report
type PublishPositionRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}
