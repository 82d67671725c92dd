package dto

import (
	"github.com/roadassist/roadassist-backend/internal/models"
)

// ErrorResponse represents an error payload with a machine-readable code
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthResponse represents the result of register/login
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

// TokenResponse represents a refreshed token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RequestDetailsResponse represents a service request with resolved parties
type RequestDetailsResponse struct {
	*models.ServiceRequest
	Requester *models.UserSummary `json:"requester,omitempty"`
	Provider  *models.UserSummary `json:"provider,omitempty"`
}

// NewRequestDetailsResponse builds a RequestDetailsResponse from components
func NewRequestDetailsResponse(req *models.ServiceRequest, requester, provider *models.UserSummary) *RequestDetailsResponse {
	return &RequestDetailsResponse{
		ServiceRequest: req,
		Requester:      requester,
		Provider:       provider,
	}
}

// SettlementResponse represents a confirmed payment with the settled request
type SettlementResponse struct {
	Payment *models.Payment        `json:"payment"`
	Request *models.ServiceRequest `json:"request"`
}

// DashboardStatsResponse represents aggregate platform numbers for operators
type DashboardStatsResponse struct {
	TotalRequests    int     `json:"total_requests"`
	PendingRequests  int     `json:"pending_requests"`
	AssignedRequests int     `json:"assigned_requests"`
	SettledRequests  int     `json:"settled_requests"`
	Requesters       int     `json:"requesters"`
	Providers        int     `json:"providers"`
	SuccessPayments  int     `json:"success_payments"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// MediaUploadResponse represents a stored photo reference
type MediaUploadResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	SizeByte int64  `json:"size_bytes"`
}
