package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы заявки на выездную помощь.
// Переход pending -> assigned делает только координатор захвата,
// assigned -> settled — только подтверждение оплаты. Операторский
// override пишет произвольную строку мимо этих проверок.
const (
	RequestStatusPending  = "pending"
	RequestStatusAssigned = "assigned"
	RequestStatusSettled  = "settled"
)

// ServiceRequest описывает заявку: кто просит помощь, где и что случилось.
type ServiceRequest struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RequesterID uuid.UUID  `db:"requester_id" json:"requester_id"`
	ProviderID  *uuid.UUID `db:"provider_id" json:"provider_id,omitempty"`
	ProblemType string     `db:"problem_type" json:"problem_type"`
	Description string     `db:"description" json:"description"`
	Latitude    float64    `db:"latitude" json:"latitude"`
	Longitude   float64    `db:"longitude" json:"longitude"`
	Address     *string    `db:"address" json:"address,omitempty"`
	Status      string     `db:"status" json:"status"`
	PaymentID   *uuid.UUID `db:"payment_id" json:"payment_id,omitempty"`
	PhotoID     *uuid.UUID `db:"photo_id" json:"photo_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
