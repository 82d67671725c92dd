package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы платежа. Таблица допускает несколько pending-платежей на одну
// заявку (ретраи), но до success доходит не больше одного.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
)

// Payment представляет денежную операцию по одной заявке через внешний шлюз.
type Payment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RequestID   uuid.UUID `db:"request_id" json:"request_id"`
	RequesterID uuid.UUID `db:"requester_id" json:"requester_id"`
	Amount      float64   `db:"amount" json:"amount"`
	OrderRef    string    `db:"order_ref" json:"order_ref"`
	TxnRef      *string   `db:"txn_ref" json:"txn_ref,omitempty"`
	Signature   *string   `db:"signature" json:"-"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
