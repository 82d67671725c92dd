package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/roadassist/roadassist-backend/internal/models"
)

var paymentColumnList = []string{
	"id", "request_id", "requester_id", "amount", "order_ref", "txn_ref",
	"signature", "status", "created_at",
}

func paymentRow(id, requestID uuid.UUID, status string, txnRef interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(paymentColumnList).AddRow(
		id, requestID, uuid.New(), 3500.0, "order_abc", txnRef, nil, status, time.Now(),
	)
}

func TestPaymentRepository_Confirm_HappyPath(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	requestID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs(paymentID, "txn_001", "sig", models.PaymentStatusSuccess, models.PaymentStatusPending).
		WillReturnRows(paymentRow(paymentID, requestID, models.PaymentStatusSuccess, "txn_001"))
	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, paymentID, models.RequestStatusSettled).
		WillReturnRows(requestRow(requestID, uuid.New(), nil, models.RequestStatusSettled))
	mock.ExpectCommit()

	payment, request, err := repo.Confirm(context.Background(), paymentID, "txn_001", "sig")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, models.RequestStatusSettled, request.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Confirm_AlreadyConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	requestID := uuid.New()

	mock.ExpectBegin()
	// Условный UPDATE не находит pending-платёж.
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs(paymentID, "txn_001", "sig", models.PaymentStatusSuccess, models.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows(paymentColumnList))
	// Перечитывание показывает, что платёж существует и уже закрыт.
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id`).
		WithArgs(paymentID).
		WillReturnRows(paymentRow(paymentID, requestID, models.PaymentStatusSuccess, "txn_001"))
	mock.ExpectRollback()

	_, _, err := repo.Confirm(context.Background(), paymentID, "txn_001", "sig")
	assert.ErrorIs(t, err, ErrPaymentNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Confirm_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paymentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs(paymentID, "txn_001", "sig", models.PaymentStatusSuccess, models.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows(paymentColumnList))
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE id`).
		WithArgs(paymentID).
		WillReturnRows(sqlmock.NewRows(paymentColumnList))
	mock.ExpectRollback()

	_, _, err := repo.Confirm(context.Background(), paymentID, "txn_001", "sig")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPaymentRepository_Confirm_RequestUpdateFails_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	requestID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs(paymentID, "txn_001", "sig", models.PaymentStatusSuccess, models.PaymentStatusPending).
		WillReturnRows(paymentRow(paymentID, requestID, models.PaymentStatusSuccess, "txn_001"))
	// Заявка исчезла: транзакция откатывается, платёж остаётся pending.
	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, paymentID, models.RequestStatusSettled).
		WillReturnRows(sqlmock.NewRows(requestColumnList))
	mock.ExpectQuery(`SELECT status FROM service_requests`).
		WithArgs(requestID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, _, err := repo.Confirm(context.Background(), paymentID, "txn_001", "sig")
	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Confirm_RequestAlreadySettled_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	requestID := uuid.New()

	mock.ExpectBegin()
	// Второй pending-платёж по той же заявке проходит свой условный UPDATE...
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs(paymentID, "txn_002", "sig", models.PaymentStatusSuccess, models.PaymentStatusPending).
		WillReturnRows(paymentRow(paymentID, requestID, models.PaymentStatusSuccess, "txn_002"))
	// ...но заявку уже закрыл первый: условный UPDATE по заявке пуст,
	// перечитывание показывает settled, транзакция откатывается целиком.
	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, paymentID, models.RequestStatusSettled).
		WillReturnRows(sqlmock.NewRows(requestColumnList))
	mock.ExpectQuery(`SELECT status FROM service_requests`).
		WithArgs(requestID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.RequestStatusSettled))
	mock.ExpectRollback()

	_, _, err := repo.Confirm(context.Background(), paymentID, "txn_002", "sig")
	assert.ErrorIs(t, err, ErrRequestAlreadySettled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	requestID := uuid.New()
	requesterID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(requestID, requesterID, 3500.0, "order_abc", models.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow(id, models.PaymentStatusPending, time.Now()))

	payment := &models.Payment{
		RequestID:   requestID,
		RequesterID: requesterID,
		Amount:      3500,
		OrderRef:    "order_abc",
	}
	err := repo.Create(context.Background(), payment)
	assert.NoError(t, err)
	assert.Equal(t, id, payment.ID)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestPaymentRepository_GetSuccessStats_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(models.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"count", "revenue"}).AddRow(0, 0.0))

	stats, err := repo.GetSuccessStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Revenue)
}

func TestPaymentRepository_ListStalePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	cutoff := time.Now().Add(-30 * time.Minute)

	rows := paymentRow(uuid.New(), uuid.New(), models.PaymentStatusPending, nil)
	mock.ExpectQuery(`SELECT .+ FROM payments`).
		WithArgs(models.PaymentStatusPending, cutoff).
		WillReturnRows(rows)

	payments, err := repo.ListStalePending(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusPending, payments[0].Status)
}
