package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roadassist/roadassist-backend/internal/models"
)

var (
	// ErrPaymentNotFound возвращается, когда платёж не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentNotPending возвращается, когда подтверждение не прошло по
	// условию: платёж существует, но уже не в статусе pending.
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrRequestAlreadySettled возвращается, когда заявка уже закрыта другим
	// платежом: по одной заявке успешным становится не больше одного платежа.
	ErrRequestAlreadySettled = errors.New("request is already settled")
)

const paymentColumns = `id, request_id, requester_id, amount, order_ref, txn_ref, signature, status, created_at`

// SuccessStats — агрегат по успешным платежам для дашборда.
type SuccessStats struct {
	Count   int     `db:"count"`
	Revenue float64 `db:"revenue"`
}

// PaymentRepository отвечает за работу с таблицей payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository создаёт экземпляр репозитория.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create сохраняет новый платёж в статусе pending.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (request_id, requester_id, amount, order_ref, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		payment.RequestID, payment.RequesterID, payment.Amount, payment.OrderRef,
		models.PaymentStatusPending,
	).Scan(&payment.ID, &payment.Status, &payment.CreatedAt); err != nil {
		return fmt.Errorf("payment repository: create %w", err)
	}

	return nil
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by id %w", err)
	}

	return &payment, nil
}

// Confirm фиксирует успешную оплату и завершает связанную заявку одной
// транзакцией. Платёж обновляется только из статуса pending, поэтому из
// конкурентных подтверждений с одинаковым пруфом выигрывает ровно одно;
// остальные получают ErrPaymentNotPending. Заявка обновляется только из
// незакрытого статуса: второй pending-платёж по уже settled заявке
// откатывается с ErrRequestAlreadySettled и остаётся pending. Состояние
// "платёж success, а заявка не settled" снаружи транзакции не наблюдаемо.
func (r *PaymentRepository) Confirm(ctx context.Context, paymentID uuid.UUID, txnRef, signature string) (*models.Payment, *models.ServiceRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("payment repository: confirm begin %w", err)
	}
	defer tx.Rollback()

	var payment models.Payment
	err = tx.GetContext(ctx, &payment, `
		UPDATE payments
		SET txn_ref = $2, signature = $3, status = $4
		WHERE id = $1 AND status = $5
		RETURNING `+paymentColumns,
		paymentID, txnRef, signature, models.PaymentStatusSuccess, models.PaymentStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Либо платежа нет, либо он уже подтверждён: различаем перечитыванием.
			if _, getErr := r.GetByID(ctx, paymentID); getErr != nil {
				return nil, nil, getErr
			}
			return nil, nil, ErrPaymentNotPending
		}
		return nil, nil, fmt.Errorf("payment repository: confirm payment %w", err)
	}

	var request models.ServiceRequest
	err = tx.GetContext(ctx, &request, `
		UPDATE service_requests
		SET payment_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status <> $3
		RETURNING `+requestColumns,
		payment.RequestID, payment.ID, models.RequestStatusSettled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Либо заявки нет, либо её уже закрыл другой платёж: различаем
			// перечитыванием статуса.
			var status string
			getErr := tx.GetContext(ctx, &status,
				`SELECT status FROM service_requests WHERE id = $1`, payment.RequestID)
			if errors.Is(getErr, sql.ErrNoRows) {
				return nil, nil, ErrRequestNotFound
			}
			if getErr != nil {
				return nil, nil, fmt.Errorf("payment repository: confirm reread request %w", getErr)
			}
			return nil, nil, ErrRequestAlreadySettled
		}
		return nil, nil, fmt.Errorf("payment repository: confirm request %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("payment repository: confirm commit %w", err)
	}

	return &payment, &request, nil
}

// ListByRequester возвращает платежи пользователя, новые первыми.
func (r *PaymentRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE requester_id = $1 ORDER BY created_at DESC`

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, requesterID); err != nil {
		return nil, fmt.Errorf("payment repository: list by requester %w", err)
	}

	return payments, nil
}

// ListAll возвращает все платежи, новые первыми.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("payment repository: list all %w", err)
	}

	return payments, nil
}

// GetSuccessStats возвращает количество и сумму успешных платежей.
// При отсутствии успешных платежей сумма равна нулю, а не NULL.
func (r *PaymentRepository) GetSuccessStats(ctx context.Context) (*SuccessStats, error) {
	var stats SuccessStats
	query := `
		SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue
		FROM payments
		WHERE status = $1
	`
	if err := r.db.GetContext(ctx, &stats, query, models.PaymentStatusSuccess); err != nil {
		return nil, fmt.Errorf("payment repository: success stats %w", err)
	}

	return &stats, nil
}

// ListStalePending возвращает платежи, зависшие в pending дольше указанного
// порога. Только чтение: разруливает их оператор через override.
func (r *PaymentRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
	`

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, models.PaymentStatusPending, olderThan); err != nil {
		return nil, fmt.Errorf("payment repository: list stale pending %w", err)
	}

	return payments, nil
}
