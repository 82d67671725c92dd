package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roadassist/roadassist-backend/internal/gateway"
	"github.com/roadassist/roadassist-backend/internal/logger"
	"github.com/roadassist/roadassist-backend/internal/metrics"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/pkg/apperror"
	"github.com/roadassist/roadassist-backend/internal/repository"
	"github.com/roadassist/roadassist-backend/internal/validation"
)

// PaymentStore описывает зависимости PaymentService от слоя хранилища.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	Confirm(ctx context.Context, paymentID uuid.UUID, txnRef, signature string) (*models.Payment, *models.ServiceRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
}

// PaymentRequestStore — доступ к заявкам, достаточный для расчётов.
type PaymentRequestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
}

// OrderGateway — внешний платёжный шлюз.
type OrderGateway interface {
	CreateOrder(ctx context.Context, receipt string, amount float64) (*gateway.Order, error)
}

// PaymentService ведёт расчёты по заявкам: создаёт заказ во внешнем шлюзе
// и подтверждает оплату по подписанному пруфу.
type PaymentService struct {
	payments PaymentStore
	requests PaymentRequestStore
	gateway  OrderGateway
	secret   []byte
}

// ConfirmResult — итог подтверждения: платёж и завершённая заявка.
type ConfirmResult struct {
	Payment *models.Payment        `json:"payment"`
	Request *models.ServiceRequest `json:"request"`
}

// NewPaymentService создаёт сервис расчётов. Секрет шлюза используется для
// проверки подписей подтверждений.
func NewPaymentService(payments PaymentStore, requests PaymentRequestStore, gw OrderGateway, gatewaySecret string) *PaymentService {
	return &PaymentService{
		payments: payments,
		requests: requests,
		gateway:  gw,
		secret:   []byte(gatewaySecret),
	}
}

// Begin открывает расчёт по заявке: создаёт заказ во внешнем шлюзе и
// фиксирует pending-платёж с его ссылкой. Если шлюз недоступен, ничего не
// сохраняется и вызывающий может повторить попытку.
func (s *PaymentService) Begin(ctx context.Context, requesterID, requestID uuid.UUID, amount float64) (*models.Payment, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}
	if req.RequesterID != requesterID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплачивать заявку может только её заказчик")
	}

	order, err := s.gateway.CreateOrder(ctx, fmt.Sprintf("receipt_%s", requestID), amount)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		RequestID:   requestID,
		RequesterID: requesterID,
		Amount:      amount,
		OrderRef:    order.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"request_id": requestID,
		"order_ref":  payment.OrderRef,
	}).Info("открыт расчёт по заявке")

	return payment, nil
}

// Confirm проверяет подписанный пруф оплаты и завершает расчёт. Пруф
// считается по заказу, названному вызывающим: если order_ref не совпадает с
// сохранённым у платежа или подпись не сходится, ни платёж, ни заявка не
// меняются. Повторное подтверждение с тем же пруфом возвращает уже
// сохранённый результат, так что ретраи вебхука безопасны.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uuid.UUID, orderRef, txnRef, signature string) (*ConfirmResult, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, err
	}

	if orderRef != payment.OrderRef || !s.verifyProof(orderRef, txnRef, signature) {
		metrics.SettlementsTotal.WithLabelValues("invalid_signature").Inc()
		logger.Log.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"order_ref":  orderRef,
			"txn_ref":    txnRef,
		}).Warn("подпись подтверждения оплаты не сошлась")
		return nil, apperror.ErrInvalidSignature
	}

	confirmed, request, err := s.payments.Confirm(ctx, paymentID, txnRef, signature)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotPending):
			return s.confirmedEarlier(ctx, paymentID, txnRef)
		case errors.Is(err, repository.ErrRequestAlreadySettled):
			metrics.SettlementsTotal.WithLabelValues("conflict").Inc()
			logger.Log.WithFields(logrus.Fields{
				"payment_id": paymentID,
				"request_id": payment.RequestID,
				"txn_ref":    txnRef,
			}).Warn("заявка уже закрыта другим платежом, подтверждение отклонено")
			return nil, apperror.ErrAlreadySettled
		case errors.Is(err, repository.ErrPaymentNotFound):
			return nil, apperror.ErrPaymentNotFound
		case errors.Is(err, repository.ErrRequestNotFound):
			return nil, apperror.ErrRequestNotFound
		default:
			return nil, err
		}
	}

	metrics.SettlementsTotal.WithLabelValues("confirmed").Inc()
	logger.Log.WithFields(logrus.Fields{
		"payment_id": confirmed.ID,
		"request_id": request.ID,
		"txn_ref":    txnRef,
	}).Info("оплата подтверждена, заявка завершена")

	return &ConfirmResult{Payment: confirmed, Request: request}, nil
}

// confirmedEarlier обрабатывает повтор подтверждения: если платёж уже
// успешен с тем же txn_ref, возвращается сохранённый результат. Пруф с
// другим txn_ref по уже закрытому платежу отклоняется.
func (s *PaymentService) confirmedEarlier(ctx context.Context, paymentID uuid.UUID, txnRef string) (*ConfirmResult, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusSuccess || payment.TxnRef == nil || *payment.TxnRef != txnRef {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "платёж уже закрыт другим подтверждением")
	}

	request, err := s.requests.GetByID(ctx, payment.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues("duplicate").Inc()
	logger.Log.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"txn_ref":    txnRef,
	}).Info("повторное подтверждение оплаты, возвращён сохранённый результат")

	return &ConfirmResult{Payment: payment, Request: request}, nil
}

// verifyProof сверяет подпись пруфа: HMAC-SHA256 от "orderRef|txnRef" на
// общем секрете шлюза, hex в нижнем регистре. Сравнение побайтовое, без
// нормализации регистра: шлюз присылает hex ровно в таком виде.
func (s *PaymentService) verifyProof(orderRef, txnRef, signature string) bool {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderRef + "|" + txnRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ListMine возвращает платежи пользователя.
func (s *PaymentService) ListMine(ctx context.Context, requesterID uuid.UUID) ([]models.Payment, error) {
	return s.payments.ListByRequester(ctx, requesterID)
}

// ListAll возвращает все платежи (операторская витрина).
func (s *PaymentService) ListAll(ctx context.Context) ([]models.Payment, error) {
	return s.payments.ListAll(ctx)
}
