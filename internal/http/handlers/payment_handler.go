package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/http/handlers/common"
	"github.com/roadassist/roadassist-backend/internal/service"
	"github.com/roadassist/roadassist-backend/internal/ws"
)

// PaymentHandler предоставляет HTTP слой для расчётов по заявкам.
type PaymentHandler struct {
	payments *service.PaymentService
	hub      *ws.Hub
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService, hub *ws.Hub) *PaymentHandler {
	return &PaymentHandler{payments: payments, hub: hub}
}

// Begin обрабатывает POST /payments — заказчик открывает расчёт.
func (h *PaymentHandler) Begin(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.BeginSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		common.RespondBadRequest(c, "request_id должен быть валидным UUID")
		return
	}

	payment, err := h.payments.Begin(c.Request.Context(), userID, requestID, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Confirm обрабатывает POST /payments/confirm — подписанный пруф оплаты.
// Повтор с тем же пруфом безопасен и вернёт уже сохранённый результат.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		common.RespondBadRequest(c, "payment_id должен быть валидным UUID")
		return
	}

	result, err := h.payments.Confirm(c.Request.Context(), paymentID, req.OrderRef, req.TxnRef, req.Signature)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	_ = h.hub.PublishStatus(result.Request.ID, result.Request.Status)

	c.JSON(http.StatusOK, dto.SettlementResponse{
		Payment: result.Payment,
		Request: result.Request,
	})
}

// ListMine обрабатывает GET /payments/my — платежи текущего аккаунта.
func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	payments, err := h.payments.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListAll обрабатывает GET /payments — операторская витрина всех платежей.
func (h *PaymentHandler) ListAll(c *gin.Context) {
	payments, err := h.payments.ListAll(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}
