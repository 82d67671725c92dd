package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/http/handlers/common"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/repository"
)

// StatsHandler отдаёт агрегаты платформы для операторского дашборда.
type StatsHandler struct {
	requests *repository.RequestRepository
	users    *repository.UserRepository
	payments *repository.PaymentRepository
}

// NewStatsHandler создаёт хэндлер.
func NewStatsHandler(requests *repository.RequestRepository, users *repository.UserRepository, payments *repository.PaymentRepository) *StatsHandler {
	return &StatsHandler{
		requests: requests,
		users:    users,
		payments: payments,
	}
}

// Dashboard обрабатывает GET /stats/dashboard.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var resp dto.DashboardStatsResponse
	var err error

	if resp.TotalRequests, err = h.requests.CountAll(ctx); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if resp.PendingRequests, err = h.requests.CountByStatus(ctx, models.RequestStatusPending); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if resp.AssignedRequests, err = h.requests.CountByStatus(ctx, models.RequestStatusAssigned); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if resp.SettledRequests, err = h.requests.CountByStatus(ctx, models.RequestStatusSettled); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if resp.Requesters, err = h.users.CountByRole(ctx, models.RoleRequester); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if resp.Providers, err = h.users.CountByRole(ctx, models.RoleProvider); err != nil {
		common.RespondAppError(c, err)
		return
	}

	stats, err := h.payments.GetSuccessStats(ctx)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	resp.SuccessPayments = stats.Count
	resp.TotalRevenue = stats.Revenue

	c.JSON(http.StatusOK, resp)
}

// ListUsers обрабатывает GET /users?role=... — операторский список учёток.
func (h *StatsHandler) ListUsers(c *gin.Context) {
	role := c.Query("role")
	if !models.ValidRole(role) {
		common.RespondBadRequest(c, "неизвестная роль")
		return
	}

	users, err := h.users.ListByRole(c.Request.Context(), role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
