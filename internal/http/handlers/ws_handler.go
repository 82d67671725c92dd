package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/http/handlers/common"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/service"
	"github.com/roadassist/roadassist-backend/internal/ws"
)

// WSHandler отвечает за живой трекинг заявки: подписку наблюдателей и
// приём координат исполнителя.
type WSHandler struct {
	hub          *ws.Hub
	requests     *service.RequestService
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

// NewWSHandler создаёт хэндлер.
func NewWSHandler(hub *ws.Hub, requests *service.RequestService, tokens *service.TokenManager) *WSHandler {
	return &WSHandler{
		hub:          hub,
		requests:     requests,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Watch обслуживает GET /ws/requests/:id?token=... — подписку на события
// заявки. Токен едет в query, потому что браузерный WebSocket не умеет
// свои заголовки.
func (h *WSHandler) Watch(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		common.RespondUnauthorized(c, "access токен обязателен")
		return
	}

	userID, role, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		common.RespondUnauthorized(c, "невалидный access токен")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	details, err := h.requests.GetDetails(c.Request.Context(), requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if !canWatch(details.Request, userID, role) {
		common.RespondError(c, http.StatusForbidden, "FORBIDDEN", "трекинг доступен только участникам заявки")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(conn, h.hub, requestID, userID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}

// ReportPosition обрабатывает POST /requests/:id/position — исполнитель
// сообщает координаты в пути. Позиция нигде не сохраняется, только
// транслируется наблюдателям.
func (h *WSHandler) ReportPosition(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.PublishPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	details, err := h.requests.GetDetails(c.Request.Context(), requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if details.Request.ProviderID == nil || *details.Request.ProviderID != userID {
		common.RespondError(c, http.StatusForbidden, "FORBIDDEN", "координаты может сообщать только назначенный исполнитель")
		return
	}

	if err := h.hub.PublishPosition(ws.PositionUpdate{
		RequestID:  requestID,
		ProviderID: userID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		ReportedAt: time.Now(),
	}); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "позиция передана"})
}

// canWatch решает, кому доступны события заявки: участникам и операторам.
func canWatch(req *models.ServiceRequest, userID uuid.UUID, role string) bool {
	if role == models.RoleOperator {
		return true
	}
	if req.RequesterID == userID {
		return true
	}
	return req.ProviderID != nil && *req.ProviderID == userID
}
