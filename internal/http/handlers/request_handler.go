package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roadassist/roadassist-backend/internal/dto"
	"github.com/roadassist/roadassist-backend/internal/http/handlers/common"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/service"
	"github.com/roadassist/roadassist-backend/internal/ws"
)

// RequestHandler предоставляет HTTP слой для заявок на выездную помощь.
type RequestHandler struct {
	requests *service.RequestService
	hub      *ws.Hub
}

// NewRequestHandler создаёт хэндлер.
func NewRequestHandler(requests *service.RequestService, hub *ws.Hub) *RequestHandler {
	return &RequestHandler{requests: requests, hub: hub}
}

// Create обрабатывает POST /requests — новая заявка от заказчика.
func (h *RequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	input := service.CreateRequestInput{
		ProblemType: req.ProblemType,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
	}
	if req.PhotoID != nil {
		photoID, err := uuid.Parse(*req.PhotoID)
		if err != nil {
			common.RespondBadRequest(c, "photo_id должен быть валидным UUID")
			return
		}
		input.PhotoID = &photoID
	}

	created, err := h.requests.Create(c.Request.Context(), userID, input)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Claim обрабатывает POST /requests/:id/claim — исполнитель берёт заявку.
// Конкурирующие вызовы по одной заявке разрешаются в ядре: проигравший
// получает 409 с кодом ALREADY_CLAIMED.
func (h *RequestHandler) Claim(c *gin.Context) {
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

	req, err := h.requests.Claim(c.Request.Context(), requestID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	_ = h.hub.PublishStatus(req.ID, req.Status)

	c.JSON(http.StatusOK, req)
}

// Release обрабатывает POST /requests/:id/release — отказ исполнителя.
// Ответ подтверждает приём отказа, состояние заявки не меняется.
func (h *RequestHandler) Release(c *gin.Context) {
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.requests.Release(c.Request.Context(), requestID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "отказ принят"})
}

// Get обрабатывает GET /requests/:id — заявка с карточками участников.
func (h *RequestHandler) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, dto.NewRequestDetailsResponse(details.Request, details.Requester, details.Provider))
}

// ListMine обрабатывает GET /requests/my — заявки текущего аккаунта.
// Заказчику отдаются его заявки, исполнителю — назначенные на него.
func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var requests []models.ServiceRequest
	if role == models.RoleProvider {
		requests, err = h.requests.ListMineProvider(c.Request.Context(), userID)
	} else {
		requests, err = h.requests.ListMineRequester(c.Request.Context(), userID)
	}
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ListPending обрабатывает GET /requests/pending — свободные заявки для
// опроса исполнителями.
func (h *RequestHandler) ListPending(c *gin.Context) {
	requests, err := h.requests.ListPending(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ListAll обрабатывает GET /requests — операторская витрина всех заявок.
func (h *RequestHandler) ListAll(c *gin.Context) {
	requests, err := h.requests.ListAll(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// History обрабатывает GET /requests/history — завершённые заявки заказчика.
func (h *RequestHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requests, err := h.requests.History(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Override обрабатывает PUT /requests/:id/status — операторская перезапись.
func (h *RequestHandler) Override(c *gin.Context) {
	operatorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.requests.OverrideStatus(c.Request.Context(), operatorID, requestID, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	_ = h.hub.PublishStatus(updated.ID, updated.Status)

	c.JSON(http.StatusOK, updated)
}
