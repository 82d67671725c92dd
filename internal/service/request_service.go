package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/roadassist/roadassist-backend/internal/logger"
	"github.com/roadassist/roadassist-backend/internal/metrics"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/pkg/apperror"
	"github.com/roadassist/roadassist-backend/internal/repository"
	"github.com/roadassist/roadassist-backend/internal/validation"
)

// RequestStore описывает зависимости RequestService от слоя хранилища.
// Сервис ничего не кэширует между вызовами: каждая операция перечитывает
// состояние через хранилище, чтобы не работать по протухшей копии.
type RequestStore interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	Claim(ctx context.Context, requestID, providerID uuid.UUID) (*models.ServiceRequest, error)
	OverrideStatus(ctx context.Context, id uuid.UUID, status string) (*models.ServiceRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.ServiceRequest, error)
	ListByStatus(ctx context.Context, status string) ([]models.ServiceRequest, error)
	ListAll(ctx context.Context) ([]models.ServiceRequest, error)
	ListHistory(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error)
}

// AccountStore даёт сервису доступ к аккаунтам для проверки ролей и
// резолва карточек в ответах.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetSummary(ctx context.Context, id uuid.UUID) (*models.UserSummary, error)
}

// RequestService ведёт жизненный цикл заявки: создание, захват
// исполнителем, операторские перезаписи и витрину запросов.
type RequestService struct {
	requests RequestStore
	accounts AccountStore
}

// CreateRequestInput содержит данные новой заявки.
type CreateRequestInput struct {
	ProblemType string
	Description string
	Latitude    float64
	Longitude   float64
	Address     string
	PhotoID     *uuid.UUID
}

// RequestDetails — заявка с резолвнутыми карточками участников.
type RequestDetails struct {
	Request   *models.ServiceRequest `json:"request"`
	Requester *models.UserSummary    `json:"requester,omitempty"`
	Provider  *models.UserSummary    `json:"provider,omitempty"`
}

// NewRequestService создаёт сервис заявок.
func NewRequestService(requests RequestStore, accounts AccountStore) *RequestService {
	return &RequestService{
		requests: requests,
		accounts: accounts,
	}
}

// Create регистрирует новую заявку в статусе pending.
func (s *RequestService) Create(ctx context.Context, requesterID uuid.UUID, in CreateRequestInput) (*models.ServiceRequest, error) {
	if err := validation.ValidateProblemType(in.ProblemType); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("адрес", in.Address, 0, validation.MaxAddressLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	req := &models.ServiceRequest{
		RequesterID: requesterID,
		ProblemType: in.ProblemType,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		PhotoID:     in.PhotoID,
	}
	if in.Address != "" {
		address := in.Address
		req.Address = &address
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// Claim назначает исполнителя на заявку. Из конкурентных вызовов по одной
// заявке выигрывает ровно один; проигравшие получают ALREADY_CLAIMED — это
// штатный исход гонки, а не сбой.
func (s *RequestService) Claim(ctx context.Context, requestID, providerID uuid.UUID) (*models.ServiceRequest, error) {
	provider, err := s.accounts.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if provider.Role != models.RoleProvider {
		return nil, apperror.New(apperror.ErrCodeForbidden, "принимать заявки может только исполнитель")
	}

	req, err := s.requests.Claim(ctx, requestID, providerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			metrics.ClaimsTotal.WithLabelValues("not_found").Inc()
			return nil, apperror.ErrRequestNotFound
		case errors.Is(err, repository.ErrRequestNotPending):
			metrics.ClaimsTotal.WithLabelValues("lost").Inc()
			return nil, apperror.ErrAlreadyClaimed
		default:
			return nil, err
		}
	}

	metrics.ClaimsTotal.WithLabelValues("won").Inc()
	logger.Log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"provider_id": providerID,
	}).Info("заявка принята исполнителем")

	return req, nil
}

// Release принимает отказ от заявки и ничего не меняет. Исторически отказ
// не возвращает заявку в pending и нигде не фиксируется; поведение
// сохранено как есть и подсвечено в логе.
func (s *RequestService) Release(ctx context.Context, requestID uuid.UUID) error {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return apperror.ErrRequestNotFound
		}
		return err
	}

	logger.Log.WithField("request_id", requestID).
		Warn("отказ от заявки принят, но состояние не меняется (no-op)")

	return nil
}

// OverrideStatus пишет произвольный статус по требованию оператора, минуя
// таблицу переходов. Значение не проверяется ни на принадлежность к
// известным статусам, ни на легальность перехода — аварийный рычаг
// работает в обход машины состояний и целиком доверяет вызывающему.
func (s *RequestService) OverrideStatus(ctx context.Context, operatorID, requestID uuid.UUID, status string) (*models.ServiceRequest, error) {
	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}

	req, err := s.requests.OverrideStatus(ctx, requestID, status)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}

	metrics.OverridesTotal.Inc()
	logger.Log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"operator_id": operatorID,
		"from_status": current.Status,
		"to_status":   status,
	}).Warn("операторская перезапись статуса заявки")

	return req, nil
}

// GetDetails возвращает заявку с карточками заказчика и исполнителя.
func (s *RequestService) GetDetails(ctx context.Context, requestID uuid.UUID) (*RequestDetails, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, err
	}

	details := &RequestDetails{Request: req}

	requester, err := s.accounts.GetSummary(ctx, req.RequesterID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("request service: резолв заказчика: %w", err)
	}
	details.Requester = requester

	if req.ProviderID != nil {
		provider, err := s.accounts.GetSummary(ctx, *req.ProviderID)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("request service: резолв исполнителя: %w", err)
		}
		details.Provider = provider
	}

	return details, nil
}

// ListMineRequester возвращает заявки заказчика, новые первыми.
func (s *RequestService) ListMineRequester(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error) {
	return s.requests.ListByRequester(ctx, requesterID)
}

// ListMineProvider возвращает заявки, назначенные исполнителю.
func (s *RequestService) ListMineProvider(ctx context.Context, providerID uuid.UUID) ([]models.ServiceRequest, error) {
	return s.requests.ListByProvider(ctx, providerID)
}

// ListPending возвращает свободные заявки для опроса исполнителями.
func (s *RequestService) ListPending(ctx context.Context) ([]models.ServiceRequest, error) {
	return s.requests.ListByStatus(ctx, models.RequestStatusPending)
}

// ListAll возвращает все заявки системы (операторская витрина).
func (s *RequestService) ListAll(ctx context.Context) ([]models.ServiceRequest, error) {
	return s.requests.ListAll(ctx)
}

// History возвращает завершённые заявки заказчика.
func (s *RequestService) History(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error) {
	return s.requests.ListHistory(ctx, requesterID)
}
