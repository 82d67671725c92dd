package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roadassist/roadassist-backend/internal/models"
)

var (
	// ErrRequestNotFound возвращается, когда заявка не найдена.
	ErrRequestNotFound = errors.New("service request not found")
	// ErrRequestNotPending возвращается, когда условный захват не прошёл:
	// заявка существует, но её статус уже не pending.
	ErrRequestNotPending = errors.New("service request is not pending")
)

const requestColumns = `id, requester_id, provider_id, problem_type, description, latitude, longitude, address, status, payment_id, photo_id, created_at, updated_at`

// RequestRepository отвечает за работу с таблицей service_requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт экземпляр репозитория.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет новую заявку в статусе pending.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (requester_id, problem_type, description, latitude, longitude, address, photo_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		req.RequesterID, req.ProblemType, req.Description,
		req.Latitude, req.Longitude, req.Address, req.PhotoID,
		models.RequestStatusPending,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}

	return &req, nil
}

// Claim назначает исполнителя условным обновлением: строка меняется только
// если статус всё ещё pending на момент записи. Из двух конкурентных вызовов
// ровно один получит строку обратно; второй увидит ErrRequestNotPending.
func (r *RequestRepository) Claim(ctx context.Context, requestID, providerID uuid.UUID) (*models.ServiceRequest, error) {
	query := `
		UPDATE service_requests
		SET provider_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + requestColumns

	var req models.ServiceRequest
	err := r.db.GetContext(ctx, &req, query, requestID, providerID, models.RequestStatusAssigned, models.RequestStatusPending)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request repository: claim %w", err)
	}

	// Условие не сработало: перечитываем, чтобы отличить отсутствующую
	// заявку от уже захваченной.
	if _, err := r.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return nil, ErrRequestNotPending
}

// OverrideStatus пишет статус как есть, без проверки переходов и без
// проверки, что значение входит в известный набор. Так задумано: это
// операторский аварийный рычаг, ответственность на вызывающем.
func (r *RequestRepository) OverrideStatus(ctx context.Context, id uuid.UUID, status string) (*models.ServiceRequest, error) {
	query := `
		UPDATE service_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + requestColumns

	var req models.ServiceRequest
	if err := r.db.GetContext(ctx, &req, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: override status %w", err)
	}

	return &req, nil
}

// ListByRequester возвращает заявки пользователя, новые первыми.
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE requester_id = $1 ORDER BY created_at DESC`

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, requesterID); err != nil {
		return nil, fmt.Errorf("request repository: list by requester %w", err)
	}

	return requests, nil
}

// ListByProvider возвращает заявки, назначенные исполнителю, новые первыми.
func (r *RequestRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE provider_id = $1 ORDER BY created_at DESC`

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, providerID); err != nil {
		return nil, fmt.Errorf("request repository: list by provider %w", err)
	}

	return requests, nil
}

// ListByStatus возвращает заявки в указанном статусе, новые первыми.
func (r *RequestRepository) ListByStatus(ctx context.Context, status string) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE status = $1 ORDER BY created_at DESC`

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("request repository: list by status %w", err)
	}

	return requests, nil
}

// ListAll возвращает все заявки, новые первыми.
func (r *RequestRepository) ListAll(ctx context.Context) ([]models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests ORDER BY created_at DESC`

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("request repository: list all %w", err)
	}

	return requests, nil
}

// ListHistory возвращает завершённые заявки пользователя, свежие первыми.
func (r *RequestRepository) ListHistory(ctx context.Context, requesterID uuid.UUID) ([]models.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE requester_id = $1 AND status = $2
		ORDER BY updated_at DESC
	`

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, requesterID, models.RequestStatusSettled); err != nil {
		return nil, fmt.Errorf("request repository: list history %w", err)
	}

	return requests, nil
}

// CountByStatus возвращает количество заявок в указанном статусе.
func (r *RequestRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM service_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("request repository: count by status %w", err)
	}
	return count, nil
}

// CountAll возвращает общее количество заявок.
func (r *RequestRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM service_requests`); err != nil {
		return 0, fmt.Errorf("request repository: count all %w", err)
	}
	return count, nil
}
