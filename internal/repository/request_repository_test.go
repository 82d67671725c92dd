package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/roadassist/roadassist-backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("не удалось создать sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var requestColumnList = []string{
	"id", "requester_id", "provider_id", "problem_type", "description",
	"latitude", "longitude", "address", "status", "payment_id", "photo_id",
	"created_at", "updated_at",
}

func requestRow(id, requesterID uuid.UUID, providerID *uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	var provider interface{}
	if providerID != nil {
		provider = *providerID
	}
	return sqlmock.NewRows(requestColumnList).AddRow(
		id, requesterID, provider, "towing", "Нужна эвакуация",
		55.75, 37.61, nil, status, nil, nil, now, now,
	)
}

func TestRequestRepository_Claim_Winner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()
	providerID := uuid.New()

	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, providerID, models.RequestStatusAssigned, models.RequestStatusPending).
		WillReturnRows(requestRow(requestID, uuid.New(), &providerID, models.RequestStatusAssigned))

	req, err := repo.Claim(context.Background(), requestID, providerID)
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusAssigned, req.Status)
	assert.Equal(t, providerID, *req.ProviderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_Claim_AlreadyTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()
	providerID := uuid.New()
	otherProvider := uuid.New()

	// Условный UPDATE не находит строку в pending...
	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, providerID, models.RequestStatusAssigned, models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows(requestColumnList))
	// ...перечитывание показывает, что заявка существует, но уже захвачена.
	mock.ExpectQuery(`SELECT .+ FROM service_requests WHERE id`).
		WithArgs(requestID).
		WillReturnRows(requestRow(requestID, uuid.New(), &otherProvider, models.RequestStatusAssigned))

	_, err := repo.Claim(context.Background(), requestID, providerID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_Claim_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()
	providerID := uuid.New()

	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, providerID, models.RequestStatusAssigned, models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows(requestColumnList))
	mock.ExpectQuery(`SELECT .+ FROM service_requests WHERE id`).
		WithArgs(requestID).
		WillReturnRows(sqlmock.NewRows(requestColumnList))

	_, err := repo.Claim(context.Background(), requestID, providerID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestRepository_OverrideStatus_WritesRawValue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()

	row := requestRow(requestID, uuid.New(), nil, "on_hold")
	// Значение уходит в запрос как есть, без нормализации.
	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, "on_hold").
		WillReturnRows(row)

	req, err := repo.OverrideStatus(context.Background(), requestID, "on_hold")
	assert.NoError(t, err)
	assert.Equal(t, "on_hold", req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_OverrideStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()

	mock.ExpectQuery(`UPDATE service_requests`).
		WithArgs(requestID, "pending").
		WillReturnRows(sqlmock.NewRows(requestColumnList))

	_, err := repo.OverrideStatus(context.Background(), requestID, "pending")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requestID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM service_requests WHERE id`).
		WithArgs(requestID).
		WillReturnRows(sqlmock.NewRows(requestColumnList))

	_, err := repo.GetByID(context.Background(), requestID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requesterID := uuid.New()
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO service_requests`).
		WithArgs(requesterID, "flat_tire", "Пробито колесо", 55.75, 37.61, nil, nil, models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(id, models.RequestStatusPending, now, now))

	req := &models.ServiceRequest{
		RequesterID: requesterID,
		ProblemType: "flat_tire",
		Description: "Пробито колесо",
		Latitude:    55.75,
		Longitude:   37.61,
	}
	err := repo.Create(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, id, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
}

func TestRequestRepository_ListHistory_OnlySettled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	requesterID := uuid.New()

	rows := requestRow(uuid.New(), requesterID, nil, models.RequestStatusSettled)
	mock.ExpectQuery(`SELECT .+ FROM service_requests`).
		WithArgs(requesterID, models.RequestStatusSettled).
		WillReturnRows(rows)

	requests, err := repo.ListHistory(context.Background(), requesterID)
	assert.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, models.RequestStatusSettled, requests[0].Status)
}

func TestRequestRepository_CountByStatus_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(models.RequestStatusPending).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.CountByStatus(context.Background(), models.RequestStatusPending)
	assert.Error(t, err)
}
