package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/roadassist/roadassist-backend/internal/models"
)

type mockStalePaymentStore struct {
	mock.Mock
}

func (m *mockStalePaymentStore) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Payment, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func TestSettlementWatcher_Check_ThresholdPassedToStore(t *testing.T) {
	store := new(mockStalePaymentStore)
	w := NewSettlementWatcher(store, 30*time.Minute, "@every 5m")

	store.On("ListStalePending", mock.Anything, mock.MatchedBy(func(olderThan time.Time) bool {
		// Порог должен отстоять от текущего момента примерно на TTL.
		diff := time.Until(olderThan) + 30*time.Minute
		return diff > -time.Minute && diff < time.Minute
	})).Return([]models.Payment{}, nil)

	err := w.Check(context.Background())
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSettlementWatcher_Check_ReportsStale(t *testing.T) {
	store := new(mockStalePaymentStore)
	w := NewSettlementWatcher(store, time.Hour, "@every 5m")

	stale := []models.Payment{
		{ID: uuid.New(), RequestID: uuid.New(), OrderRef: "order_1", CreatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: uuid.New(), RequestID: uuid.New(), OrderRef: "order_2", CreatedAt: time.Now().Add(-3 * time.Hour)},
	}
	store.On("ListStalePending", mock.Anything, mock.Anything).Return(stale, nil)

	err := w.Check(context.Background())
	assert.NoError(t, err)
}

func TestSettlementWatcher_Check_StoreError(t *testing.T) {
	store := new(mockStalePaymentStore)
	w := NewSettlementWatcher(store, time.Hour, "@every 5m")

	store.On("ListStalePending", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	err := w.Check(context.Background())
	assert.Error(t, err)
}

func TestSettlementWatcher_Start_BadSchedule(t *testing.T) {
	w := NewSettlementWatcher(new(mockStalePaymentStore), time.Hour, "каждые пять минут")

	err := w.Start()
	assert.Error(t, err)
}
