package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/roadassist/roadassist-backend/internal/logger"
	"github.com/roadassist/roadassist-backend/internal/models"
)

// StalePaymentStore — доступ к зависшим платежам.
type StalePaymentStore interface {
	ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Payment, error)
}

// SettlementWatcher периодически находит платежи, зависшие в pending дольше
// порога, и подсвечивает их в логах. Сам он ничего не меняет: решение о
// судьбе зависшего расчёта принимает оператор через перезапись статуса.
type SettlementWatcher struct {
	payments StalePaymentStore
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
}

// NewSettlementWatcher создаёт вотчер. schedule — выражение cron
// (поддерживаются и @every-интервалы), ttl — порог зависания.
func NewSettlementWatcher(payments StalePaymentStore, ttl time.Duration, schedule string) *SettlementWatcher {
	return &SettlementWatcher{
		payments: payments,
		ttl:      ttl,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start запускает периодическую проверку.
func (w *SettlementWatcher) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.runOnce); err != nil {
		return err
	}
	w.cron.Start()
	logger.Log.WithFields(logrus.Fields{
		"schedule": w.schedule,
		"ttl":      w.ttl.String(),
	}).Info("вотчер зависших платежей запущен")
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущего прохода.
func (w *SettlementWatcher) Stop() {
	<-w.cron.Stop().Done()
}

func (w *SettlementWatcher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.Check(ctx); err != nil {
		logger.Log.WithError(err).Error("проверка зависших платежей не удалась")
	}
}

// Check выполняет один проход: находит pending-платежи старше порога и
// пишет по каждому предупреждение.
func (w *SettlementWatcher) Check(ctx context.Context) error {
	stale, err := w.payments.ListStalePending(ctx, time.Now().Add(-w.ttl))
	if err != nil {
		return err
	}

	for _, p := range stale {
		logger.Log.WithFields(logrus.Fields{
			"payment_id": p.ID,
			"request_id": p.RequestID,
			"order_ref":  p.OrderRef,
			"age":        time.Since(p.CreatedAt).Round(time.Second).String(),
		}).Warn("платёж завис в pending, требуется внимание оператора")
	}

	if len(stale) > 0 {
		logger.Log.WithField("count", len(stale)).Warn("найдены зависшие платежи")
	}

	return nil
}
