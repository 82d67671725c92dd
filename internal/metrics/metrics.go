package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Счётчики ключевых исходов движка заявок.
var (
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roadassist",
		Name:      "claims_total",
		Help:      "Исходы попыток захвата заявок исполнителями.",
	}, []string{"outcome"}) // won | lost | not_found

	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roadassist",
		Name:      "settlements_total",
		Help:      "Исходы подтверждений оплаты.",
	}, []string{"result"}) // confirmed | invalid_signature | duplicate

	OverridesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roadassist",
		Name:      "status_overrides_total",
		Help:      "Количество операторских перезаписей статуса.",
	})
)

// Handler отдаёт метрики в формате Prometheus.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
