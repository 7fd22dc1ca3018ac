package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesTotal,
		telegramSendErrorsTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Incoming Telegram updates, by event type.",
		},
		[]string{"type"},
	)

	telegramSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Failures while rendering effects back to the chat.",
		},
	)
)

func IncTelegramUpdate(eventType string) {
	telegramUpdatesTotal.WithLabelValues(eventType).Inc()
}

func IncTelegramSendError() {
	telegramSendErrorsTotal.Inc()
}
