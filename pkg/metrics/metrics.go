package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - коллекторы сервиса. Нулевой указатель допустим: все методы ничего не делают.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	bookingOutcomes *prometheus.CounterVec
	slotsCreated    prometheus.Counter
	remindersSent   *prometheus.CounterVec
}

func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Количество HTTP-запросов.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Длительность обработки HTTP-запросов.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_operations_total",
			Help:        "Операции движка резервирования по результату.",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		slotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "slots_created_total",
			Help:        "Количество созданных слотов.",
			ConstLabels: labels,
		}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reminders_sent_total",
			Help:        "Отправленные напоминания по типу.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.bookingOutcomes, m.slotsCreated, m.remindersSent)

	return m
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) BookingOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) SlotsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsCreated.Add(float64(n))
}

func (m *Metrics) ReminderSent(kind string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(kind).Inc()
}
