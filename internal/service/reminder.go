package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/metrics"
)

const defaultReminderInterval = 5 * time.Minute

// reminderWindow: напоминание kind уходит, когда до начала осталось (from, to].
type reminderWindow struct {
	kind domain.ReminderKind
	from time.Duration
	to   time.Duration
}

var reminderWindows = []reminderWindow{
	{kind: domain.ReminderOneDay, from: 23*time.Hour + 30*time.Minute, to: 24 * time.Hour},
	{kind: domain.ReminderOneHour, from: 50 * time.Minute, to: time.Hour},
}

// ReminderJob периодически рассылает напоминания по подтвержденным записям.
type ReminderJob struct {
	repo     repository.AppointmentRepository
	notifier Notifier
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminderJob(repo repository.AppointmentRepository, notifier Notifier, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *ReminderJob {
	if interval <= 0 {
		interval = defaultReminderInterval
	}
	return &ReminderJob{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		metrics:  m,
		logger:   logger,
	}
}

// Start запускает цикл в отдельной горутине. Повторный вызов ничего не делает.
func (j *ReminderJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	go j.loop(ctx, j.done)
	j.logger.Info("задача напоминаний запущена", zap.Duration("interval", j.interval))
}

// Stop останавливает цикл и дожидается завершения текущего прохода.
func (j *ReminderJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.Info("задача напоминаний остановлена")
}

func (j *ReminderJob) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.RunOnce(ctx, time.Now())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce обрабатывает оба окна напоминаний относительно now и возвращает число отправленных.
func (j *ReminderJob) RunOnce(ctx context.Context, now time.Time) int {
	sent := 0
	for _, w := range reminderWindows {
		due, err := j.repo.ListDueReminders(ctx, w.kind, now.Add(w.from), now.Add(w.to))
		if err != nil {
			j.logger.Error("ошибка выборки записей для напоминаний", zap.String("kind", string(w.kind)), zap.Error(err))
			continue
		}

		for _, a := range due {
			if ctx.Err() != nil {
				return sent
			}

			if err := j.notifier.Reminder(ctx, a, w.kind); err != nil {
				j.logger.Warn("напоминание не отправлено",
					zap.Int64("appointment_id", a.ID),
					zap.String("kind", string(w.kind)),
					zap.Error(err),
				)
				continue
			}

			if err := j.repo.MarkNotified(ctx, a.ID, w.kind); err != nil {
				j.logger.Error("ошибка отметки напоминания", zap.Int64("appointment_id", a.ID), zap.Error(err))
				continue
			}

			j.metrics.ReminderSent(string(w.kind))
			sent++
		}
	}

	if sent > 0 {
		j.logger.Info("напоминания отправлены", zap.Int("count", sent))
	}
	return sent
}
