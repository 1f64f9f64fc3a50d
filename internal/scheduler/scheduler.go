// Package scheduler запускает периодические фоновые задачи:
// закрытие тендеров с истекшим дедлайном и рассылку по сохраненным поискам.
// Обе задачи идемпотентны и не входят в интерактивный путь запросов.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExpiryCloser закрывает опубликованные тендеры с истекшим дедлайном.
type ExpiryCloser interface {
	CloseExpiredTenders(ctx context.Context, now time.Time) (int, error)
}

// AlertRunner выполняет один проход рассылки по сохраненным поискам.
type AlertRunner interface {
	Run(ctx context.Context, since time.Time) (int, error)
}

// Scheduler - обертка над cron с двумя задачами ядра.
type Scheduler struct {
	cron    *cron.Cron
	tenders ExpiryCloser
	alerts  AlertRunner
	logger  *logrus.Logger
	timeout time.Duration

	mu        sync.Mutex
	lastSweep time.Time
	running   bool
}

// New создает новый экземпляр Scheduler.
func New(tenders ExpiryCloser, alerts AlertRunner, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		tenders:   tenders,
		alerts:    alerts,
		logger:    logger,
		timeout:   timeout,
		lastSweep: time.Now().UTC(),
	}
}

// Start регистрирует задачи по cron-выражениям из конфигурации и
// запускает планировщик.
func (s *Scheduler) Start(expirySpec, alertSpec string) error {
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(expirySpec, s.closeExpired); err != nil {
		return fmt.Errorf("invalid expiry cron spec %q: %w", expirySpec, err)
	}
	if _, err := s.cron.AddFunc(alertSpec, s.sweepAlerts); err != nil {
		return fmt.Errorf("invalid alert cron spec %q: %w", alertSpec, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("background scheduler started")
	return nil
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("background scheduler stopped")
}

func (s *Scheduler) closeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	closed, err := s.tenders.CloseExpiredTenders(ctx, time.Now().UTC())
	if err != nil {
		s.logger.WithError(err).Error("expiry sweep failed")
		return
	}
	if closed > 0 {
		s.logger.WithField("closed", closed).Info("expired tenders closed")
	}
}

func (s *Scheduler) sweepAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.mu.Lock()
	since := s.lastSweep
	s.mu.Unlock()
	startedAt := time.Now().UTC()

	sent, err := s.alerts.Run(ctx, since)
	if err != nil {
		// lastSweep не двигаем: следующий проход возьмет тот же интервал,
		// дубли отсечет трекер доставки.
		s.logger.WithError(err).Error("alert sweep failed")
		return
	}

	s.mu.Lock()
	s.lastSweep = startedAt
	s.mu.Unlock()

	if sent > 0 {
		s.logger.WithField("sent", sent).Info("saved search alerts dispatched")
	}
}
