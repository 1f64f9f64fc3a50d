package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avdeenkov/procurement-service/internal/matching"
	"github.com/avdeenkov/procurement-service/internal/notify"
	"github.com/avdeenkov/procurement-service/internal/repository"

	"github.com/sirupsen/logrus"
)

// AlertService - рассылка по сохраненным поискам. Обходит тендеры,
// опубликованные после прошлого прохода, и уведомляет владельцев
// совпавших поисков. Благодаря трекеру доставки проход можно
// безопасно перезапускать после частичного сбоя.
type AlertService struct {
	Searches   repository.SavedSearchRepository
	Tenders    repository.TenderRepository
	Tracker    notify.DeliveryTracker
	Dispatcher notify.Dispatcher
	Logger     *logrus.Logger
}

// NewAlertService создает новый экземпляр AlertService.
func NewAlertService(searches repository.SavedSearchRepository, tenders repository.TenderRepository, tracker notify.DeliveryTracker, dispatcher notify.Dispatcher, logger *logrus.Logger) *AlertService {
	return &AlertService{
		Searches:   searches,
		Tenders:    tenders,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// Run выполняет один проход рассылки и возвращает число отправленных уведомлений.
func (s *AlertService) Run(ctx context.Context, since time.Time) (int, error) {
	tenders, err := s.Tenders.ListPublishedSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list published tenders: %w", err)
	}
	if len(tenders) == 0 {
		return 0, nil
	}

	searches, err := s.Searches.ListSavedSearches(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list saved searches: %w", err)
	}

	sent := 0
	for _, search := range searches {
		for _, tender := range tenders {
			if !matching.Matches(tender, search.Criteria) {
				continue
			}

			key := fmt.Sprintf("alert:%s:%s", search.ID, tender.ID)
			first, err := s.Tracker.MarkSent(ctx, key)
			if err != nil {
				s.Logger.WithField("key", key).WithError(err).Warn("failed to track alert delivery")
				continue
			}
			if !first {
				continue
			}

			subject := fmt.Sprintf("New tender matches your saved search: %s", tender.Title)
			if err := s.Dispatcher.Notify(ctx, search.Username, subject, tender.ID); err != nil {
				s.Logger.WithFields(logrus.Fields{
					"username": search.Username,
					"tenderId": tender.ID,
				}).WithError(err).Error("failed to dispatch alert")
				continue
			}
			sent++
		}
	}
	return sent, nil
}
