package services

import (
	"context"

	"github.com/avdeenkov/procurement-service/internal/models"
	"github.com/avdeenkov/procurement-service/internal/repository"

	"github.com/sirupsen/logrus"
)

// EquityService - сервис журнала справедливости.
type EquityService struct {
	Repo   repository.EquityRepository
	Logger *logrus.Logger
}

// NewEquityService создает новый экземпляр EquityService.
func NewEquityService(repo repository.EquityRepository, logger *logrus.Logger) *EquityService {
	return &EquityService{Repo: repo, Logger: logger}
}

// Append добавляет запись журнала по принципу fire-and-forget: ошибка записи
// логируется и проглатывается, бизнес-операция из-за нее не откатывается.
// Это осознанное решение, а не упущение.
func (s *EquityService) Append(ctx context.Context, tenderId, username string, action models.EquityAction, description string, metadata map[string]interface{}) {
	if err := s.Repo.InsertEntry(ctx, tenderId, username, action, description, metadata); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"tenderId": tenderId,
			"actor":    username,
			"action":   action,
		}).WithError(err).Warn("failed to append equity log entry")
	}
}

// GetTenderLogs возвращает записи журнала по тендеру от новых к старым.
func (s *EquityService) GetTenderLogs(ctx context.Context, tenderId string) ([]models.EquityLog, error) {
	if tenderId == "" {
		return nil, models.NewValidationError("missing required path parameter: tenderId")
	}
	return s.Repo.GetTenderLogs(ctx, tenderId)
}
