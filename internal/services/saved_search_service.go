package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avdeenkov/procurement-service/internal/models"
	"github.com/avdeenkov/procurement-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// SavedSearchService управляет сохраненными поисками пользователей.
type SavedSearchService struct {
	Repo   repository.SavedSearchRepository
	Access repository.AccessRepository
	Logger *logrus.Logger
}

// NewSavedSearchService создает новый экземпляр SavedSearchService.
func NewSavedSearchService(repo repository.SavedSearchRepository, access repository.AccessRepository, logger *logrus.Logger) *SavedSearchService {
	return &SavedSearchService{Repo: repo, Access: access, Logger: logger}
}

func (s *SavedSearchService) requireUser(ctx context.Context, username string) error {
	if username == "" {
		return models.NewValidationError("missing required query parameter: username")
	}
	exists, err := s.Access.CheckUserExists(ctx, username)
	if err != nil {
		return models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check user existence")
	}
	if !exists {
		return models.NewErrorResponse(http.StatusUnauthorized, models.PermissionError, "user does not exist")
	}
	return nil
}

// CreateSavedSearch сохраняет критерии поиска пользователя.
// Хотя бы один критерий должен быть задан: пустой поиск совпадал бы
// с каждым новым тендером.
func (s *SavedSearchService) CreateSavedSearch(ctx context.Context, username string, criteria models.SavedSearchCriteria) (*models.SavedSearch, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}

	if criteria.Text == nil && criteria.Canton == nil && criteria.City == nil &&
		criteria.MarketType == nil && criteria.BudgetMin == nil && criteria.BudgetMax == nil &&
		criteria.Mode == nil && criteria.OrganizationType == nil {
		return nil, models.NewValidationError("at least one search criterion is required")
	}
	if criteria.MarketType != nil && !models.ValidMarketType(models.MarketType(*criteria.MarketType)) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid marketType: %s", *criteria.MarketType))
	}
	if criteria.Mode != nil && !models.ValidTenderMode(models.TenderMode(*criteria.Mode)) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid mode: %s", *criteria.Mode))
	}
	if criteria.BudgetMin != nil && criteria.BudgetMax != nil && *criteria.BudgetMin > *criteria.BudgetMax {
		return nil, models.NewValidationError("budgetMin cannot exceed budgetMax")
	}

	return s.Repo.CreateSavedSearch(ctx, username, criteria)
}

// GetUserSavedSearches возвращает сохраненные поиски пользователя.
func (s *SavedSearchService) GetUserSavedSearches(ctx context.Context, username string) ([]models.SavedSearch, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}
	return s.Repo.GetUserSavedSearches(ctx, username)
}

// DeleteSavedSearch удаляет сохраненный поиск пользователя.
func (s *SavedSearchService) DeleteSavedSearch(ctx context.Context, searchId, username string) error {
	if searchId == "" {
		return models.NewValidationError("missing required path parameter: searchId")
	}
	if err := s.requireUser(ctx, username); err != nil {
		return err
	}

	err := s.Repo.DeleteSavedSearch(ctx, searchId, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("saved search not found")
	}
	return err
}
