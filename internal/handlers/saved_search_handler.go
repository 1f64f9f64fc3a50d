package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"
	"github.com/avdeenkov/procurement-service/internal/services"
	"github.com/avdeenkov/procurement-service/internal/utils"

	"github.com/sirupsen/logrus"
)

// SavedSearchHandler - структура для обработки HTTP-запросов по сохраненным поискам.
type SavedSearchHandler struct {
	Service *services.SavedSearchService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewSavedSearchHandler создает новый экземпляр SavedSearchHandler.
func NewSavedSearchHandler(service *services.SavedSearchService, logger *logrus.Logger, timeout time.Duration) *SavedSearchHandler {
	return &SavedSearchHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

func (h *SavedSearchHandler) sendError(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Error(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Kind, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, models.InternalError, fallback)
}

// CreateSavedSearch обрабатывает запросы для сохранения поиска.
func (h *SavedSearchHandler) CreateSavedSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	username := r.URL.Query().Get("username")

	var criteria models.SavedSearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid request body")
		return
	}

	search, err := h.Service.CreateSavedSearch(ctx, username, criteria)
	if err != nil {
		h.sendError(w, err, "failed to create saved search")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(search); err != nil {
		h.Logger.Error(err)
	}
}

// GetUserSavedSearches обрабатывает запросы для получения поисков пользователя.
func (h *SavedSearchHandler) GetUserSavedSearches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	username := r.URL.Query().Get("username")

	searches, err := h.Service.GetUserSavedSearches(ctx, username)
	if err != nil {
		h.sendError(w, err, "failed to fetch saved searches")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(searches); err != nil {
		h.Logger.Error(err)
	}
}

// DeleteSavedSearch обрабатывает запросы для удаления сохраненного поиска.
func (h *SavedSearchHandler) DeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	searchId := r.PathValue("searchId")
	username := r.URL.Query().Get("username")

	if err := h.Service.DeleteSavedSearch(ctx, searchId, username); err != nil {
		h.sendError(w, err, "failed to delete saved search")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
