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

// TenderHandler - структура для обработки HTTP-запросов по тендерам.
type TenderHandler struct {
	Service *services.TenderService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewTenderHandler создает новый экземпляр TenderHandler.
func NewTenderHandler(service *services.TenderService, logger *logrus.Logger, timeout time.Duration) *TenderHandler {
	return &TenderHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

func (h *TenderHandler) sendError(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Error(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Kind, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, models.InternalError, fallback)
}

func (h *TenderHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error(err)
	}
}

// GetTenders обрабатывает запросы для получения списка тендеров.
func (h *TenderHandler) GetTenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	marketTypes := r.URL.Query()["market_type"]

	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, err.Error())
		return
	}

	tenders, err := h.Service.FetchTenders(ctx, limit, offset, marketTypes)
	if err != nil {
		h.sendError(w, err, "failed to fetch tenders")
		return
	}

	h.writeJSON(w, tenders)
}

// CreateTender обрабатывает запросы для создания тендера.
func (h *TenderHandler) CreateTender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var tenderReq models.TenderRequest
	if err := json.NewDecoder(r.Body).Decode(&tenderReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid request body")
		return
	}

	tender, err := h.Service.CreateTender(ctx, tenderReq)
	if err != nil {
		h.sendError(w, err, "failed to create tender")
		return
	}

	h.writeJSON(w, tender)
}

// GetTender обрабатывает запросы для получения тендера по идентификатору.
func (h *TenderHandler) GetTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")

	tender, err := h.Service.GetTenderByID(ctx, tenderId)
	if err != nil {
		h.sendError(w, err, "failed to fetch tender")
		return
	}

	h.writeJSON(w, tender)
}

// GetUserTenders обрабатывает запросы для получения списка тендеров пользователя.
func (h *TenderHandler) GetUserTenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	username := r.URL.Query().Get("username")

	tenders, err := h.Service.GetUserTenders(ctx, limitStr, offsetStr, username)
	if err != nil {
		h.sendError(w, err, "failed to fetch tenders")
		return
	}

	h.writeJSON(w, tenders)
}

// EditTender обрабатывает запросы для изменения тендера.
func (h *TenderHandler) EditTender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only PATCH is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")
	username := r.URL.Query().Get("username")

	var updateFields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateFields); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid request body")
		return
	}

	updatedTender, err := h.Service.EditTender(ctx, tenderId, username, updateFields)
	if err != nil {
		h.sendError(w, err, "failed to update tender")
		return
	}

	h.writeJSON(w, updatedTender)
}

// PublishTender обрабатывает запросы для публикации тендера.
func (h *TenderHandler) PublishTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")
	username := r.URL.Query().Get("username")

	tender, err := h.Service.PublishTender(ctx, tenderId, username)
	if err != nil {
		h.sendError(w, err, "failed to publish tender")
		return
	}

	h.writeJSON(w, tender)
}

// CloseTender обрабатывает запросы для закрытия тендера.
func (h *TenderHandler) CloseTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")
	username := r.URL.Query().Get("username")

	tender, err := h.Service.CloseTender(ctx, tenderId, username)
	if err != nil {
		h.sendError(w, err, "failed to close tender")
		return
	}

	h.writeJSON(w, tender)
}

// RevealIdentity обрабатывает запросы для раскрытия личности заказчика.
func (h *TenderHandler) RevealIdentity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")
	username := r.URL.Query().Get("username")

	tender, err := h.Service.RevealIdentity(ctx, tenderId, username)
	if err != nil {
		h.sendError(w, err, "failed to reveal identity")
		return
	}

	h.writeJSON(w, tender)
}
