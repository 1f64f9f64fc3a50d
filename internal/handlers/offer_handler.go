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

// OfferHandler - структура для обработки HTTP-запросов по предложениям.
type OfferHandler struct {
	Service *services.OfferService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewOfferHandler создает новый экземпляр OfferHandler.
func NewOfferHandler(service *services.OfferService, logger *logrus.Logger, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

func (h *OfferHandler) sendError(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Error(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Kind, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, models.InternalError, fallback)
}

func (h *OfferHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error(err)
	}
}

// SubmitOffer обрабатывает запросы для подачи предложения.
func (h *OfferHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var offerReq models.OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&offerReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, models.ValidationError, "invalid request body")
		return
	}

	offer, err := h.Service.SubmitOffer(ctx, offerReq)
	if err != nil {
		h.sendError(w, err, "failed to submit offer")
		return
	}

	h.writeJSON(w, offer)
}

// GetTenderOffers обрабатывает запросы для получения предложений по тендеру.
func (h *OfferHandler) GetTenderOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")
	username := r.URL.Query().Get("username")
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	offers, err := h.Service.GetTenderOffers(ctx, tenderId, username, limitStr, offsetStr)
	if err != nil {
		h.sendError(w, err, "failed to fetch offers")
		return
	}

	h.writeJSON(w, offers)
}

// MarkViewed обрабатывает запросы для отметки предложения просмотренным.
func (h *OfferHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offerId := r.PathValue("offerId")
	username := r.URL.Query().Get("username")

	offer, err := h.Service.MarkOfferViewed(ctx, offerId, username)
	if err != nil {
		h.sendError(w, err, "failed to mark offer as viewed")
		return
	}

	h.writeJSON(w, offer)
}

// Shortlist обрабатывает запросы для включения предложения в шорт-лист.
func (h *OfferHandler) Shortlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offerId := r.PathValue("offerId")
	username := r.URL.Query().Get("username")

	offer, err := h.Service.ShortlistOffer(ctx, offerId, username)
	if err != nil {
		h.sendError(w, err, "failed to shortlist offer")
		return
	}

	h.writeJSON(w, offer)
}

// Unshortlist обрабатывает запросы для исключения предложения из шорт-листа.
func (h *OfferHandler) Unshortlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offerId := r.PathValue("offerId")
	username := r.URL.Query().Get("username")

	offer, err := h.Service.UnshortlistOffer(ctx, offerId, username)
	if err != nil {
		h.sendError(w, err, "failed to remove offer from shortlist")
		return
	}

	h.writeJSON(w, offer)
}

// Withdraw обрабатывает запросы для отзыва предложения.
func (h *OfferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offerId := r.PathValue("offerId")
	username := r.URL.Query().Get("username")

	offer, err := h.Service.WithdrawOffer(ctx, offerId, username)
	if err != nil {
		h.sendError(w, err, "failed to withdraw offer")
		return
	}

	h.writeJSON(w, offer)
}
