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

// EquityHandler - структура для обработки HTTP-запросов к журналу справедливости.
type EquityHandler struct {
	Service *services.EquityService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewEquityHandler создает новый экземпляр EquityHandler.
func NewEquityHandler(service *services.EquityService, logger *logrus.Logger, timeout time.Duration) *EquityHandler {
	return &EquityHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetTenderLogs обрабатывает запросы для получения журнала по тендеру.
func (h *EquityHandler) GetTenderLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderId := r.PathValue("tenderId")

	logs, err := h.Service.GetTenderLogs(ctx, tenderId)
	if err != nil {
		h.Logger.Error(err)
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Kind, errorResponse.Message)
			return
		}
		utils.SendErrorResponse(w, http.StatusInternalServerError, models.InternalError, "failed to fetch equity logs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(logs); err != nil {
		h.Logger.Error(err)
	}
}
