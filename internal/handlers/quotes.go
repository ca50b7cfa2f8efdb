package handlers

import (
	"net/http"

	"relocation-quote/internal/logger"
	"relocation-quote/internal/models"
)

// QuoteHandler обрабатывает расчёт стоимости переезда и пробега
type QuoteHandler struct {
	quotes QuoteService
	log    *logger.Logger
}

// NewQuoteHandler создает обработчик расчётов
func NewQuoteHandler(quotes QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		log:    log,
	}
}

// CreateQuote считает стоимость переезда
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateQuoteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.quotes.CreateQuote(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate quote")
		return
	}

	writeJSONResponse(w, http.StatusOK, quote)
}

// ResolveDistance считает круговой пробег база → откуда → куда → база
func (h *QuoteHandler) ResolveDistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.DistanceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.quotes.ResolveDistance(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to resolve distance")
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// Defaults возвращает действующие тарифы
func (h *QuoteHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, h.quotes.Defaults(r.Context()))
}
