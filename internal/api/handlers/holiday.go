package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/athebyme/pricewatch-service/internal/domain/models"
	"github.com/athebyme/pricewatch-service/internal/domain/services"
	"github.com/athebyme/pricewatch-service/pkg/errors"
	"github.com/athebyme/pricewatch-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
)

// HolidayHandler обработчик запросов для праздников
type HolidayHandler struct {
	holidays *services.HolidayService
	logger   interfaces.LoggerPort
}

// NewHolidayHandler создает новый обработчик праздников
func NewHolidayHandler(holidays *services.HolidayService, logger interfaces.LoggerPort) *HolidayHandler {
	return &HolidayHandler{
		holidays: holidays,
		logger:   logger,
	}
}

type createHolidayRequest struct {
	Name string `json:"name"`
	Date string `json:"date"` // формат 2006-01-02
}

type monitoringPeriodRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// CreateHoliday обрабатывает запрос на создание праздника
func (h *HolidayHandler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req createHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}
	if req.Name == "" {
		renderBadRequest(w, r, "Название праздника не может быть пустым")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		renderBadRequest(w, r, "Некорректная дата праздника, ожидается формат 2006-01-02")
		return
	}

	holiday, err := h.holidays.CreateHoliday(r.Context(), req.Name, date)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка создания праздника", "error", err)
		renderInternalError(w, r, "Ошибка создания праздника")
		return
	}

	renderCreated(w, r, holiday)
}

// ListHolidays обрабатывает запрос на список праздников года
func (h *HolidayHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		year = 0 // все годы
	}

	holidays, err := h.holidays.ListHolidays(r.Context(), year)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "ошибка получения праздников", "error", err)
		renderInternalError(w, r, "Ошибка получения праздников")
		return
	}

	renderOK(w, r, holidays)
}

// GetHoliday обрабатывает запрос на получение праздника по ID
func (h *HolidayHandler) GetHoliday(w http.ResponseWriter, r *http.Request) {
	holidayID := chi.URLParam(r, "id")
	if holidayID == "" {
		renderBadRequest(w, r, "ID праздника не указан")
		return
	}

	holiday, err := h.holidays.GetHoliday(r.Context(), holidayID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Праздник не найден")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка получения праздника", "error", err)
		renderInternalError(w, r, "Ошибка получения праздника")
		return
	}

	renderOK(w, r, holiday)
}

// UpdateMonitoringPeriod обрабатывает запрос на изменение окна мониторинга
func (h *HolidayHandler) UpdateMonitoringPeriod(w http.ResponseWriter, r *http.Request) {
	holidayID := chi.URLParam(r, "id")
	if holidayID == "" {
		renderBadRequest(w, r, "ID праздника не указан")
		return
	}

	var req monitoringPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}
	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		renderBadRequest(w, r, "Некорректная дата начала, ожидается формат 2006-01-02")
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		renderBadRequest(w, r, "Некорректная дата конца, ожидается формат 2006-01-02")
		return
	}

	holiday, err := h.holidays.UpdateMonitoringPeriod(r.Context(), holidayID, start, end)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrNotFound):
			renderNotFound(w, r, "Праздник не найден")
		case stderrors.Is(err, models.ErrInvalidMonitoringPeriod):
			renderBadRequest(w, r, "Конец окна мониторинга раньше его начала")
		default:
			h.logger.ErrorWithContext(r.Context(), "ошибка обновления окна мониторинга", "error", err)
			renderInternalError(w, r, "Ошибка обновления окна мониторинга")
		}
		return
	}

	renderOK(w, r, holiday)
}

// SetActive обрабатывает запрос на включение или исключение праздника из детектора
func (h *HolidayHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	holidayID := chi.URLParam(r, "id")
	if holidayID == "" {
		renderBadRequest(w, r, "ID праздника не указан")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "Некорректный формат данных")
		return
	}

	holiday, err := h.holidays.SetActive(r.Context(), holidayID, req.Active)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			renderNotFound(w, r, "Праздник не найден")
			return
		}
		h.logger.ErrorWithContext(r.Context(), "ошибка изменения активности праздника", "error", err)
		renderInternalError(w, r, "Ошибка изменения активности праздника")
		return
	}

	renderOK(w, r, holiday)
}
