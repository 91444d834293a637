package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"movie-catalog/internal/catalog"
	"movie-catalog/internal/store"
	"movie-catalog/pkg/auth"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 1 << 20

// Options - параметры HTTP слоя
type Options struct {
	DefaultLimit    int // limit по умолчанию для рекомендаций и трендов
	DefaultPageSize int
	MaxPageSize     int
}

// Handler содержит зависимости HTTP обработчиков каталога
type Handler struct {
	movies       store.MovieStore
	users        store.UserStore
	comments     store.CommentStore
	catalog      *catalog.Service
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager
	opts         Options
}

// Dependencies собирает все, что нужно Handler
type Dependencies struct {
	Movies       store.MovieStore
	Users        store.UserStore
	Comments     store.CommentStore
	Catalog      *catalog.Service
	Logger       *slog.Logger
	Validator    *validator.Validate
	TokenManager auth.TokenManager
	Options      Options
}

func NewHandler(d Dependencies) *Handler {
	opts := d.Options
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 12
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	return &Handler{
		movies:       d.Movies,
		users:        d.Users,
		comments:     d.Comments,
		catalog:      d.Catalog,
		logger:       d.Logger,
		validator:    d.Validator,
		tokenManager: d.TokenManager,
		opts:         opts,
	}
}

// --- Вспомогательные функции ---

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// normalizer реализуют запросы, которые приводят поля к каноническому виду до валидации
type normalizer interface {
	Normalize()
}

// decodeAndValidate читает JSON тело в dst и проверяет его валидатором.
// При ошибке ответ уже отправлен и возвращается false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request body", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := h.validator.StructCtx(ctx, dst); err != nil {
		h.logger.WarnContext(ctx, "Request validation failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// respondServiceError переводит ошибку сервиса каталога в HTTP статус
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidAction), errors.Is(err, catalog.ErrValidation):
		h.respondError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Catalog operation failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// queryInt читает целый параметр запроса; пустое значение дает def
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

// Health - проверка живости
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
