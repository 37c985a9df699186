package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type BookHandler struct {
	service domain.BookService
	logger  logger.Logger
}

func NewBookHandler(service domain.BookService, logger logger.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger,
	}
}

type createBookRequest struct {
	Name string `json:"name"`
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetAllBooks(r.Context())
	if err != nil {
		h.logger.Error("Kitaplar listelenemedi", map[string]interface{}{"error": err.Error()})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

func (h *BookHandler) GetBookByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz ID formatı")
		return
	}

	book, err := h.service.GetBookByID(r.Context(), id)
	if err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Kitap alınamadı", map[string]interface{}{"id": id, "error": err.Error()})
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	book, err := h.service.CreateBook(r.Context(), req.Name)
	if err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Kitap oluşturulamadı", map[string]interface{}{"error": err.Error()})
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.ListBooks)
	mux.HandleFunc("POST /books", h.CreateBook)
	mux.HandleFunc("GET /books/{id}", h.GetBookByID)
}
