package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type LendingHandler struct {
	service domain.LendingService
	logger  logger.Logger
}

func NewLendingHandler(service domain.LendingService, logger logger.Logger) *LendingHandler {
	return &LendingHandler{
		service: service,
		logger:  logger,
	}
}

type returnBookRequest struct {
	Score int64 `json:"score"`
}

func (h *LendingHandler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	if _, err := h.service.BorrowBook(r.Context(), userID, bookID); err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Ödünç alma başarısız", map[string]interface{}{
				"user_id": userID,
				"book_id": bookID,
				"error":   err.Error(),
			})
		}
		writeError(w, status, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LendingHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	var req returnBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	if _, err := h.service.ReturnBook(r.Context(), userID, bookID, req.Score); err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("İade başarısız", map[string]interface{}{
				"user_id": userID,
				"book_id": bookID,
				"error":   err.Error(),
			})
		}
		writeError(w, status, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LendingHandler) parseIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz kullanıcı ID formatı")
		return 0, 0, false
	}

	bookID, err := strconv.ParseInt(r.PathValue("bookId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz kitap ID formatı")
		return 0, 0, false
	}

	return userID, bookID, true
}

func (h *LendingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users/{userId}/borrow/{bookId}", h.BorrowBook)
	mux.HandleFunc("POST /users/{userId}/return/{bookId}", h.ReturnBook)
}
