package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type UserHandler struct {
	service domain.UserService
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

type createUserRequest struct {
	Name string `json:"name"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		h.logger.Error("Kullanıcılar listelenemedi", map[string]interface{}{"error": err.Error()})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz ID formatı")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Kullanıcı alınamadı", map[string]interface{}{"id": id, "error": err.Error()})
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Name)
	if err != nil {
		status, message := statusFromError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Kullanıcı oluşturulamadı", map[string]interface{}{"error": err.Error()})
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users", h.ListUsers)
	mux.HandleFunc("POST /users", h.CreateUser)
	mux.HandleFunc("GET /users/{id}", h.GetUserByID)
}
