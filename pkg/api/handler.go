// pkg/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"form-analyzer/pkg/models"
	"form-analyzer/pkg/pipeline"
	"form-analyzer/pkg/profiles"
	"form-analyzer/pkg/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handlers struct {
	pipeline *pipeline.Manager
	store    storage.MemoryStore
	logger   *zap.Logger
}

func NewHandlers(pipeline *pipeline.Manager, store storage.MemoryStore, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		pipeline: pipeline,
		store:    store,
		logger:   logger,
	}
}

// Register wires every route onto router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/exercises", h.ListExercisesHandler).Methods("GET")
	router.HandleFunc("/exercises/{id}", h.GetExerciseHandler).Methods("GET")
	router.HandleFunc("/sessions", h.CreateSessionHandler).Methods("POST")
	router.HandleFunc("/sessions/{id}", h.GetSessionHandler).Methods("GET")
	router.HandleFunc("/sessions/{id}/stop", h.StopSessionHandler).Methods("POST")
	router.HandleFunc("/sessions/{id}/reset", h.ResetSessionHandler).Methods("POST")
	router.HandleFunc("/users/{user_id}/sessions", h.GetUserSessionsHandler).Methods("GET")
	router.HandleFunc("/ws", h.WebSocketHandler)
}

func (h *Handlers) ListExercisesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exercises": profiles.List(),
	})
}

func (h *Handlers) GetExerciseHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := profiles.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type createSessionRequest struct {
	UserID     string `json:"user_id"`
	ExerciseID string `json:"exercise_id"`
}

func (h *Handlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ExerciseID == "" {
		http.Error(w, "user_id and exercise_id are required", http.StatusBadRequest)
		return
	}

	session, err := h.pipeline.CreateSession(req.UserID, req.ExerciseID)
	if err != nil {
		switch {
		case errors.Is(err, profiles.ErrUnknownExercise):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, pipeline.ErrManagerStopped):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error("Failed to create session", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id":  session.Info.ID,
		"exercise_id": session.Info.ExerciseID,
		"status":      session.Info.Status,
	})
}

func (h *Handlers) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if session, err := h.pipeline.Session(id); err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session":  session.Info,
			"snapshot": session.Engine.CurrentData(),
			"feedback": session.Dispatcher.Stats(),
		})
		return
	}

	info, err := h.store.GetSession(id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": info,
	})
}

func (h *Handlers) StopSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.pipeline.StopSession(id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"status":     models.SessionStopped,
	})
}

func (h *Handlers) ResetSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.pipeline.Session(mux.Vars(r)["id"])
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	session.Engine.ResetRepCount()
	writeJSON(w, http.StatusOK, session.Engine.CurrentData())
}

func (h *Handlers) GetUserSessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	sessions, err := h.store.GetUserSessions(userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.logger.Error("Session lookup failed", zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
