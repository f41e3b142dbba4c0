package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mediaDownloader/dto"
	"mediaDownloader/fetcher"
	"mediaDownloader/middleware"
	"mediaDownloader/preview"
)

// TaskService is the surface the HTTP layer needs from the service.
type TaskService interface {
	Resolve(ctx context.Context, rawURL string) (*dto.InfoResponse, error)
	Submit(ctx context.Context, req *dto.DownloadRequest) (string, error)
	Status(ctx context.Context, taskID string) (*dto.StatusResponse, error)
	File(ctx context.Context, taskID string) (path, filename string, err error)
}

type TaskHandler struct {
	service  TaskService
	previews *preview.Cache
	logger   *zap.Logger
}

func NewTaskHandler(service TaskService, previews *preview.Cache, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service:  service,
		previews: previews,
		logger:   logger,
	}
}

// Register attaches all routes to the mux.
func (h *TaskHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/info", h.Info)
	mux.HandleFunc("/download", h.Download)
	mux.HandleFunc("/status/", h.Status)
	mux.HandleFunc("/file/", h.File)
	mux.HandleFunc("/thumb/", h.Thumbnail)
	mux.HandleFunc("/health", h.Health)
}

func (h *TaskHandler) Info(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
		return
	}

	var req dto.InfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, "Invalid request body", err, traceID, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.handleError(w, "URL is required", nil, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Resolve(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		if errors.Is(err, dto.ErrInvalidURL) {
			h.handleError(w, "Invalid media URL", err, traceID, http.StatusBadRequest)
			return
		}
		if errors.Is(err, fetcher.ErrResolution) {
			h.handleError(w, "Failed to resolve URL", err, traceID, http.StatusBadGateway)
			return
		}
		h.handleError(w, "Failed to fetch info", err, traceID, http.StatusInternalServerError)
		return
	}

	// A local preview beats hotlinking the remote thumbnail, but the remote
	// URL is a fine fallback when the fetch fails.
	if h.previews != nil && resp.Thumbnail != "" {
		if _, err := h.previews.Ensure(r.Context(), resp.VideoID, resp.Thumbnail); err == nil {
			resp.Thumbnail = "/thumb/" + resp.VideoID
		} else {
			h.logger.Warn("Preview generation failed",
				zap.String("trace_id", traceID),
				zap.String("video_id", resp.VideoID),
				zap.Error(err),
			)
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
		return
	}

	var req dto.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, "Invalid request body", err, traceID, http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.handleError(w, "URL is required", nil, traceID, http.StatusBadRequest)
		return
	}

	taskID, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		if errors.Is(err, dto.ErrInvalidURL) {
			h.handleError(w, "Invalid media URL", err, traceID, http.StatusBadRequest)
			return
		}
		h.handleError(w, "Failed to create task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.logger.Info("Download accepted",
		zap.String("trace_id", traceID),
		zap.String("task_id", taskID),
	)
	h.respondJSON(w, http.StatusAccepted, dto.DownloadResponse{TaskID: taskID})
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := strings.TrimPrefix(r.URL.Path, "/status/")
	if taskID == "" {
		h.handleError(w, "Task ID is required", nil, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Status(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, dto.ErrTaskNotFound) {
			h.handleError(w, "Task not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "Failed to get task status", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) File(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := strings.TrimPrefix(r.URL.Path, "/file/")
	if taskID == "" {
		h.handleError(w, "Task ID is required", nil, traceID, http.StatusBadRequest)
		return
	}

	path, filename, err := h.service.File(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, dto.ErrTaskNotFound) {
			h.handleError(w, "File not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "Failed to resolve file", err, traceID, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func (h *TaskHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	videoID := strings.TrimPrefix(r.URL.Path, "/thumb/")
	if videoID == "" || h.previews == nil {
		h.handleError(w, "Thumbnail not found", nil, traceID, http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, h.previews.Path(videoID))
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *TaskHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
