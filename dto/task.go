package dto

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidURL   = errors.New("invalid media url")
)

type InfoRequest struct {
	URL string `json:"url"`
}

type InfoResponse struct {
	VideoID           string          `json:"video_id"`
	Title             string          `json:"title"`
	Channel           string          `json:"channel,omitempty"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
	Duration          int64           `json:"duration"`
	DurationFormatted string          `json:"duration_formatted"`
	Qualities         []QualityOption `json:"qualities"`
}

type QualityOption struct {
	Label    string `json:"label"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize,omitempty"`
}

type DownloadRequest struct {
	URL        string `json:"url"`
	Quality    string `json:"quality"`
	FormatType string `json:"format_type"`
}

type DownloadResponse struct {
	TaskID string `json:"task_id"`
}

type StatusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Title    string `json:"title,omitempty"`
	Filename string `json:"filename,omitempty"`
	Expiry   string `json:"expiry,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
