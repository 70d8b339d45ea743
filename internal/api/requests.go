package api

import (
	"encoding/json"
	"net/http"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/events"
)

// NetworkActivityRequest is the POST body for network activity reports.
type NetworkActivityRequest events.NetworkActivityObserved

func (r NetworkActivityRequest) toEvent() domain.ActivityEvent {
	return domain.NetworkActivity{
		CategoryTags: r.CategoryTags,
		URL:          r.URL,
		EventTime:    r.EventTime,
	}
}

// AppActivityRequest is the POST body for app activity reports.
type AppActivityRequest events.AppActivityReported

func (r AppActivityRequest) toEvent() domain.ActivityEvent {
	records := make([]domain.AppActivityRecord, 0, len(r.Activities))
	for _, entry := range r.Activities {
		records = append(records, domain.AppActivityRecord{
			Application: entry.Application,
			StartTime:   entry.StartTime,
			EndTime:     entry.EndTime,
		})
	}
	return domain.AppActivityBatch{
		DeviceDateTime: r.DeviceDateTime,
		Activities:     records,
	}
}

// RelevantCategoryTagsResponse lists the union of tags across all categories.
type RelevantCategoryTagsResponse struct {
	CategoryTags []string `json:"category_tags"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
