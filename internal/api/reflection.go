package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/innervoice/internal/fallback"
	"github.com/kalambet/innervoice/internal/ingest"
	"github.com/kalambet/innervoice/internal/mood"
	"github.com/kalambet/innervoice/internal/profile"
	"github.com/kalambet/innervoice/internal/reflection"
)

const maxRequestBodySize = 1 << 20 // 1MB

// NewReflectionHandler returns an http.Handler implementing the
// reflection REST API. The store is used for the read-only profile
// endpoints and writing-sample import; all chat-path mutation goes
// through the reflector.
func NewReflectionHandler(refl *reflection.Reflector, store profile.Store) http.Handler {
	r := chi.NewRouter()

	r.Get("/", handleWelcome)
	r.Get("/api/health", handleHealth(refl))
	r.Post("/api/ai-reflection/create-profile", handleCreateProfile(refl))
	r.Post("/api/ai-reflection/chat", handleChat(refl))
	r.Get("/api/ai-reflection/profile/{profileID}", handleGetProfile(store))
	r.Get("/api/ai-reflection/debug/profiles", handleListProfiles(store))
	r.Post("/api/ai-reflection/import-writing-sample", handleImportSample(store))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "Route not found")
	})

	return r
}

func handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the innervoice reflection API",
		"endpoints": map[string]string{
			"health":        "GET /api/health",
			"createProfile": "POST /api/ai-reflection/create-profile",
			"chat":          "POST /api/ai-reflection/chat",
			"getProfile":    "GET /api/ai-reflection/profile/{id}",
		},
	})
}

func handleHealth(refl *reflection.Reflector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upstream := "disabled"
		if refl.UpstreamConfigured() {
			upstream = "configured"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"server":    "innervoice",
			"upstream":  upstream,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleCreateProfile(refl *reflection.Reflector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var userData map[string]any
		if err := json.NewDecoder(r.Body).Decode(&userData); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}

		p, err := refl.CreateProfile(userData)
		if err != nil {
			var verr *reflection.ValidationError
			if errors.As(err, &verr) {
				httpError(w, http.StatusBadRequest, "%s", verr.Message)
				return
			}
			httpError(w, http.StatusInternalServerError, "could not create profile: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Your AI reflection %q is ready to chat!", p.Name),
			"profile": map[string]any{
				"id":        p.ID,
				"name":      p.Name,
				"traits":    p.PersonalityTraits,
				"style":     p.CommunicationStyle,
				"interests": p.Interests,
				"createdAt": p.CreatedAt,
			},
		})
	}
}

type chatRequest struct {
	ProfileID string `json:"profileId"`
	Message   string `json:"message"`
}

func handleChat(refl *reflection.Reflector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "Message is required")
			return
		}
		if req.ProfileID == "" {
			httpError(w, http.StatusBadRequest, "Profile ID is required")
			return
		}

		result, err := refl.Respond(r.Context(), req.ProfileID, req.Message)
		if err != nil {
			m := mood.Detect(req.Message)
			if errors.Is(err, profile.ErrNotFound) {
				chatError(w, http.StatusNotFound, m, "Profile not found")
				return
			}
			chatError(w, http.StatusInternalServerError, m, "could not process your message: %v", err)
			return
		}

		resp := map[string]any{
			"success":           true,
			"response":          result.Reply,
			"profileName":       result.ProfileName,
			"conversationCount": result.ConversationCount,
			"mood":              string(result.Mood),
			"suggestions":       result.Suggestions,
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		}
		if result.NeedsSupport {
			resp["needsSupport"] = true
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetProfile(store profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "profileID")

		p, err := store.Get(id)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				httpError(w, http.StatusNotFound, "Profile not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "could not fetch profile: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"profile": p,
		})
	}
}

func handleListProfiles(store profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := store.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "could not list profiles: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"profiles": summaries,
			"count":    len(summaries),
		})
	}
}

type importSampleRequest struct {
	ProfileID string `json:"profileId"`
	Text      string `json:"text"`
	PDFBase64 string `json:"pdfBase64"`
}

func handleImportSample(store profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req importSampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if req.ProfileID == "" {
			httpError(w, http.StatusBadRequest, "Profile ID is required")
			return
		}

		sample, err := extractSample(req)
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}
		if sample == "" {
			httpError(w, http.StatusBadRequest, "text or pdfBase64 is required")
			return
		}

		if err := store.SetWritingSample(req.ProfileID, sample); err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				httpError(w, http.StatusNotFound, "Profile not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "could not store writing sample: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"profileId":    req.ProfileID,
			"sampleLength": len(sample),
		})
	}
}

func extractSample(req importSampleRequest) (string, error) {
	if req.PDFBase64 != "" {
		data, err := ingest.DecodeBase64(req.PDFBase64)
		if err != nil {
			return "", fmt.Errorf("invalid pdfBase64: %w", err)
		}
		sample, err := ingest.FromPDF(data)
		if err != nil {
			return "", fmt.Errorf("could not extract PDF text: %w", err)
		}
		return sample, nil
	}
	return ingest.FromText(req.Text), nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	})
}

// chatError is httpError with a mood-keyed fallback reply attached, so
// chat clients can always render something for the user.
func chatError(w http.ResponseWriter, code int, m mood.Mood, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"success":          false,
		"error":            fmt.Sprintf(format, args...),
		"fallbackResponse": fallback.Generic(m),
	})
}
