package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/innervoice/internal/fallback"
	"github.com/kalambet/innervoice/internal/mood"
	"github.com/kalambet/innervoice/internal/profile"
	"github.com/kalambet/innervoice/internal/reflection"
)

func newTestHandler(t *testing.T) (http.Handler, profile.Store) {
	t.Helper()
	store := profile.NewMemoryStore(0)
	refl := reflection.New(store, nil)
	return NewReflectionHandler(refl, store), store
}

func createTestProfile(t *testing.T, store profile.Store, name string) profile.Profile {
	t.Helper()
	p, err := store.Create(map[string]any{"name": name})
	if err != nil {
		t.Fatalf("creating profile: %v", err)
	}
	return p
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	h.ServeHTTP(rr, req)

	var decoded map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return rr, decoded
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodGet, "/api/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["upstream"] != "disabled" {
		t.Errorf("upstream = %v, want disabled with nil upstream", body["upstream"])
	}
}

func TestWelcome(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodGet, "/", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if _, ok := body["endpoints"]; !ok {
		t.Error("welcome response missing endpoint index")
	}
}

func TestCreateProfile(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/create-profile",
		`{"name":"Alex","interests":"reading, hiking"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %v", rr.Code, http.StatusOK, body)
	}
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}

	prof, ok := body["profile"].(map[string]any)
	if !ok {
		t.Fatalf("profile missing from response: %v", body)
	}
	if prof["name"] != "Alex" {
		t.Errorf("profile name = %v, want Alex", prof["name"])
	}
	if prof["id"] == "" || prof["id"] == nil {
		t.Error("profile id is empty")
	}
}

func TestCreateProfile_MissingName(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/create-profile",
		`{"traits":["kind"]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != "Name is required" {
		t.Errorf("error = %v, want Name is required", body["error"])
	}
}

func TestCreateProfile_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, _ := doJSON(t, h, http.MethodPost, "/api/ai-reflection/create-profile", `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestChat(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Sam")

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"profileId":"`+p.ID+`","message":"I am happy and excited today"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %v", rr.Code, http.StatusOK, body)
	}
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	if body["mood"] != "happy" {
		t.Errorf("mood = %v, want happy", body["mood"])
	}
	if body["profileName"] != "Sam" {
		t.Errorf("profileName = %v, want Sam", body["profileName"])
	}
	if body["conversationCount"] != float64(1) {
		t.Errorf("conversationCount = %v, want 1", body["conversationCount"])
	}
	if reply, _ := body["response"].(string); reply == "" {
		t.Error("response is empty")
	}
	sugg, ok := body["suggestions"].([]any)
	if !ok || len(sugg) != 3 {
		t.Errorf("suggestions = %v, want 3 entries", body["suggestions"])
	}
}

func TestChat_MissingMessage(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Sam")

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"profileId":"`+p.ID+`","message":"   "}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body["error"] != "Message is required" {
		t.Errorf("error = %v, want Message is required", body["error"])
	}
}

func TestChat_MissingProfileID(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"message":"hello"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body["error"] != "Profile ID is required" {
		t.Errorf("error = %v, want Profile ID is required", body["error"])
	}
}

func TestChat_UnknownProfile(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"profileId":"nope","message":"hello"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if body["error"] != "Profile not found" {
		t.Errorf("error = %v, want Profile not found", body["error"])
	}
	if got, want := body["fallbackResponse"], fallback.Generic(mood.Neutral); got != want {
		t.Errorf("fallbackResponse = %v, want %v", got, want)
	}
}

func TestChat_ErrorFallbackTracksMood(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"profileId":"nope","message":"I feel so sad and lonely"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if got, want := body["fallbackResponse"], fallback.Generic(mood.Sad); got != want {
		t.Errorf("fallbackResponse = %v, want %v", got, want)
	}
}

func TestChat_SafetyEscalation(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Sam")

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/chat",
		`{"profileId":"`+p.ID+`","message":"I want to hurt myself"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if body["needsSupport"] != true {
		t.Errorf("needsSupport = %v, want true", body["needsSupport"])
	}
	if body["mood"] != "concerning" {
		t.Errorf("mood = %v, want concerning", body["mood"])
	}
	if body["conversationCount"] != float64(0) {
		t.Errorf("conversationCount = %v, want 0 for escalation turn", body["conversationCount"])
	}

	updated, err := store.Get(p.ID)
	if err != nil {
		t.Fatalf("fetching profile: %v", err)
	}
	if updated.SafetyFlags.ConcerningMessages != 1 {
		t.Errorf("ConcerningMessages = %d, want 1", updated.SafetyFlags.ConcerningMessages)
	}
}

func TestGetProfile(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Riley")

	rr, body := doJSON(t, h, http.MethodGet, "/api/ai-reflection/profile/"+p.ID, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	prof, ok := body["profile"].(map[string]any)
	if !ok {
		t.Fatalf("profile missing from response: %v", body)
	}
	if prof["name"] != "Riley" {
		t.Errorf("name = %v, want Riley", prof["name"])
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, _ := doJSON(t, h, http.MethodGet, "/api/ai-reflection/profile/missing", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListProfiles(t *testing.T) {
	h, store := newTestHandler(t)
	createTestProfile(t, store, "A")
	createTestProfile(t, store, "B")

	rr, body := doJSON(t, h, http.MethodGet, "/api/ai-reflection/debug/profiles", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	profiles, ok := body["profiles"].([]any)
	if !ok || len(profiles) != 2 {
		t.Errorf("profiles = %v, want 2 entries", body["profiles"])
	}
}

func TestImportWritingSample(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Sam")

	rr, body := doJSON(t, h, http.MethodPost, "/api/ai-reflection/import-writing-sample",
		`{"profileId":"`+p.ID+`","text":"  I write in short, direct sentences.  "}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %v", rr.Code, http.StatusOK, body)
	}
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}

	updated, err := store.Get(p.ID)
	if err != nil {
		t.Fatalf("fetching profile: %v", err)
	}
	if updated.WritingSample != "I write in short, direct sentences." {
		t.Errorf("WritingSample = %q, want trimmed text", updated.WritingSample)
	}
}

func TestImportWritingSample_Empty(t *testing.T) {
	h, store := newTestHandler(t)
	p := createTestProfile(t, store, "Sam")

	rr, _ := doJSON(t, h, http.MethodPost, "/api/ai-reflection/import-writing-sample",
		`{"profileId":"`+p.ID+`"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestNotFoundRoute(t *testing.T) {
	h, _ := newTestHandler(t)

	rr, body := doJSON(t, h, http.MethodGet, "/api/nope", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if body["error"] != "Route not found" {
		t.Errorf("error = %v, want Route not found", body["error"])
	}
}
