package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

func newToastEvent() (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	return e, rec
}

func parseTrigger(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	return parsed
}

func toastOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var toast map[string]string
	if err := json.Unmarshal(parseTrigger(t, rec)["showToast"], &toast); err != nil {
		t.Fatalf("showToast is not valid JSON: %v", err)
	}
	return toast
}

func TestSetToast_Messages(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", "success", "Offer saved"},
		{"warning", "warning", "Please fix the errors below"},
		{"quotes", "info", `Component "App Server" added`},
		{"markup", "error", `<script>alert("x")</script>`},
		{"unicode", "success", "Saved ✔ €6,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent()
			SetToast(e, tt.toastType, tt.message)

			toast := toastOf(t, rec)
			if toast["type"] != tt.toastType || toast["message"] != tt.message {
				t.Errorf("toast = %v, want %s/%q", toast, tt.toastType, tt.message)
			}
		})
	}
}

func TestSetToast_MergesWithExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", `{"editorChanged":{"kind":"environments"}}`)

	SetToast(e, "success", "Environment added")

	parsed := parseTrigger(t, rec)
	if _, ok := parsed["editorChanged"]; !ok {
		t.Error("expected editorChanged to be preserved after merge")
	}
	if toastOf(t, rec)["message"] != "Environment added" {
		t.Error("expected toast to be merged in")
	}
}

func TestSetToast_OverwritesInvalidExisting(t *testing.T) {
	e, rec := newToastEvent()
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, "error", "Overwritten")

	if _, ok := parseTrigger(t, rec)["showToast"]; !ok {
		t.Error("expected showToast key after overwriting invalid header")
	}
}

func TestSetToast_FlashCookie(t *testing.T) {
	e, rec := newToastEvent()
	SetToast(e, "success", "Offer OFF-26-0001 created")

	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "flash_toast" {
			flash = c
		}
	}
	if flash == nil {
		t.Fatal("expected flash_toast cookie")
	}
	raw, err := url.QueryUnescape(flash.Value)
	if err != nil {
		t.Fatalf("cookie is not query-escaped: %v", err)
	}
	if !strings.Contains(raw, "OFF-26-0001") {
		t.Errorf("cookie payload = %q", raw)
	}
}

func TestErrorToast_SetsHeaderAndReswap(t *testing.T) {
	e, rec := newToastEvent()

	if err := ErrorToast(e, http.StatusNotFound, "Offer not found"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}
	if toastOf(t, rec)["type"] != "error" {
		t.Error("expected error toast")
	}
	if got := rec.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q, want none", got)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
