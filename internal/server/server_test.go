package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/compose"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/fonts"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/pipeline"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServer(t *testing.T) (*httptest.Server, *clock) {
	t.Helper()
	reg, err := catalog.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	f, err := fonts.New("")
	if err != nil {
		t.Fatal(err)
	}
	c := &clock{now: time.Date(2026, 5, 16, 10, 0, 0, 0, time.UTC)}
	svc := delivery.NewService(delivery.NewMemoryStore(), delivery.WithClock(c.Now))
	gen := pipeline.NewGenerator(reg, compose.New(f, nil), svc,
		pipeline.WithWorkers(2),
		pipeline.WithBaseURL("https://invites.example"))

	ts := httptest.NewServer(New(gen).Handler())
	t.Cleanup(ts.Close)
	return ts, c
}

const goanBody = `{
  "templateId": "goan-beach-bliss",
  "fields": {
    "groomName": "Armando",
    "brideName": "Gabriella",
    "ceremonyDate": "2025-02-14",
    "ceremonyTime": "17:00",
    "ceremonyVenue": "Calangute Beach"
  },
  "formats": ["png", "pdf"]
}`

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/invitations", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func create(t *testing.T, ts *httptest.Server) CreateInvitationResponse {
	t.Helper()
	resp := post(t, ts, goanBody)
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	return decode[CreateInvitationResponse](t, resp)
}

func TestCreateAndDownload(t *testing.T) {
	ts, _ := newTestServer(t)
	created := create(t, ts)

	if created.ExpiresIn != int64((24 * time.Hour).Seconds()) {
		t.Errorf("expiresIn = %d", created.ExpiresIn)
	}
	if len(created.Downloads) != 2 {
		t.Fatalf("downloads = %v", created.Downloads)
	}
	want := "/api/downloads/" + created.Token + "/png"
	if created.Downloads["png"] != want {
		t.Errorf("png link = %q, want %q", created.Downloads["png"], want)
	}

	resp := get(t, ts.URL+created.Downloads["png"])
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="armando-and-gabriella-invitation.png"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	again := get(t, ts.URL+created.Downloads["png"])
	if again.StatusCode != http.StatusGone {
		t.Errorf("second download status = %d, want 410", again.StatusCode)
	}
	if body := decode[ErrorResponse](t, again); body.Code != errs.ErrCodeTokenConsumed {
		t.Errorf("code = %s", body.Code)
	}

	pdf := get(t, ts.URL+created.Downloads["pdf"])
	if pdf.StatusCode != http.StatusOK || pdf.Header.Get("Content-Type") != "application/pdf" {
		t.Errorf("pdf status = %d type = %q", pdf.StatusCode, pdf.Header.Get("Content-Type"))
	}
}

func TestDownloadExpired(t *testing.T) {
	ts, c := newTestServer(t)
	created := create(t, ts)
	c.Advance(24*time.Hour + time.Second)

	resp := get(t, ts.URL+created.Downloads["pdf"])
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("status = %d, want 410", resp.StatusCode)
	}
	if body := decode[ErrorResponse](t, resp); body.Code != errs.ErrCodeTokenExpired {
		t.Errorf("code = %s", body.Code)
	}
}

func TestDownloadUnknown(t *testing.T) {
	ts, _ := newTestServer(t)
	tok, _ := delivery.NewToken()
	for _, path := range []string{
		"/api/downloads/" + tok + "/png",
		"/api/downloads/not-a-token/png",
	} {
		resp := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
			continue
		}
		if body := decode[ErrorResponse](t, resp); body.Code != errs.ErrCodeTokenNotFound {
			t.Errorf("%s code = %s", path, body.Code)
		}
	}
}

func TestCreateErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		code   errs.Code
		fields []string
	}{
		{
			name:   "unknown template",
			body:   `{"templateId":"does-not-exist","fields":{},"formats":["png"]}`,
			status: http.StatusNotFound,
			code:   errs.ErrCodeTemplateNotFound,
		},
		{
			name:   "missing fields",
			body:   `{"templateId":"goan-beach-bliss","fields":{"brideName":"Gabriella","ceremonyDate":"2025-02-14"},"formats":["png"]}`,
			status: http.StatusUnprocessableEntity,
			code:   errs.ErrCodeValidationFailed,
			fields: []string{"groomName", "ceremonyVenue"},
		},
		{
			name:   "bad format",
			body:   strings.Replace(goanBody, `"pdf"`, `"gif"`, 1),
			status: http.StatusUnprocessableEntity,
			code:   errs.ErrCodeInvalidFormat,
		},
		{
			name:   "malformed json",
			body:   `{"templateId":`,
			status: http.StatusBadRequest,
			code:   errs.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[ErrorResponse](t, resp)
			if body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
			if len(body.Fields) != len(tt.fields) {
				t.Fatalf("fields = %+v, want %v", body.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if body.Fields[i].Field != f {
					t.Errorf("fields[%d] = %q, want %q", i, body.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	ts, _ := newTestServer(t)

	list := decode[[]catalog.PublicTemplate](t, get(t, ts.URL+"/api/templates"))
	if len(list) == 0 {
		t.Fatal("empty template list")
	}

	resp := get(t, ts.URL+"/api/templates/goan-beach-bliss")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	one := decode[catalog.PublicTemplate](t, resp)
	if one.ID != "goan-beach-bliss" || !one.QRCode {
		t.Errorf("template = %+v", one)
	}

	if resp := get(t, ts.URL+"/api/templates/does-not-exist"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown template status = %d", resp.StatusCode)
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	health := decode[HealthResponse](t, get(t, ts.URL+"/healthz"))
	if health.Status != "ok" {
		t.Errorf("health = %+v", health)
	}
	if resp := get(t, ts.URL+"/api/tokens"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("token listing route status = %d, want 404", resp.StatusCode)
	}
}

func TestRedactToken(t *testing.T) {
	tests := map[string]string{
		"/api/downloads/abc/png": "/api/downloads/…/png",
		"/api/downloads/abc":     "/api/downloads/…",
		"/api/templates":         "/api/templates",
	}
	for in, want := range tests {
		if got := redactToken(in); got != want {
			t.Errorf("redactToken(%q) = %q, want %q", in, got, want)
		}
	}
}
