package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askdoc/askdoc/internal/parser"
)

type fakeEngine struct {
	processErr error
	clearErr   error
	cleared    bool
}

func (f *fakeEngine) Process(_ context.Context, url string, questions []string) (map[string]string, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q] = "answer to " + q
	}
	return answers, nil
}

func (f *fakeEngine) ClearAllCaches(_ context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

func newTestServer(engine Engine, token string) *httptest.Server {
	s := New(Config{Port: 0, AuthToken: token}, engine)
	return httptest.NewServer(s.Router())
}

func postRun(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshalling body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url+"/run", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}

func TestHealthzOpen(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "secret")
	defer srv.Close()

	// Health stays reachable without credentials.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRunAnswersInRequestOrder(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "")
	defer srv.Close()

	questions := []string{"q one?", "q two?", "q three?"}
	resp := postRun(t, srv.URL, "", runRequest{Documents: "https://example.com/a.pdf", Questions: questions})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body runResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Answers) != len(questions) {
		t.Fatalf("got %d answers, want %d", len(body.Answers), len(questions))
	}
	for i, q := range questions {
		if want := "answer to " + q; body.Answers[i] != want {
			t.Errorf("answer %d = %q, want %q", i, body.Answers[i], want)
		}
	}
}

func TestRunRequiresAuth(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "secret")
	defer srv.Close()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "nope", http.StatusUnauthorized},
		{"correct token", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postRun(t, srv.URL, tt.token,
				runRequest{Documents: "https://example.com/a.pdf", Questions: []string{"q?"}})
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRunRejectsAuthHeaderWithoutBearerPrefix(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "secret")
	defer srv.Close()

	data, _ := json.Marshal(runRequest{Documents: "https://example.com/a.pdf", Questions: []string{"q?"}})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/run", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "secret") // raw token, no Bearer prefix
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRunValidation(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "")
	defer srv.Close()

	tests := []struct {
		name string
		body any
	}{
		{"missing documents", runRequest{Questions: []string{"q?"}}},
		{"empty questions", runRequest{Documents: "https://example.com/a.pdf"}},
		{"invalid json", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if s, ok := tt.body.(string); ok {
				var err error
				resp, err = http.Post(srv.URL+"/run", "application/json", bytes.NewReader([]byte(s)))
				if err != nil {
					t.Fatalf("sending request: %v", err)
				}
			} else {
				resp = postRun(t, srv.URL, "", tt.body)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	engine := &fakeEngine{
		processErr: fmt.Errorf("ingest: %w", parser.ErrUnsupportedFormat),
	}
	srv := newTestServer(engine, "")
	defer srv.Close()

	resp := postRun(t, srv.URL, "", runRequest{Documents: "https://example.com/scan.jpg", Questions: []string{"q?"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestRunEngineFailure(t *testing.T) {
	engine := &fakeEngine{processErr: errors.New("index unavailable")}
	srv := newTestServer(engine, "")
	defer srv.Close()

	resp := postRun(t, srv.URL, "", runRequest{Documents: "https://example.com/a.pdf", Questions: []string{"q?"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestClearCache(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(engine, "secret")
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !engine.cleared {
		t.Error("engine.ClearAllCaches was not called")
	}
}
