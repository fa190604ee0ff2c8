package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sugawarayuuta/sonnet"
)

func TestShockSchema(t *testing.T) {
	valid := []string{
		`{"fraction": 0.5, "region": "random"}`,
		`{"fraction": 0, "region": "top_left"}`,
		`{"fraction": 1, "region": "bottom_right"}`,
	}
	invalid := []string{
		`{"fraction": 1.5, "region": "random"}`,
		`{"fraction": -0.1, "region": "random"}`,
		`{"fraction": 0.5, "region": "middle"}`,
		`{"fraction": 0.5}`,
		`{"region": "random"}`,
		`{"fraction": 0.5, "region": "random", "extra": true}`,
		`{"fraction": "0.5", "region": "random"}`,
	}

	for _, body := range valid {
		var v any
		if err := sonnet.Unmarshal([]byte(body), &v); err != nil {
			t.Fatal(err)
		}
		if err := shockSchema.Validate(v); err != nil {
			t.Fatalf("schema rejected %s: %v", body, err)
		}
	}
	for _, body := range invalid {
		var v any
		if err := sonnet.Unmarshal([]byte(body), &v); err != nil {
			t.Fatal(err)
		}
		if err := shockSchema.Validate(v); err == nil {
			t.Fatalf("schema accepted %s", body)
		}
	}
}

func postShock(s *Server, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shock", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handleShock(rr, req)
	return rr
}

func TestHandleShock(t *testing.T) {
	s := NewServer(0, "secret")

	if rr := postShock(s, `{"fraction":0.2,"region":"random"}`, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", rr.Code)
	}
	if rr := postShock(s, `{"fraction":0.2,"region":"random"}`, "wrong"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", rr.Code)
	}
	if rr := postShock(s, `{"fraction":0.2,"region":"middle"}`, "secret"); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad region: status %d, want 422", rr.Code)
	}
	if rr := postShock(s, `not json`, "secret"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status %d, want 400", rr.Code)
	}

	rr := postShock(s, `{"fraction":0.2,"region":"top_left"}`, "secret")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("valid shock: status %d, want 202", rr.Code)
	}
	select {
	case req := <-s.ShockRequests():
		if req.Fraction != 0.2 || req.Region != "top_left" {
			t.Fatalf("queued request %+v", req)
		}
	default:
		t.Fatal("no shock queued")
	}
}

func TestHandleShockDisabledWithoutKey(t *testing.T) {
	s := NewServer(0, "")
	if rr := postShock(s, `{"fraction":0.2,"region":"random"}`, ""); rr.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rr.Code)
	}
}

func TestStatusLifecycle(t *testing.T) {
	s := NewServer(0, "")

	rr := httptest.NewRecorder()
	s.handleStatus(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("before publish: status %d, want 503", rr.Code)
	}

	s.Publish(Snapshot{Sweep: 3, Magnetization: 0.5, Grid: [][]int8{{1, -1}}})

	rr = httptest.NewRecorder()
	s.handleStatus(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("after publish: status %d, want 200", rr.Code)
	}
	var got map[string]any
	if err := sonnet.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["sweep"] != float64(3) || got["magnetization"] != 0.5 {
		t.Fatalf("status body %v", got)
	}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	s := NewServer(0, "")
	s.Publish(Snapshot{Sweep: 1, Magnetization: 0.25, Grid: [][]int8{{1, 1}, {-1, 1}}})

	ts := httptest.NewServer(http.HandlerFunc(s.handleStream))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := sonnet.Unmarshal(msg, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Sweep != 1 || snap.Magnetization != 0.25 {
		t.Fatalf("streamed snapshot %+v", snap)
	}
}
