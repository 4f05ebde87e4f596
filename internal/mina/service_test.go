package mina

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.New(logger.LevelOff, nil)
	s := NewService("L05B", nil, log, WithAPIBase(srv.URL), WithProfileBase(srv.URL))
	s.SetSession(&domain.SessionState{
		UserID:       "12345",
		DeviceID:     "dev-1",
		ServiceToken: "tok",
		Security:     "sec",
	})
	return s
}

// conversationBody builds the conversation envelope: the "data" field is a
// JSON document serialized into a string.
func conversationBody(t *testing.T, records string) string {
	t.Helper()
	data, err := json.Marshal(`{"records":` + records + `}`)
	if err != nil {
		t.Fatal(err)
	}
	return `{"code":0,"data":` + string(data) + `}`
}

func TestLatestQueryParsesNewestRecord(t *testing.T) {
	records := `[
		{"time":1700000000123,"query":"今天天气怎么样","answers":[{"tts":{"text":"今天晴转多云"}}]},
		{"time":1699999990000,"query":"older","answers":[]}
	]`
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "source=dialogu") {
			t.Errorf("missing source param in %s", r.URL.RawQuery)
		}
		if !strings.Contains(r.URL.RawQuery, "hardware=L05B") {
			t.Errorf("missing hardware param in %s", r.URL.RawQuery)
		}
		w.Write([]byte(conversationBody(t, records)))
	}))

	snap, err := s.LatestQuery(context.Background())
	if err != nil {
		t.Fatalf("LatestQuery: %v", err)
	}
	if snap.Timestamp != 1700000000123 {
		t.Errorf("timestamp = %d", snap.Timestamp)
	}
	if snap.Query != "今天天气怎么样" {
		t.Errorf("query = %q", snap.Query)
	}
	if snap.AnswerPreview != "今天晴转多云" {
		t.Errorf("preview = %q", snap.AnswerPreview)
	}
}

func TestLatestQueryEmptyLog(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(conversationBody(t, `[]`)))
	}))

	snap, err := s.LatestQuery(context.Background())
	if err != nil {
		t.Fatalf("LatestQuery: %v", err)
	}
	if snap != (domain.QuerySnapshot{}) {
		t.Errorf("got %+v, want zero snapshot", snap)
	}
}

func TestAuthExpiredMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"http 401", http.StatusUnauthorized, "", true},
		{"http 403", http.StatusForbidden, "", true},
		{"envelope code 401", http.StatusOK, `{"code":401,"message":"auth err"}`, true},
		{"ok", http.StatusOK, `{"code":0,"data":"{}"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := s.LatestQuery(context.Background())
			if got := errors.Is(err, domain.ErrAuthExpired); got != tt.wantErr {
				t.Errorf("ErrAuthExpired = %t (err %v), want %t", got, err, tt.wantErr)
			}
		})
	}
}

func TestIsPlayingParsesNestedStatus(t *testing.T) {
	tests := []struct {
		name string
		info string
		want bool
	}{
		{"playing", `{"status":1,"volume":40}`, true},
		{"paused", `{"status":2,"volume":40}`, false},
		{"idle", `{"status":0}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/remote/ubus" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.FormValue("method"); got != "player_get_play_status" {
					t.Errorf("method = %q", got)
				}
				if got := r.FormValue("deviceId"); got != "dev-1" {
					t.Errorf("deviceId = %q", got)
				}
				if got := r.FormValue("requestId"); !strings.HasPrefix(got, "app_ios_") {
					t.Errorf("requestId = %q", got)
				}
				info, _ := json.Marshal(tt.info)
				w.Write([]byte(`{"code":0,"data":{"info":` + string(info) + `}}`))
			}))

			playing, err := s.IsPlaying(context.Background())
			if err != nil {
				t.Fatalf("IsPlaying: %v", err)
			}
			if playing != tt.want {
				t.Errorf("playing = %t, want %t", playing, tt.want)
			}
		})
	}
}

func TestTextToSpeechSendsUbusMessage(t *testing.T) {
	var gotPath, gotMessage string
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.FormValue("path")
		gotMessage = r.FormValue("message")
		w.Write([]byte(`{"code":0}`))
	}))

	if err := s.TextToSpeech(context.Background(), "你好"); err != nil {
		t.Fatalf("TextToSpeech: %v", err)
	}
	if gotPath != "mibrain" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMessage != `{"text":"你好"}` {
		t.Errorf("message = %q", gotMessage)
	}
}

func TestResolveDevice(t *testing.T) {
	body := `{"code":0,"data":[
		{"hardware":"LX06","deviceID":"other"},
		{"hardware":"L05B","deviceID":"dev-9"}
	]}`
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))

	if err := s.ResolveDevice(context.Background()); err != nil {
		t.Fatalf("ResolveDevice: %v", err)
	}
	if got := s.Session().DeviceID; got != "dev-9" {
		t.Errorf("device = %q, want dev-9", got)
	}
}

func TestResolveDeviceNotRegistered(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":[{"hardware":"LX06","deviceID":"other"}]}`))
	}))

	err := s.ResolveDevice(context.Background())
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("got %v, want ErrDeviceNotFound", err)
	}
}

func TestRequestsCarrySessionCookies(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, want := range map[string]string{
			"deviceId":     "dev-1",
			"serviceToken": "tok",
			"userId":       "12345",
		} {
			c, err := r.Cookie(name)
			if err != nil || c.Value != want {
				t.Errorf("cookie %s = %v, want %q", name, c, want)
			}
		}
		w.Write([]byte(conversationBody(t, `[]`)))
	}))

	if _, err := s.LatestQuery(context.Background()); err != nil {
		t.Fatalf("LatestQuery: %v", err)
	}
}
