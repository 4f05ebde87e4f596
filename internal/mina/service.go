// Package mina is the client for the Xiaomi Mina speaker cloud: device
// lookup, media player control over ubus, cloud text-to-speech and the
// conversation-log poller.
package mina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
	"github.com/hammamikhairi/minarelay/internal/miauth"
)

// Compile-time interface checks.
var (
	_ domain.QuerySource        = (*Service)(nil)
	_ domain.PlaybackController = (*Service)(nil)
	_ domain.SessionRenewer     = (*Service)(nil)
)

const (
	defaultAPIBase     = "https://api2.mina.mi.com"
	defaultProfileBase = "https://userprofile.mina.mi.com"

	conversationPath = "/device_profile/v2/conversation"

	// The Mina API only answers to the MiHome iOS client.
	userAgent = "MiHome/6.0.103 (com.xiaomi.mihome; build:6.0.103.1; iOS 14.4.0) Alamofire/6.0.103 MICO/iOSApp/appStore/6.0.103"
)

// Option configures the Service.
type Option func(*Service)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(s *Service) { s.http.Timeout = d }
}

// WithAPIBase overrides the device/ubus API base URL (tests).
func WithAPIBase(base string) Option {
	return func(s *Service) { s.apiBase = base }
}

// WithProfileBase overrides the conversation-log base URL (tests).
func WithProfileBase(base string) Option {
	return func(s *Service) { s.profileBase = base }
}

// Service talks to the Mina cloud on behalf of one account and one
// speaker. The session artifacts are swapped whole on renewal; per the
// single-task loop discipline there is never a concurrent reader.
type Service struct {
	hardware    string
	auth        domain.Authenticator
	session     *domain.SessionState
	http        *http.Client
	apiBase     string
	profileBase string
	log         *logger.Logger
}

// NewService creates a Mina client for the given hardware model. The
// session starts empty; call RenewSession (or SetSession) before use.
func NewService(hardware string, auth domain.Authenticator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		hardware:    hardware,
		auth:        auth,
		http:        &http.Client{Timeout: 30 * time.Second},
		apiBase:     defaultAPIBase,
		profileBase: defaultProfileBase,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the current session artifacts (nil before first login).
func (s *Service) Session() *domain.SessionState { return s.session }

// SetSession installs session artifacts wholesale.
func (s *Service) SetSession(state *domain.SessionState) { s.session = state }

// RenewSession discards the current artifacts and rebuilds them through a
// full re-login. The resolved device id survives renewal; the device
// registration itself does not expire.
func (s *Service) RenewSession(ctx context.Context) error {
	state, err := s.auth.Login(ctx)
	if err != nil {
		return err
	}
	if s.session != nil {
		state.DeviceID = s.session.DeviceID
	}
	s.session = state
	return nil
}

// ResolveDevice matches the configured hardware model against the account's
// registered devices and pins the device id into the session. A missing
// match is a configuration error, not retryable.
func (s *Service) ResolveDevice(ctx context.Context) error {
	body, err := s.get(ctx, s.apiBase+"/admin/v2/device_list?master=0")
	if err != nil {
		return fmt.Errorf("mina: device list: %w", err)
	}

	for _, dev := range gjson.Get(body, "data").Array() {
		if dev.Get("hardware").String() == s.hardware {
			s.session.DeviceID = dev.Get("deviceID").String()
			s.log.Info("mina: hardware %s resolved to device %s", s.hardware, s.session.DeviceID)
			return nil
		}
	}
	return fmt.Errorf("mina: no registered device with hardware %q: %w",
		s.hardware, domain.ErrDeviceNotFound)
}

// ── Playback control ─────────────────────────────────────────────

// TextToSpeech speaks text on the resolved device via the cloud.
func (s *Service) TextToSpeech(ctx context.Context, text string) error {
	_, err := s.ubus(ctx, "text_to_speech", "mibrain", map[string]any{"text": text})
	return err
}

// Pause pauses whatever the device is playing.
func (s *Service) Pause(ctx context.Context) error {
	_, err := s.ubus(ctx, "player_play_operation", "mediaplayer",
		map[string]any{"action": "pause", "media": "app_ios"})
	return err
}

// Play resumes playback.
func (s *Service) Play(ctx context.Context) error {
	_, err := s.ubus(ctx, "player_play_operation", "mediaplayer",
		map[string]any{"action": "play", "media": "app_ios"})
	return err
}

// SetVolume sets the device volume (0-100).
func (s *Service) SetVolume(ctx context.Context, volume int) error {
	_, err := s.ubus(ctx, "player_set_volume", "mediaplayer",
		map[string]any{"volume": volume, "media": "app_ios"})
	return err
}

// PlayByURL streams an audio URL on the device.
func (s *Service) PlayByURL(ctx context.Context, u string) error {
	_, err := s.ubus(ctx, "player_play_url", "mediaplayer",
		map[string]any{"url": u, "type": 1, "media": "app_ios"})
	return err
}

// IsPlaying reports whether the device is actively playing. The status
// payload nests another JSON document inside the "info" string; status 1
// means playing.
func (s *Service) IsPlaying(ctx context.Context) (bool, error) {
	body, err := s.ubus(ctx, "player_get_play_status", "mediaplayer",
		map[string]any{"media": "app_ios"})
	if err != nil {
		return false, err
	}
	info := gjson.Get(body, "data.info").String()
	return gjson.Get(info, "status").Int() == 1, nil
}

// ubus issues one remote ubus call against the resolved device.
func (s *Service) ubus(ctx context.Context, method, path string, message map[string]any) (string, error) {
	if s.session == nil || s.session.DeviceID == "" {
		return "", fmt.Errorf("mina: no resolved device")
	}

	msg, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("mina: marshal ubus message: %w", err)
	}

	form := url.Values{
		"deviceId":  {s.session.DeviceID},
		"message":   {string(msg)},
		"method":    {method},
		"path":      {path},
		"requestId": {requestID()},
	}

	body, err := s.postForm(ctx, s.apiBase+"/remote/ubus", form)
	if err != nil {
		return "", fmt.Errorf("mina: ubus %s: %w", method, err)
	}
	return body, nil
}

// ── Transport ────────────────────────────────────────────────────

func (s *Service) get(ctx context.Context, u string) (string, error) {
	if strings.Contains(u, "?") {
		u += "&requestId=" + requestID()
	} else {
		u += "?requestId=" + requestID()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	return s.do(req)
}

func (s *Service) postForm(ctx context.Context, u string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// do executes a request with the session cookie attached and maps
// authentication rejections to ErrAuthExpired.
func (s *Service) do(req *http.Request) (string, error) {
	if s.session == nil {
		return "", fmt.Errorf("mina: no session")
	}
	req.Header.Set("User-Agent", userAgent)
	for _, c := range miauth.Cookies(s.session.DeviceID, s.session.ServiceToken, s.session.UserID) {
		req.AddCookie(c)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := string(raw)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.ErrAuthExpired
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 120))
	}
	if code := gjson.Get(body, "code").Int(); code == 401 {
		return "", domain.ErrAuthExpired
	}
	return body, nil
}

const requestIDChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// requestID mimics the MiHome client's app_ios_<random> request ids.
func requestID() string {
	b := make([]byte, 30)
	for i := range b {
		b[i] = requestIDChars[rand.Intn(len(requestIDChars))]
	}
	return "app_ios_" + string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
