// Package miauth owns the Xiaomi account session: the login handshake,
// durable token storage keyed by account, and the request cookie derived
// from the session artifacts.
package miauth

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Compile-time interface check.
var _ domain.Authenticator = (*Account)(nil)

const (
	serviceLoginURL = "https://account.xiaomi.com/pass/serviceLogin?sid=%s&_json=true"
	loginAuthURL    = "https://account.xiaomi.com/pass/serviceLoginAuth2"

	// sid of the Mina speaker service.
	serviceID = "micoapi"

	// Xiaomi's JSON endpoints prefix every body with this guard string.
	jsonPrefix = "&&&START&&&"
)

// Option configures the Account.
type Option func(*Account)

// WithHTTPTimeout sets the HTTP client timeout for handshake requests.
func WithHTTPTimeout(d time.Duration) Option {
	return func(a *Account) { a.http.Timeout = d }
}

// WithTokenStore overrides the default token store.
func WithTokenStore(store *TokenStore) Option {
	return func(a *Account) { a.tokens = store }
}

// Account performs the vendor login handshake for one Xiaomi account and
// persists the resulting artifacts. It carries no retry logic; the
// orchestrator decides when to log in again.
type Account struct {
	username string
	password string
	tokens   *TokenStore
	http     *http.Client
	log      *logger.Logger
}

// NewAccount creates an account client for the given credentials.
func NewAccount(username, password string, log *logger.Logger, opts ...Option) *Account {
	jar, _ := cookiejar.New(nil)
	a := &Account{
		username: username,
		password: password,
		tokens:   NewTokenStore(username),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login runs the full handshake: fetch the login sign, authenticate with
// the hashed password, then exchange the grant for a serviceToken. The
// resulting artifacts are persisted and returned as a fresh SessionState.
// Re-invocable at any time to refresh an expired token.
func (a *Account) Login(ctx context.Context) (*domain.SessionState, error) {
	sign, err := a.fetchSign(ctx)
	if err != nil {
		return nil, fmt.Errorf("miauth: fetch sign: %w", err)
	}

	auth, err := a.authenticate(ctx, sign)
	if err != nil {
		return nil, fmt.Errorf("miauth: authenticate: %w", err)
	}

	serviceToken, err := a.fetchServiceToken(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("miauth: service token: %w", err)
	}

	state := &domain.SessionState{
		UserID:       auth.userID,
		ServiceToken: serviceToken,
		Security:     auth.ssecurity,
	}

	if err := a.tokens.Save(state); err != nil {
		// Token persistence failing doesn't invalidate the session; the
		// next process start just logs in again.
		a.log.Warn("miauth: persisting token: %v", err)
	}

	a.log.Info("miauth: logged in as user %s", state.UserID)
	return state, nil
}

// fetchSign retrieves the _sign challenge that must accompany the
// password authentication step.
func (a *Account) fetchSign(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(serviceLoginURL, serviceID), nil)
	if err != nil {
		return "", err
	}

	body, err := a.doJSON(req)
	if err != nil {
		return "", err
	}

	sign := gjson.Get(body, "_sign").String()
	if sign == "" {
		return "", fmt.Errorf("no _sign in login response")
	}
	return sign, nil
}

// authResult carries the intermediate artifacts of the auth2 step.
type authResult struct {
	userID    string
	ssecurity string
	nonce     string
	location  string
}

// authenticate posts the MD5-hashed password and collects the grant
// {userId, ssecurity, nonce, location}.
func (a *Account) authenticate(ctx context.Context, sign string) (*authResult, error) {
	form := url.Values{
		"sid":      {serviceID},
		"hash":     {hashPassword(a.password)},
		"callback": {"https://api2.mina.mi.com/sts"},
		"qs":       {"%3Fsid%3D" + serviceID + "%26_json%3Dtrue"},
		"user":     {a.username},
		"_sign":    {sign},
		"_json":    {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginAuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := a.doJSON(req)
	if err != nil {
		return nil, err
	}

	if code := gjson.Get(body, "code").Int(); code != 0 {
		return nil, fmt.Errorf("login rejected (code=%d): %s",
			code, gjson.Get(body, "desc").String())
	}

	res := &authResult{
		userID:    gjson.Get(body, "userId").String(),
		ssecurity: gjson.Get(body, "ssecurity").String(),
		nonce:     gjson.Get(body, "nonce").String(),
		location:  gjson.Get(body, "location").String(),
	}
	if res.ssecurity == "" || res.location == "" {
		return nil, fmt.Errorf("incomplete auth response")
	}
	return res, nil
}

// fetchServiceToken follows the grant location with the client signature
// and reads the serviceToken cookie the service sets.
func (a *Account) fetchServiceToken(ctx context.Context, auth *authResult) (string, error) {
	loc := auth.location + "&clientSign=" + url.QueryEscape(clientSign(auth.nonce, auth.ssecurity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange status %d", resp.StatusCode)
	}

	for _, c := range resp.Cookies() {
		if c.Name == "serviceToken" {
			return c.Value, nil
		}
	}
	// Some deployments set the cookie on the redirect hop; the jar keeps it.
	if u, err := url.Parse(loc); err == nil {
		for _, c := range a.http.Jar.Cookies(u) {
			if c.Name == "serviceToken" {
				return c.Value, nil
			}
		}
	}
	return "", fmt.Errorf("no serviceToken cookie in exchange response")
}

// doJSON executes the request and returns the body with Xiaomi's
// &&&START&&& guard prefix stripped.
func (a *Account) doJSON(req *http.Request) (string, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 120))
	}
	return strings.TrimPrefix(string(raw), jsonPrefix), nil
}

// hashPassword returns the uppercase hex MD5 the auth2 endpoint expects.
func hashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// clientSign computes the nonce signature required by the token exchange.
func clientSign(nonce, ssecurity string) string {
	sum := sha1.Sum([]byte("nonce=" + nonce + "&" + ssecurity))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
