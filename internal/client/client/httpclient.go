package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/logging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000/api"
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-request uuid for correlating logs.
	RequestIDHeader = "X-Request-ID"

	// ProfilePictureField is the multipart field name of the upload endpoint.
	ProfilePictureField = "profile_picture"

	maxResponseBytes = 8 << 20

	// expirySkew refreshes an access token slightly before its exp claim.
	expirySkew = 30 * time.Second
)

// HTTPClient implements Client over net/http.
//
// Authenticated calls read the access token from the TokenStore. An access
// token whose exp claim has passed is refreshed before the call; otherwise a
// 401 makes the client exchange the stored refresh token, persist the new
// pair and repeat the call. Either way a call refreshes at most once.
// Concurrent refreshes are serialized.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	tokens  TokenStore
	log     logging.Logger

	refreshMu sync.Mutex
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.log = l
		}
	}
}

// NewHTTPClient validates baseURL and builds a client. tokens may be nil, in
// which case every call is anonymous.
func NewHTTPClient(baseURL string, tokens TokenStore, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string

	// auth attaches the stored access token and enables refresh-and-retry.
	auth bool
	// token, when set, is sent as is and never refreshed.
	token string
}

func jsonRequest(method, path string, payload any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a successful response body into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	access := r.token
	if r.auth && access == "" && c.tokens != nil {
		a, _, err := c.tokens.Tokens(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}
		access = a
	}

	refreshable := r.auth && r.token == ""
	if refreshable && expired(access, time.Now()) {
		refreshable = false
		if fresh, ok := c.refresh(ctx, access); ok {
			access = fresh
		}
	}

	status, body, err := c.send(ctx, r, access)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && refreshable {
		if fresh, ok := c.refresh(ctx, access); ok {
			status, body, err = c.send(ctx, r, fresh)
			if err != nil {
				return err
			}
		}
	}

	if err := statusError(r.method, r.path, status, body); err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(r, err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, r request, access string) (int, []byte, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request %s %s: %w", r.method, r.path, err)
	}

	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	started := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return 0, nil, ctxErr
		}
		c.log.Debug(ctx, "request failed", "method", r.method, "path", r.path, "request_id", reqID, "error", err)
		return 0, nil, oops.Code(CodeUnavailable).
			With("method", r.method, "path", r.path, "request_id", reqID).
			Wrap(errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, oops.Code(CodeUnavailable).
			With("method", r.method, "path", r.path, "request_id", reqID).
			Wrap(errors.Join(ErrUnavailable, err))
	}

	c.log.Debug(ctx, "request done",
		"method", r.method, "path", r.path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(started))
	return resp.StatusCode, data, nil
}

// refresh obtains a new access token. stale is the token that was rejected;
// if another caller already replaced it, the stored token is reused.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh, err := c.tokens.Tokens(ctx)
	if err != nil {
		c.log.Warn(ctx, "cannot read tokens for refresh", "error", err)
		return "", false
	}
	if access != "" && access != stale {
		return access, true
	}
	if refresh == "" {
		return "", false
	}

	pair, err := c.RefreshToken(ctx, refresh)
	if err != nil {
		c.log.Debug(ctx, "token refresh failed", "error", err)
		return "", false
	}
	swapped, err := c.tokens.UpdateTokens(ctx, refresh, pair.Access, pair.Refresh)
	if err != nil {
		c.log.Warn(ctx, "cannot persist refreshed tokens", "error", err)
		return "", false
	}
	if !swapped {
		c.log.Info(ctx, "session changed during token refresh, dropping refreshed tokens")
		return "", false
	}
	return pair.Access, true
}

// expired reports whether token carries an exp claim at or before now plus
// expirySkew. Tokens without a readable exp never count as expired.
func expired(token string, now time.Time) bool {
	exp, ok := models.TokenExpiresAt(token)
	return ok && !now.Add(expirySkew).Before(exp)
}

// statusError maps a non-2xx status to an error; nil for 2xx.
func statusError(method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	b := oops.With("method", method, "path", path, "status", status)
	if msg := detailMessage(body); msg != "" {
		b = b.With("detail", msg)
	}

	switch {
	case status == http.StatusBadRequest:
		return b.Code(CodeValidation).Wrap(&FieldValidationError{Fields: parseFieldErrors(body)})
	case status == http.StatusUnauthorized:
		return b.Code(CodeUnauthorized).Wrap(ErrUnauthorized)
	case status == http.StatusForbidden:
		return b.Code(CodeForbidden).Wrap(ErrForbidden)
	case status == http.StatusNotFound:
		return b.Code(CodeNotFound).Wrap(ErrNotFound)
	default:
		return b.Code(CodeServer).Wrap(fmt.Errorf("%w: unexpected status %d", ErrServer, status))
	}
}

type loginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user"`
}

type registerResponse struct {
	Tokens models.TokenPair `json:"tokens"`
	User   *models.User     `json:"user"`
}

func (c *HTTPClient) Login(ctx context.Context, cred models.Credential) (*models.AuthResult, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/login/", cred, false)
	if err != nil {
		return nil, err
	}
	var resp loginResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" || resp.User == nil {
		return nil, incomplete(r, "login")
	}
	return &models.AuthResult{
		Tokens: models.TokenPair{Access: resp.Access, Refresh: resp.Refresh},
		User:   resp.User,
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, profile models.RegisterProfile) (*models.AuthResult, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/register/", profile, false)
	if err != nil {
		return nil, err
	}
	var resp registerResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	if resp.Tokens.Access == "" || resp.User == nil {
		return nil, incomplete(r, "register")
	}
	return &models.AuthResult{Tokens: resp.Tokens, User: resp.User}, nil
}

func (c *HTTPClient) Logout(ctx context.Context, tokens models.TokenPair) error {
	if tokens.Refresh == "" {
		return nil
	}
	r, err := jsonRequest(http.MethodPost, "/auth/logout/", map[string]string{"refresh": tokens.Refresh}, false)
	if err != nil {
		return err
	}
	r.token = tokens.Access
	return c.do(ctx, r, nil)
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/token/refresh/", map[string]string{"refresh": refresh}, false)
	if err != nil {
		return models.TokenPair{}, err
	}
	var pair models.TokenPair
	if err := c.do(ctx, r, &pair); err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, incomplete(r, "token refresh")
	}
	return pair, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	return c.userCall(ctx, request{method: http.MethodGet, path: "/users/me/", auth: true})
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, fullName, email string) (*models.User, error) {
	r, err := jsonRequest(http.MethodPut, "/users/update_profile/",
		map[string]string{"full_name": fullName, "email": email}, true)
	if err != nil {
		return nil, err
	}
	return c.userCall(ctx, r)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	r, err := jsonRequest(http.MethodPost, "/users/change_password/",
		map[string]string{"old_password": oldPassword, "new_password": newPassword}, true)
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

// UploadProfilePicture sends content as a multipart form. The part's
// Content-Type is sniffed from the bytes.
func (c *HTTPClient) UploadProfilePicture(ctx context.Context, filename string, content []byte) (*models.User, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ProfilePictureField, filename))
	h.Set("Content-Type", mimetype.Detect(content).String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	return c.userCall(ctx, request{
		method:      http.MethodPost,
		path:        "/users/upload_profile_picture/",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		auth:        true,
	})
}

func (c *HTTPClient) DeleteProfilePicture(ctx context.Context) (*models.User, error) {
	return c.userCall(ctx, request{method: http.MethodDelete, path: "/users/delete_profile_picture/", auth: true})
}

// ListUsers fetches one page (1-based). A backend with pagination disabled
// answers with a bare array, which is reported as a single page.
func (c *HTTPClient) ListUsers(ctx context.Context, page int) (*models.UserPage, error) {
	if page < 1 {
		page = 1
	}
	r := request{
		method: http.MethodGet,
		path:   "/users/",
		query:  url.Values{"page": []string{strconv.Itoa(page)}},
		auth:   true,
	}

	var raw json.RawMessage
	if err := c.do(ctx, r, &raw); err != nil {
		return nil, err
	}

	out := &models.UserPage{Page: page}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out.Results); err != nil {
			return nil, decodeError(r, err)
		}
		out.Count = len(out.Results)
		return out, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return nil, decodeError(r, err)
	}
	out.Page = page
	return out, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return c.userCall(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/users/%d/", id), auth: true})
}

func (c *HTTPClient) ActivateUser(ctx context.Context, id int64) (*models.User, error) {
	return c.userCall(ctx, request{method: http.MethodPost, path: fmt.Sprintf("/users/%d/activate/", id), auth: true})
}

func (c *HTTPClient) DeactivateUser(ctx context.Context, id int64) (*models.User, error) {
	return c.userCall(ctx, request{method: http.MethodPost, path: fmt.Sprintf("/users/%d/deactivate/", id), auth: true})
}

func (c *HTTPClient) Statistics(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/statistics/", auth: true}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// userCall runs r and decodes either a bare user or a {user, message}
// envelope.
func (c *HTTPClient) userCall(ctx context.Context, r request) (*models.User, error) {
	var env models.UserEnvelope
	if err := c.do(ctx, r, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, incomplete(r, "user record")
	}
	return env.User, nil
}

func incomplete(r request, what string) error {
	return oops.Code(CodeServer).
		With("method", r.method, "path", r.path).
		Wrapf(ErrServer, "incomplete %s response", what)
}

func decodeError(r request, err error) error {
	return oops.Code(CodeServer).
		With("method", r.method, "path", r.path).
		Wrapf(errors.Join(ErrServer, err), "decode response")
}
