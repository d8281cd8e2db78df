package dawn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"harvester/internal/domain"
)

// Умолчания клиента.
const (
	DefaultBaseURL = "https://www.aeropres.in/chromeapi/dawn/v1"

	defaultTimeout   = 30 * time.Second
	defaultRateEvery = time.Second
	defaultRateBurst = 3
)

// Client — HTTP-клиент платформы для одного аккаунта.
//
// Держит непрозрачные заголовки сессии и прикладывает их к каждому
// запросу. Исходящие запросы пейсятся клиентским rate limiter'ом,
// чтобы не провоцировать серверный.
type Client struct {
	account domain.Account
	baseURL string

	httpClient *http.Client
	limiter    *rate.Limiter

	mu      sync.RWMutex
	session http.Header
}

// Config — конфигурация Client.
type Config struct {
	// BaseURL — корень API платформы (default: DefaultBaseURL).
	BaseURL string

	// Timeout — таймаут одного запроса (default: 30s).
	Timeout time.Duration
}

// NewClient создаёт клиент для аккаунта. Прокси аккаунта (если задан)
// применяется ко всем запросам, включая подтверждение ссылок.
func NewClient(account domain.Account, cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if account.Proxy != "" {
		proxyURL, err := url.Parse(account.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", account.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		account: account,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(defaultRateEvery), defaultRateBurst),
	}, nil
}

// SetSession устанавливает заголовки сессии (из БД или после логина).
func (c *Client) SetSession(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = headers.Clone()
}

// ClearSession сбрасывает заголовки сессии.
func (c *Client) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

// Session возвращает копию текущих заголовков сессии.
func (c *Client) Session() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	return c.session.Clone()
}

// envelope — общий конверт ответов платформы.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do выполняет запрос с пейсингом, сессионными заголовками и разбором
// конверта. Возвращает поле data успешного ответа.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	for key, values := range c.session {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, env.Message)
	}

	return env.Data, nil
}

// GetPuzzleID запрашивает идентификатор новой капчи.
func (c *Client) GetPuzzleID(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/puzzle/get-puzzle?appid="+url.QueryEscape(c.account.AppID), nil)
	if err != nil {
		return "", err
	}

	var out struct {
		PuzzleID string `json:"puzzle_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode puzzle id: %w", err)
	}
	if out.PuzzleID == "" {
		return "", fmt.Errorf("empty puzzle id in response")
	}
	return out.PuzzleID, nil
}

// GetPuzzleImage запрашивает изображение капчи по идентификатору.
func (c *Client) GetPuzzleImage(ctx context.Context, puzzleID string) ([]byte, error) {
	path := "/puzzle/get-puzzle-image?puzzle_id=" + url.QueryEscape(puzzleID) +
		"&appid=" + url.QueryEscape(c.account.AppID)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ImgBase64 string `json:"imgBase64"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode puzzle image: %w", err)
	}

	img, err := base64.StdEncoding.DecodeString(out.ImgBase64)
	if err != nil {
		return nil, fmt.Errorf("decode puzzle image base64: %w", err)
	}
	return img, nil
}

// Register регистрирует аккаунт с решённой капчей.
func (c *Client) Register(ctx context.Context, puzzleID, answer string) error {
	body := map[string]any{
		"firstname": c.account.Email,
		"lastname":  c.account.Email,
		"email":     c.account.Email,
		"password":  c.account.Password,
		"country":   "+91",
		"mobile":    "",
		"puzzle_id": puzzleID,
		"ans":       answer,
	}
	_, err := c.do(ctx, http.MethodPost, "/puzzle/validate-register", body)
	return err
}

// ResendVerifyLink повторно отправляет письмо подтверждения.
func (c *Client) ResendVerifyLink(ctx context.Context, puzzleID, answer string) error {
	body := map[string]any{
		"email":     c.account.Email,
		"puzzle_id": puzzleID,
		"ans":       answer,
	}
	_, err := c.do(ctx, http.MethodPost, "/user/resendverifylink/v2", body)
	return err
}

// Login аутентифицирует аккаунт и возвращает заголовки сессии.
// Заголовки также устанавливаются на клиенте.
func (c *Client) Login(ctx context.Context, puzzleID, answer string) (http.Header, error) {
	body := map[string]any{
		"username":  c.account.Email,
		"password":  c.account.Password,
		"logindata": map[string]string{"_v": "1.1.2", "datetime": time.Now().UTC().Format(time.RFC3339)},
		"puzzle_id": puzzleID,
		"ans":       answer,
	}

	data, err := c.do(ctx, http.MethodPost, "/user/login/v2", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("empty token in login response")
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+out.Token)
	c.SetSession(headers)

	return headers, nil
}

// VerifySession выполняет лёгкую проверку текущей сессии.
// Возвращает (false, detail, nil) если сессия отвергнута, ошибку —
// только при проблемах транспорта или rate limit.
func (c *Client) VerifySession(ctx context.Context) (bool, string, error) {
	_, err := c.do(ctx, http.MethodGet, "/user/session?appid="+url.QueryEscape(c.account.AppID), nil)
	if err == nil {
		return true, "", nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindSessionExpired {
		return false, apiErr.Message, nil
	}
	return false, "", err
}

// UserInfo запрашивает баллы аккаунта.
func (c *Client) UserInfo(ctx context.Context) (*domain.UserInfo, error) {
	data, err := c.do(ctx, http.MethodGet, "/userreward/getpoint?appid="+url.QueryEscape(c.account.AppID), nil)
	if err != nil {
		return nil, err
	}

	var info domain.UserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// Keepalive отправляет сигнал активности сессии.
func (c *Client) Keepalive(ctx context.Context) error {
	body := map[string]any{
		"username":     c.account.Email,
		"extensionid":  c.account.AppID,
		"numberoftabs": 0,
		"_v":           "1.1.2",
	}
	_, err := c.do(ctx, http.MethodPost, "/userreward/keepalive", body)
	return err
}

// CompleteTasks выполняет разовые задания профиля.
func (c *Client) CompleteTasks(ctx context.Context) error {
	for _, task := range []string{"twitter_x_id", "discordid", "telegramid"} {
		body := map[string]any{task: task}
		if _, err := c.do(ctx, http.MethodPost, "/profile/update", body); err != nil {
			return err
		}
	}
	return nil
}

// FetchURL выполняет GET произвольного URL через прокси аккаунта
// (подтверждение ссылки из письма). Возвращает HTTP-статус.
func (c *Client) FetchURL(ctx context.Context, rawURL string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
