package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Умолчания протокола.
const (
	DefaultBaseURL = "https://api.2captcha.com"

	defaultPollAttempts = 10
	defaultPollDelay    = 3 * time.Second
	defaultHTTPTimeout  = 10 * time.Second

	softID = 4706
)

// TwoCaptcha — клиент 2captcha-совместимого сервиса.
//
// Solve создаёт задачу ImageToTextTask (ровно 6 символов, регистр
// важен) и опрашивает результат с фиксированной задержкой и
// ограниченным числом попыток.
type TwoCaptcha struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	pollAttempts int
	pollDelay    time.Duration
}

// TwoCaptchaConfig — конфигурация клиента.
type TwoCaptchaConfig struct {
	// APIKey — ключ клиента сервиса (обязателен).
	APIKey string

	// BaseURL — корень API (default: DefaultBaseURL).
	BaseURL string

	// PollAttempts — число опросов результата (default: 10).
	PollAttempts int

	// PollDelay — задержка между опросами (default: 3s).
	PollDelay time.Duration
}

// NewTwoCaptcha создаёт клиент сервиса.
func NewTwoCaptcha(cfg TwoCaptchaConfig) (*TwoCaptcha, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("captcha api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}

	pollDelay := cfg.PollDelay
	if pollDelay <= 0 {
		pollDelay = defaultPollDelay
	}

	return &TwoCaptcha{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollAttempts: pollAttempts,
		pollDelay:    pollDelay,
	}, nil
}

// post выполняет JSON POST к сервису и декодирует ответ в out.
func (s *TwoCaptcha) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("POST %s: HTTP %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Solve создаёт задачу распознавания и дожидается результата.
func (s *TwoCaptcha) Solve(ctx context.Context, image []byte) (Solution, error) {
	body := map[string]any{
		"clientKey": s.apiKey,
		"softId":    softID,
		"task": map[string]any{
			"type":      "ImageToTextTask",
			"body":      base64.StdEncoding.EncodeToString(image),
			"phrase":    false,
			"case":      true,
			"numeric":   4,
			"math":      false,
			"minLength": 6,
			"maxLength": 6,
			"comment":   "Pay close attention to the letter case.",
		},
	}

	var created struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           int64  `json:"taskId"`
	}
	if err := s.post(ctx, "/createTask", body, &created); err != nil {
		return Solution{}, err
	}

	if created.ErrorID != 0 {
		return Solution{Answer: created.ErrorDescription, Solved: false}, nil
	}

	return s.waitResult(ctx, created.TaskID)
}

// waitResult опрашивает результат задачи до готовности или исчерпания
// попыток. Протокол требует числовой taskId в теле запроса; строковая
// форма живёт только в Solution.TaskID.
func (s *TwoCaptcha) waitResult(ctx context.Context, id int64) (Solution, error) {
	taskID := strconv.FormatInt(id, 10)
	body := map[string]any{
		"clientKey": s.apiKey,
		"taskId":    id,
	}

	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		var result struct {
			ErrorID          int    `json:"errorId"`
			ErrorDescription string `json:"errorDescription"`
			Status           string `json:"status"`
			Solution         struct {
				Text string `json:"text"`
			} `json:"solution"`
		}
		if err := s.post(ctx, "/getTaskResult", body, &result); err != nil {
			return Solution{}, err
		}

		if result.ErrorID != 0 {
			return Solution{Answer: result.ErrorDescription, Solved: false, TaskID: taskID}, nil
		}

		if result.Status == "ready" {
			return Solution{Answer: result.Solution.Text, Solved: true, TaskID: taskID}, nil
		}

		select {
		case <-ctx.Done():
			return Solution{}, ctx.Err()
		case <-time.After(s.pollDelay):
		}
	}

	return Solution{Answer: "no result before poll budget", Solved: false, TaskID: taskID}, nil
}

// ReportBad сообщает сервису о неверном ответе задачи.
func (s *TwoCaptcha) ReportBad(ctx context.Context, taskID string) error {
	id, err := strconv.ParseInt(taskID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse task id %q: %w", taskID, err)
	}

	body := map[string]any{
		"clientKey": s.apiKey,
		"taskId":    id,
	}

	var out struct {
		ErrorID int `json:"errorId"`
	}
	if err := s.post(ctx, "/reportIncorrect", body, &out); err != nil {
		return err
	}
	if out.ErrorID != 0 {
		return fmt.Errorf("report rejected (errorId=%d)", out.ErrorID)
	}
	return nil
}
