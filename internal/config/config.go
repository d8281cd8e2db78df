// Package config загружает настройки фермы из TOML-файла и файла
// аккаунтов. Инфраструктурные DSN (DB_URL, RABBITMQ_URL) и настройки
// логов остаются переменными окружения.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"harvester/internal/domain"
)

// FarmConfig — настройки самой фермы.
type FarmConfig struct {
	// KeepaliveIntervalSec — плановая пауза между циклами аккаунта, сек.
	KeepaliveIntervalSec int `toml:"keepalive_interval_sec"`

	// MaxWorkflowAttempts — потолок повторов workflow по
	// классифицированным retryable-ошибкам.
	MaxWorkflowAttempts int `toml:"max_workflow_attempts"`

	// Workers — размер пула воркеров фермы.
	Workers int `toml:"workers"`

	// AccountsFile — файл аккаунтов (email:password[:proxy[:imap]]).
	AccountsFile string `toml:"accounts_file"`

	// ResultsDir — каталог файлов выгрузки.
	ResultsDir string `toml:"results_dir"`

	// AppID — идентификатор установки расширения.
	AppID string `toml:"app_id"`

	// BaseURL — корень API платформы (пусто — умолчание клиента).
	BaseURL string `toml:"base_url"`

	// StatsCron — cron-выражение периодического отчёта статистики
	// (пусто — отчёт выключен).
	StatsCron string `toml:"stats_cron"`
}

// CaptchaConfig — настройки сервиса распознавания.
type CaptchaConfig struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	PollAttempts int    `toml:"poll_attempts"`
	PollDelaySec int    `toml:"poll_delay_sec"`
}

// RedirectConfig — перенаправление писем платформы в общий ящик.
//
// Когда включено, валидация ящика и поиск ссылок идут в этот ящик,
// а не в ящики самих аккаунтов.
type RedirectConfig struct {
	Enabled    bool   `toml:"enabled"`
	IMAPServer string `toml:"imap_server"`
	Email      string `toml:"email"`
	Password   string `toml:"password"`

	// UseProxy — ходить ли в общий ящик через прокси аккаунта.
	UseProxy bool `toml:"use_proxy"`
}

// APIConfig — статусный HTTP API демона фермы.
type APIConfig struct {
	Port int `toml:"port"`
}

// Config — корневая конфигурация.
type Config struct {
	Farm     FarmConfig     `toml:"farm"`
	Captcha  CaptchaConfig  `toml:"captcha"`
	Redirect RedirectConfig `toml:"redirect"`
	API      APIConfig      `toml:"api"`
}

// Умолчания.
const (
	defaultKeepaliveIntervalSec = 300
	defaultMaxWorkflowAttempts  = 3
	defaultWorkers              = 10
	defaultResultsDir           = "results"
	defaultAPIPort              = 8080
)

// Load читает и валидирует конфигурацию.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if cfg.Farm.KeepaliveIntervalSec <= 0 {
		cfg.Farm.KeepaliveIntervalSec = defaultKeepaliveIntervalSec
	}
	if cfg.Farm.MaxWorkflowAttempts <= 0 {
		cfg.Farm.MaxWorkflowAttempts = defaultMaxWorkflowAttempts
	}
	if cfg.Farm.Workers <= 0 {
		cfg.Farm.Workers = defaultWorkers
	}
	if cfg.Farm.ResultsDir == "" {
		cfg.Farm.ResultsDir = defaultResultsDir
	}
	if cfg.API.Port <= 0 {
		cfg.API.Port = defaultAPIPort
	}

	if cfg.Farm.AccountsFile == "" {
		return nil, fmt.Errorf("farm.accounts_file is required")
	}
	if cfg.Captcha.APIKey == "" {
		return nil, fmt.Errorf("captcha.api_key is required")
	}
	if cfg.Redirect.Enabled {
		if cfg.Redirect.IMAPServer == "" || cfg.Redirect.Email == "" || cfg.Redirect.Password == "" {
			return nil, fmt.Errorf("redirect requires imap_server, email and password")
		}
	}

	return &cfg, nil
}

// KeepaliveInterval возвращает плановую паузу как Duration.
func (c *Config) KeepaliveInterval() time.Duration {
	return time.Duration(c.Farm.KeepaliveIntervalSec) * time.Second
}

// LoadAccounts читает файл аккаунтов.
//
// Формат строки: email:password[:proxy[:imap_server]].
// Пустые строки и строки с # пропускаются. IMAP-сервер по умолчанию
// выводится из домена email (imap.<домен>).
func LoadAccounts(path, appID string) ([]domain.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer f.Close()

	var accounts []domain.Account
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		account, err := ParseAccountLine(text, appID)
		if err != nil {
			return nil, fmt.Errorf("accounts file line %d: %w", line, err)
		}
		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("accounts file %s is empty", path)
	}
	return accounts, nil
}

// ParseAccountLine разбирает одну строку файла аккаунтов.
func ParseAccountLine(line, appID string) (domain.Account, error) {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return domain.Account{}, fmt.Errorf("expected email:password, got %q", line)
	}

	email := strings.TrimSpace(parts[0])
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return domain.Account{}, fmt.Errorf("invalid email %q", email)
	}

	account := domain.Account{
		Email:    email,
		Password: strings.TrimSpace(parts[1]),
		AppID:    appID,
	}

	// Прокси может содержать ':' (scheme://host:port), поэтому
	// склеиваем все поля между паролем и последним (imap).
	switch {
	case len(parts) == 3:
		account.Proxy = strings.TrimSpace(parts[2])
	case len(parts) > 3:
		last := strings.TrimSpace(parts[len(parts)-1])
		if strings.Contains(last, ".") && !strings.Contains(last, "/") {
			account.IMAPServer = last
			account.Proxy = strings.TrimSpace(strings.Join(parts[2:len(parts)-1], ":"))
		} else {
			account.Proxy = strings.TrimSpace(strings.Join(parts[2:], ":"))
		}
	}

	if account.IMAPServer == "" {
		account.IMAPServer = "imap." + email[at+1:]
	}

	return account, nil
}
