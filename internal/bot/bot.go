package bot

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"harvester/internal/captcha"
	"harvester/internal/config"
	"harvester/internal/domain"
	"harvester/internal/mailer"
)

// Умолчания оркестратора.
const defaultMaxAttempts = 3

// PlatformClient — контракт клиента платформы (см. пакет dawn).
type PlatformClient interface {
	GetPuzzleID(ctx context.Context) (string, error)
	GetPuzzleImage(ctx context.Context, puzzleID string) ([]byte, error)
	Register(ctx context.Context, puzzleID, answer string) error
	ResendVerifyLink(ctx context.Context, puzzleID, answer string) error
	Login(ctx context.Context, puzzleID, answer string) (http.Header, error)
	VerifySession(ctx context.Context) (valid bool, detail string, err error)
	UserInfo(ctx context.Context) (*domain.UserInfo, error)
	Keepalive(ctx context.Context) error
	CompleteTasks(ctx context.Context) error
	FetchURL(ctx context.Context, rawURL string) (int, error)
	SetSession(headers http.Header)
	ClearSession()
}

// Store — контракт хранилища состояния аккаунтов (см. repo.AccountRepo).
type Store interface {
	Get(ctx context.Context, email string) (*domain.AccountState, error)
	Create(ctx context.Context, email, appID string, headers http.Header) error
	Delete(ctx context.Context, email string) error
	SetSleepUntil(ctx context.Context, email string, until time.Time) error
	SetSessionBlockedUntil(ctx context.Context, email string, until time.Time, appID string) error
}

// Mailbox — контракт почтового коллаборатора (см. mailer.Checker).
type Mailbox interface {
	Validate(ctx context.Context, creds mailer.Credentials) error
	ExtractLink(ctx context.Context, mode mailer.Mode, creds mailer.Credentials) (string, error)
}

// RosterRemover — карантину от ростера нужно только удаление по ключу.
type RosterRemover interface {
	Remove(email string) bool
}

// Exporter — файловые каналы выгрузки аккаунтов (см. пакет export).
type Exporter interface {
	Unverified(email, password string) error
	Banned(email, password string) error
	Registered(email, password string) error
}

// Events — публикация событий жизненного цикла (см. mq.Publisher).
// nil-значение допустимо: события не публикуются.
type Events interface {
	PublishQuarantined(ctx context.Context, email string, reason domain.QuarantineReason) error
	PublishRegistered(ctx context.Context, email string) error
}

// Bot — оркестратор жизненного цикла одного аккаунта.
//
// Пять workflow (регистрация, переподтверждение, логин, цикл фермы,
// отчёты) — тотальные функции: любой исход превращается в
// типизированный результат, ошибки наружу не выходят. Повторы по
// retryable-ошибкам ограничены maxAttempts (на каждую инвокацию),
// бюджет капчи — отдельные 5 попыток внутри каждого повтора.
type Bot struct {
	account domain.Account

	client   PlatformClient
	solver   captcha.Solver
	store    Store
	mail     Mailbox
	roster   RosterRemover
	exporter Exporter
	events   Events

	redirect    config.RedirectConfig
	sleep       SleepScheduler
	maxAttempts int

	logger *slog.Logger
}

// Config — конфигурация Bot.
type Config struct {
	Account domain.Account

	Client   PlatformClient
	Solver   captcha.Solver
	Store    Store
	Mail     Mailbox
	Roster   RosterRemover
	Exporter Exporter

	// Events — опционально (nil — события не публикуются).
	Events Events

	Redirect config.RedirectConfig

	// KeepaliveInterval — плановая пауза между циклами.
	KeepaliveInterval time.Duration

	// MaxAttempts — потолок повторов workflow (default: 3).
	MaxAttempts int

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт оркестратор аккаунта.
func New(cfg Config) *Bot {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		account:     cfg.Account,
		client:      cfg.Client,
		solver:      cfg.Solver,
		store:       cfg.Store,
		mail:        cfg.Mail,
		roster:      cfg.Roster,
		exporter:    cfg.Exporter,
		events:      cfg.Events,
		redirect:    cfg.Redirect,
		sleep:       SleepScheduler{KeepaliveInterval: cfg.KeepaliveInterval},
		maxAttempts: maxAttempts,
		logger:      logger.With("account", cfg.Account.Email),
	}
}

// mailCreds возвращает параметры ящика для валидации и поиска писем:
// собственный ящик аккаунта либо общий redirect-ящик.
func (b *Bot) mailCreds() mailer.Credentials {
	if !b.redirect.Enabled {
		return mailer.Credentials{
			IMAPServer: b.account.IMAPServer,
			Email:      b.account.Email,
			Password:   b.account.Password,
			Proxy:      b.account.Proxy,
		}
	}

	creds := mailer.Credentials{
		IMAPServer: b.redirect.IMAPServer,
		Email:      b.redirect.Email,
		Password:   b.redirect.Password,
	}
	if b.redirect.UseProxy {
		creds.Proxy = b.account.Proxy
	}
	return creds
}

// failure — типовой неуспешный результат write-workflow.
func (b *Bot) failure() domain.OperationResult {
	return domain.OperationResult{
		Identifier: b.account.Email,
		Data:       b.account.Password,
		Status:     false,
	}
}

// success — типовой успешный результат write-workflow.
func (b *Bot) success() domain.OperationResult {
	return domain.OperationResult{
		Identifier: b.account.Email,
		Data:       b.account.Password,
		Status:     true,
	}
}
