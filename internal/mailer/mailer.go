// Package mailer работает с почтовым ящиком аккаунта: проверяет, что
// ящик доступен, и вылавливает из него ссылку подтверждения,
// присланную платформой.
package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"golang.org/x/net/proxy"
)

// Mode — какое письмо ищем.
type Mode string

const (
	// ModeVerify — письмо после первичной регистрации.
	ModeVerify Mode = "verify"

	// ModeReverify — письмо после повторной отправки ссылки.
	ModeReverify Mode = "re-verify"
)

// Credentials — параметры доступа к ящику. Proxy пустой — прямое
// соединение.
type Credentials struct {
	IMAPServer string
	Email      string
	Password   string
	Proxy      string
}

// Умолчания.
const (
	defaultIMAPPort     = "993"
	defaultWaitAttempts = 12
	defaultWaitDelay    = 10 * time.Second
	defaultSender       = "support@dawninternet.com"
)

// linkPattern вылавливает ссылку подтверждения из тела письма
// (текстовой или HTML части).
var linkPattern = regexp.MustCompile(`https?://[^\s"'<>]*(?:confirm|verif)[^\s"'<>]*`)

// Checker — клиент почтового ящика.
type Checker struct {
	logger *slog.Logger

	sender       string
	waitAttempts int
	waitDelay    time.Duration
}

// Config — конфигурация Checker.
type Config struct {
	// Sender — адрес отправителя платформы (default: support@dawninternet.com).
	Sender string

	// WaitAttempts — сколько раз опрашивать ящик в ожидании письма (default: 12).
	WaitAttempts int

	// WaitDelay — задержка между опросами (default: 10s).
	WaitDelay time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт Checker.
func New(cfg Config) *Checker {
	sender := cfg.Sender
	if sender == "" {
		sender = defaultSender
	}

	waitAttempts := cfg.WaitAttempts
	if waitAttempts <= 0 {
		waitAttempts = defaultWaitAttempts
	}

	waitDelay := cfg.WaitDelay
	if waitDelay <= 0 {
		waitDelay = defaultWaitDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		logger:       logger,
		sender:       sender,
		waitAttempts: waitAttempts,
		waitDelay:    waitDelay,
	}
}

// dial подключается к IMAP-серверу, при необходимости через SOCKS-прокси.
func dial(creds Credentials) (*client.Client, error) {
	addr := creds.IMAPServer
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, defaultIMAPPort)
	}

	if creds.Proxy == "" {
		return client.DialTLS(addr, nil)
	}

	proxyURL, err := url.Parse(creds.Proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", creds.Proxy, err)
	}

	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	return client.DialWithDialerTLS(dialer, addr, nil)
}

// login подключается и аутентифицируется в ящике.
func login(creds Credentials) (*client.Client, error) {
	c, err := dial(creds)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", creds.IMAPServer, err)
	}

	if err := c.Login(creds.Email, creds.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login %s: %w", creds.Email, err)
	}

	return c, nil
}

// Validate проверяет, что ящик доступен: соединение, логин, INBOX.
func (m *Checker) Validate(ctx context.Context, creds Credentials) error {
	c, err := login(creds)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}
	return nil
}

// subjectFilter возвращает подстроку темы письма для режима.
func subjectFilter(mode Mode) string {
	if mode == ModeReverify {
		return "Verify"
	}
	return "Welcome"
}

// ExtractLink ждёт письмо платформы и возвращает ссылку подтверждения.
//
// Ящик опрашивается с фиксированной задержкой ограниченное число раз;
// письмо ищется по отправителю и теме, ссылка — по linkPattern.
func (m *Checker) ExtractLink(ctx context.Context, mode Mode, creds Credentials) (string, error) {
	c, err := login(creds)
	if err != nil {
		return "", err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return "", fmt.Errorf("select inbox: %w", err)
	}

	for attempt := 0; attempt < m.waitAttempts; attempt++ {
		link, err := m.findLink(c, mode)
		if err != nil {
			return "", err
		}
		if link != "" {
			return link, nil
		}

		m.logger.Debug("confirmation mail not arrived yet",
			"mailbox", creds.Email,
			"mode", string(mode),
			"attempt", attempt+1,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.waitDelay):
		}
	}

	return "", fmt.Errorf("no confirmation mail for %s within wait budget", creds.Email)
}

// findLink ищет ссылку в свежих письмах платформы.
func (m *Checker) findLink(c *client.Client, mode Mode) (string, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("From", m.sender)
	criteria.Header.Add("Subject", subjectFilter(mode))

	ids, err := c.Search(criteria)
	if err != nil {
		return "", fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}

	// Берём самое свежее письмо.
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids[len(ids)-1])

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var link string
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		if found := FindConfirmationLink(string(raw)); found != "" {
			link = found
		}
	}

	if err := <-done; err != nil {
		return "", fmt.Errorf("imap fetch: %w", err)
	}
	return link, nil
}

// FindConfirmationLink извлекает первую ссылку подтверждения из тела
// письма. Пустая строка — ссылки нет.
func FindConfirmationLink(body string) string {
	// Quoted-printable переносы внутри URL ломают регулярку.
	body = strings.ReplaceAll(body, "=\r\n", "")
	body = strings.ReplaceAll(body, "=\n", "")
	match := linkPattern.FindString(body)
	if match == "" {
		return ""
	}
	// =3D — остаток quoted-printable кодирования атрибутов href.
	match = strings.ReplaceAll(match, "=3D", "=")
	return strings.TrimRight(match, ".,;)")
}
