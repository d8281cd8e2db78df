package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"harvester/internal/domain"
)

// AccountRepo — репозиторий персистентного состояния аккаунтов.
//
// Контракт хранилища: ключ — email; заголовки сессии — непрозрачный
// JSONB; оба таймера (sleep_until, session_blocked_until) независимы.
type AccountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo создаёт новый AccountRepo.
func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Get возвращает состояние аккаунта. ErrNotFound — записи нет.
func (r *AccountRepo) Get(ctx context.Context, email string) (*domain.AccountState, error) {
	query := `
		SELECT email, app_id, headers, sleep_until, session_blocked_until, created_at
		FROM accounts
		WHERE email = $1
	`

	var (
		state       domain.AccountState
		headersJSON []byte
		sleepUntil  *time.Time
		blockedTill *time.Time
	)
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&state.Email,
		&state.AppID,
		&headersJSON,
		&sleepUntil,
		&blockedTill,
		&state.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if len(headersJSON) > 0 {
		var headers http.Header
		if err := json.Unmarshal(headersJSON, &headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
		state.Headers = headers
	}
	if sleepUntil != nil {
		state.SleepUntil = sleepUntil.UTC()
	}
	if blockedTill != nil {
		state.SessionBlockedUntil = blockedTill.UTC()
	}

	return &state, nil
}

// Create создаёт запись аккаунта после первого успешного логина.
func (r *AccountRepo) Create(ctx context.Context, email, appID string, headers http.Header) error {
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}

	query := `
		INSERT INTO accounts (email, app_id, headers, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.pool.Exec(ctx, query, email, appID, headersJSON, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Delete удаляет запись аккаунта (инвалидация сессии).
// Отсутствие записи ошибкой не считается.
func (r *AccountRepo) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// SetSleepUntil записывает время следующего планового действия.
//
// Upsert: штрафная пауза может назначаться аккаунту, у которого ещё
// нет записи (логин так и не состоялся).
func (r *AccountRepo) SetSleepUntil(ctx context.Context, email string, until time.Time) error {
	query := `
		INSERT INTO accounts (email, app_id, sleep_until, created_at)
		VALUES ($1, '', $2, $3)
		ON CONFLICT (email)
		DO UPDATE SET sleep_until = EXCLUDED.sleep_until
	`
	_, err := r.pool.Exec(ctx, query, email, until.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set sleep_until: %w", err)
	}
	return nil
}

// SetSessionBlockedUntil записывает конец штрафной паузы.
//
// Upsert: запись могла быть удалена при сбросе сессии, но штраф
// обязан пережить сброс, поэтому при отсутствии записи она создаётся
// без заголовков.
func (r *AccountRepo) SetSessionBlockedUntil(ctx context.Context, email string, until time.Time, appID string) error {
	query := `
		INSERT INTO accounts (email, app_id, session_blocked_until, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email)
		DO UPDATE SET session_blocked_until = EXCLUDED.session_blocked_until
	`
	_, err := r.pool.Exec(ctx, query, email, appID, until.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set session_blocked_until: %w", err)
	}
	return nil
}
