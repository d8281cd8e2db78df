// Package roster — разделяемый список аккаунтов активной фермы.
//
// Ростер мутируется из многих воркеров (карантин удаляет аккаунты),
// поэтому реализован как потокобезопасное упорядоченное множество
// с идемпотентным удалением по email.
package roster

import (
	"sync"

	"harvester/internal/domain"
)

// Roster — упорядоченное множество аккаунтов, ключ — email.
type Roster struct {
	mu       sync.RWMutex
	accounts []domain.Account
	index    map[string]int
}

// New создаёт ростер из списка аккаунтов. Дубликаты email
// отбрасываются (остаётся первый).
func New(accounts []domain.Account) *Roster {
	r := &Roster{index: make(map[string]int, len(accounts))}
	for _, acc := range accounts {
		r.Add(acc)
	}
	return r
}

// Add добавляет аккаунт, если его ещё нет. Возвращает true при
// фактическом добавлении.
func (r *Roster) Add(account domain.Account) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[account.Email]; exists {
		return false
	}
	r.index[account.Email] = len(r.accounts)
	r.accounts = append(r.accounts, account)
	return true
}

// Remove удаляет аккаунт по email. Идемпотентно: повторный вызов для
// того же email возвращает false и ничего не меняет.
func (r *Roster) Remove(email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, exists := r.index[email]
	if !exists {
		return false
	}

	r.accounts = append(r.accounts[:pos], r.accounts[pos+1:]...)
	delete(r.index, email)
	for i := pos; i < len(r.accounts); i++ {
		r.index[r.accounts[i].Email] = i
	}
	return true
}

// Get возвращает аккаунт по email.
func (r *Roster) Get(email string) (domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[email]
	if !exists {
		return domain.Account{}, false
	}
	return r.accounts[pos], true
}

// Contains сообщает, есть ли аккаунт в ростере.
func (r *Roster) Contains(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.index[email]
	return exists
}

// Snapshot возвращает копию текущего списка в исходном порядке.
func (r *Roster) Snapshot() []domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Len возвращает размер ростера.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}
