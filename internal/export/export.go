// Package export — файловые каналы вывода аккаунтов.
//
// Карантин и успешные регистрации выгружаются в текстовые файлы
// (строки вида email:password) в каталоге результатов, чтобы оператор
// мог перелить их в другие инструменты.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Имена файлов выгрузки.
const (
	fileUnverified = "unverified.txt"
	fileBanned     = "banned.txt"
	fileRegistered = "registered.txt"
)

// Exporter пишет аккаунты в файлы результатов. Потокобезопасен.
type Exporter struct {
	dir string
	mu  sync.Mutex
}

// New создаёт Exporter и каталог результатов.
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// append дописывает строку email:password в файл.
func (e *Exporter) append(name, email, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(e.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s:%s\n", email, password); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Unverified выгружает аккаунт с неподтверждённой почтой.
func (e *Exporter) Unverified(email, password string) error {
	return e.append(fileUnverified, email, password)
}

// Banned выгружает заблокированный аккаунт.
func (e *Exporter) Banned(email, password string) error {
	return e.append(fileBanned, email, password)
}

// Registered выгружает успешно зарегистрированный аккаунт.
func (e *Exporter) Registered(email, password string) error {
	return e.append(fileRegistered, email, password)
}
