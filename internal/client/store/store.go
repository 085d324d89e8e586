// Package store is the client's ephemeral storage: the latest upload's
// session token, its teaser and, once payment is verified, the unlocked copy.
// Each new upload overwrites the previous state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
)

// ErrEmpty means nothing has been stored yet.
var ErrEmpty = errors.New("no stored analysis")

// State is what survives the payment redirect.
type State struct {
	SessionToken string           `json:"sessionToken"`
	Teaser       analysis.Result  `json:"teaser"`
	Fallback     bool             `json:"fallback"`
	Report       *analysis.Result `json:"report,omitempty"`
	// PaymentSuccess is set once a confirmation was verified.
	PaymentSuccess bool      `json:"paymentSuccess"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// Memory keeps state for the life of the process.
type Memory struct {
	mu    sync.Mutex
	state *State
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, ErrEmpty
	}
	return *m.state, nil
}

func (m *Memory) Save(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &s
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

// File persists state as JSON so separate CLI invocations share it.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File { return &File{path: path} }

// DefaultPath is <user config dir>/wealthface/state.json, falling back to the
// working dir.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wealthface", "state.json")
	}
	return "wealthface-state.json"
}

func (f *File) Load(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, ErrEmpty
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return s, nil
}

func (f *File) Save(ctx context.Context, s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
