// Package auth keeps the login token on disk and runs the login and
// register flows against the server.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/abhisek/lingo/internal/api"
)

// ErrNotLoggedIn is returned when no usable token is stored.
var ErrNotLoggedIn = errors.New("not logged in: run `lingo login`")

// Credentials is the on-disk form.
type Credentials struct {
	Token string `toml:"token"`
	Email string `toml:"email"`
}

// File is a credentials file. It is an api.TokenSource.
type File struct {
	path string

	mu    sync.RWMutex
	creds Credentials
}

// Open reads the credentials at path. A missing file yields an empty,
// logged-out File.
func Open(path string) (*File, error) {
	f := &File{path: path}
	if _, err := toml.DecodeFile(path, &f.creds); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Token returns the stored bearer token.
func (f *File) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creds.Token
}

// Email returns the account the token was issued for.
func (f *File) Email() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creds.Email
}

// Check reports ErrNotLoggedIn when there is no token or it has expired.
func (f *File) Check(now time.Time) error {
	token := f.Token()
	if token == "" || api.TokenExpired(token, now) {
		return ErrNotLoggedIn
	}
	return nil
}

// Save writes creds with owner-only permissions.
func (f *File) Save(creds Credentials) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write credentials: %w", err)
	}

	f.mu.Lock()
	f.creds = creds
	f.mu.Unlock()
	return nil
}

// Clear forgets the token and removes the file.
func (f *File) Clear() error {
	f.mu.Lock()
	f.creds = Credentials{}
	f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Authenticator is the server side of the flows.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) error
}

// Login signs in and stores the token.
func Login(ctx context.Context, a Authenticator, f *File, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	token, err := a.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("wrong email or password")
		}
		return fmt.Errorf("login: %w", err)
	}
	return f.Save(Credentials{Token: token, Email: email})
}

// Register creates the account and signs in with it.
func Register(ctx context.Context, a Authenticator, f *File, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	if err := a.Register(ctx, email, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return Login(ctx, a, f, email, password)
}
