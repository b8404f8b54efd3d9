// Package audit records successful logins to an append-only sink.
package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// ErrInvalidUsername is returned for usernames that cannot be stored on a single line.
var ErrInvalidUsername = errors.New("audit: invalid username")

// Entry is one recorded login.
type Entry struct {
	Username string
	At       time.Time
}

// FileLog appends one line per login to a text file:
//
//	2024-03-14T10:00:00Z	alice
//
// The file is created on first use and never truncated.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog returns a FileLog writing to path.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the file the log writes to.
func (l *FileLog) Path() string {
	return l.path
}

// Append writes the entry and syncs it to disk before returning.
func (l *FileLog) Append(ctx context.Context, username string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUsername(username); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", l.path, err)
	}

	line := at.UTC().Format(time.RFC3339) + "\t" + username + "\n"
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("audit: write %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("audit: sync %s: %w", l.path, err)
	}
	return f.Close()
}

// Entries reads the log back in write order. A missing file has no entries.
func (l *FileLog) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", l.path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		stamp, username, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("audit: %s:%d: malformed entry", l.path, lineNo)
		}
		at, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, fmt.Errorf("audit: %s:%d: %w", l.path, lineNo, err)
		}
		entries = append(entries, Entry{Username: username, At: at})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: read %s: %w", l.path, err)
	}
	return entries, nil
}

// DatabaseLog stores logins in the login_audit table.
type DatabaseLog struct {
	repo persistence.LoginAuditRepository
}

// NewDatabaseLog wraps repo.
func NewDatabaseLog(repo persistence.LoginAuditRepository) *DatabaseLog {
	return &DatabaseLog{repo: repo}
}

// Append inserts the entry.
func (l *DatabaseLog) Append(ctx context.Context, username string, at time.Time) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	if err := l.repo.AppendLogin(ctx, username, at.UTC()); err != nil {
		return fmt.Errorf("audit: append login: %w", err)
	}
	return nil
}

// Entries returns the stored logins in insertion order.
func (l *DatabaseLog) Entries(ctx context.Context) ([]Entry, error) {
	records, err := l.repo.ListLogins(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: list logins: %w", err)
	}
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Username: r.Username, At: r.LoggedInAt}
	}
	return entries, nil
}

func checkUsername(username string) error {
	if strings.TrimSpace(username) == "" || strings.ContainsAny(username, "\t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}
