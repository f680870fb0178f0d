// Package uploads tracks icon files between upload and confirmation.
//
// An uploaded file starts out pending, owned by the client session that sent
// it. Saving an entity that references the file confirms it; sessions that
// never confirm are cleaned up explicitly or reclaimed by the age sweep.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/luisgbr1el/vitalboard/internal/metrics"
)

const (
	sweepInterval = time.Hour
	maxPendingAge = 24 * time.Hour
)

// Manager is the session-keyed registry of pending uploaded files. It owns
// the uploads directory: nothing else deletes files under it.
type Manager struct {
	dir   string
	clock clockwork.Clock

	mu            sync.Mutex
	sessionFiles  map[string]map[string]struct{}
	fileToSession map[string]string
}

// NewManager creates a manager over dir, creating it if needed.
func NewManager(dir string, clock clockwork.Clock) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Manager{
		dir:           dir,
		clock:         clock,
		sessionFiles:  make(map[string]map[string]struct{}),
		fileToSession: make(map[string]string),
	}, nil
}

// Dir returns the uploads directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Store writes an uploaded file into the directory under a timestamped name
// and registers it as pending for sessionID. Returns the stored file name.
func (m *Manager) Store(sessionID, originalName string, content []byte) (string, error) {
	name := fmt.Sprintf("%d-%s", m.clock.Now().UnixMilli(), filepath.Base(originalName))
	if err := os.WriteFile(filepath.Join(m.dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	m.Register(sessionID, name)
	return name, nil
}

// Register marks fileName as pending, owned by sessionID.
func (m *Manager) Register(sessionID, fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessionFiles[sessionID]; !ok {
		m.sessionFiles[sessionID] = make(map[string]struct{})
	}
	m.sessionFiles[sessionID][fileName] = struct{}{}
	m.fileToSession[fileName] = sessionID
	metrics.UploadsPendingFiles.Set(float64(len(m.fileToSession)))
}

// Confirm marks fileName as permanently referenced. Confirming an unknown
// file is a no-op: it was either never pending or already confirmed.
func (m *Manager) Confirm(fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forget(fileName)
}

// ConfirmURL confirms the file behind an /uploads/ URL path.
func (m *Manager) ConfirmURL(url string) {
	if name := FileNameFromURL(url); name != "" {
		m.Confirm(name)
	}
}

// Delete removes the file from disk and drops any pending registration.
func (m *Manager) Delete(fileName string) {
	m.mu.Lock()
	m.forget(fileName)
	m.mu.Unlock()

	m.deleteFromDisk(fileName)
}

// DeleteURL deletes the file behind an /uploads/ URL path.
func (m *Manager) DeleteURL(url string) {
	if name := FileNameFromURL(url); name != "" {
		m.Delete(name)
	}
}

// CleanupSession deletes every still-pending file owned by sessionID.
func (m *Manager) CleanupSession(sessionID string) {
	m.mu.Lock()
	files := m.sessionFiles[sessionID]
	delete(m.sessionFiles, sessionID)
	names := make([]string, 0, len(files))
	for name := range files {
		delete(m.fileToSession, name)
		names = append(names, name)
	}
	metrics.UploadsPendingFiles.Set(float64(len(m.fileToSession)))
	m.mu.Unlock()

	for _, name := range names {
		m.deleteFromDisk(name)
	}
}

// PendingCount returns the number of unconfirmed files.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fileToSession)
}

// Run starts the hourly sweep loop. It blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Sweep()
		}
	}
}

// Sweep reclaims pending files older than 24 hours. Age is judged by mtime,
// so an upload confirmed while the sweep runs is never younger than the
// threshold and cannot be reclaimed by mistake.
func (m *Manager) Sweep() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		slog.Error("Upload sweep failed to list directory", "dir", m.dir, "error", err)
		return
	}

	now := m.clock.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		m.mu.Lock()
		_, pending := m.fileToSession[name]
		m.mu.Unlock()
		if !pending {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxPendingAge {
			continue
		}

		m.mu.Lock()
		m.forget(name)
		m.mu.Unlock()
		m.deleteFromDisk(name)
		metrics.UploadsSweptTotal.Inc()
		slog.Info("Swept stale upload", "file", name)
	}
}

// forget drops the registry entries for fileName. Caller holds m.mu.
func (m *Manager) forget(fileName string) {
	sessionID, ok := m.fileToSession[fileName]
	if !ok {
		return
	}
	delete(m.fileToSession, fileName)
	if files, ok := m.sessionFiles[sessionID]; ok {
		delete(files, fileName)
		if len(files) == 0 {
			delete(m.sessionFiles, sessionID)
		}
	}
	metrics.UploadsPendingFiles.Set(float64(len(m.fileToSession)))
}

func (m *Manager) deleteFromDisk(fileName string) {
	path := filepath.Join(m.dir, filepath.Base(fileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("Failed to delete uploaded file", "file", fileName, "error", err)
	}
}

// FileNameFromURL extracts the stored file name from an /uploads/ URL path.
// Returns "" for anything else.
func FileNameFromURL(url string) string {
	if !strings.HasPrefix(url, "/uploads/") {
		return ""
	}
	return filepath.Base(strings.TrimPrefix(url, "/uploads/"))
}
