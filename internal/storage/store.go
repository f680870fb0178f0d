// Package storage persists whole JSON documents to flat files.
//
// Each Store owns one document at one path. Writes replace the whole
// document; callers do read-modify-write. No lock is held across a
// read-modify-write cycle, so concurrent mutations race and the last write
// wins. Writes go through a temp file and rename so a crash never leaves a
// half-written document behind.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/luisgbr1el/vitalboard/internal/metrics"
)

// Store owns one JSON document of type T on disk.
type Store[T any] struct {
	path       string
	name       string
	defaultDoc func() T
}

// NewStore creates a store for the document at path. name labels metrics and
// logs. defaultDoc supplies the document written on first read of a missing
// file and the fallback returned for unreadable content.
func NewStore[T any](path, name string, defaultDoc func() T) *Store[T] {
	return &Store[T]{path: path, name: name, defaultDoc: defaultDoc}
}

// Path returns the on-disk location of the document.
func (s *Store[T]) Path() string {
	return s.path
}

// Read returns the current document. A missing file is initialized with the
// default document. Empty or unparsable content returns the default without
// failing the request; the parse error is logged so the loss is observable.
func (s *Store[T]) Read() T {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			doc := s.defaultDoc()
			if writeErr := s.Write(doc); writeErr != nil {
				slog.Warn("Failed to initialize document", "document", s.name, "path", s.path, "error", writeErr)
			}
			metrics.StoreOpsTotal.WithLabelValues(s.name, "read", "initialized").Inc()
			return doc
		}
		slog.Warn("Failed to read document, using default", "document", s.name, "path", s.path, "error", err)
		metrics.StoreOpsTotal.WithLabelValues(s.name, "read", "error").Inc()
		return s.defaultDoc()
	}

	if strings.TrimSpace(string(raw)) == "" {
		slog.Warn("Document is empty, using default", "document", s.name, "path", s.path)
		metrics.StoreCorruptReads.WithLabelValues(s.name).Inc()
		return s.defaultDoc()
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("Document is unparsable, using default", "document", s.name, "path", s.path, "error", err)
		metrics.StoreCorruptReads.WithLabelValues(s.name).Inc()
		return s.defaultDoc()
	}

	metrics.StoreOpsTotal.WithLabelValues(s.name, "read", "ok").Inc()
	return doc
}

// Write replaces the whole document atomically.
func (s *Store[T]) Write(doc T) error {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues(s.name, "write", "error").Inc()
		return fmt.Errorf("marshal %s document: %w", s.name, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		metrics.StoreOpsTotal.WithLabelValues(s.name, "write", "error").Inc()
		return fmt.Errorf("create data directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		metrics.StoreOpsTotal.WithLabelValues(s.name, "write", "error").Inc()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			slog.Warn("Failed to clean up temp file after rename failure", "path", tempPath, "error", removeErr)
		}
		metrics.StoreOpsTotal.WithLabelValues(s.name, "write", "error").Inc()
		return fmt.Errorf("replace %s document: %w", s.name, err)
	}

	metrics.StoreOpsTotal.WithLabelValues(s.name, "write", "ok").Inc()
	return nil
}
