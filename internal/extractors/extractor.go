// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extractors turns source documents (PDF, DOCX, plain text) into
// plain text for rule matching. Extraction is a total operation: any failure
// yields empty text, never an error, because downstream evaluation already
// treats empty text as valid input.
package extractors

import (
	"os"
	"path/filepath"
	"strings"

	"ifr-compliance/internal/observability"
)

// TextSource resolves a document key to its extracted plain text.
// Implementations must return "" on any failure and never panic or error.
type TextSource interface {
	LoadText(docKey string) string
}

// DocumentSource is the file-backed TextSource. It maps document keys
// (e.g. "OM-A", "MEL") to filenames under a base directory and dispatches
// extraction on the file extension.
type DocumentSource struct {
	baseDir   string
	documents map[string]string
	observer  *observability.StandardObserver
}

// NewDocumentSource creates a file-backed text source. documents maps a
// document key to its filename relative to baseDir.
func NewDocumentSource(baseDir string, documents map[string]string) *DocumentSource {
	return &DocumentSource{
		baseDir:   baseDir,
		documents: documents,
	}
}

// SetObserver sets the observability component
func (s *DocumentSource) SetObserver(observer *observability.StandardObserver) {
	s.observer = observer
}

// Keys returns the document keys this source knows about.
func (s *DocumentSource) Keys() []string {
	keys := make([]string, 0, len(s.documents))
	for key := range s.documents {
		keys = append(keys, key)
	}
	return keys
}

// LoadText extracts plain text for the given document key. Unknown keys,
// missing files, and unsupported or unreadable formats all yield "".
func (s *DocumentSource) LoadText(docKey string) string {
	filename, ok := s.documents[docKey]
	if !ok || filename == "" {
		return ""
	}
	path := filepath.Join(s.baseDir, filename)

	var done func(bool, map[string]interface{})
	if s.observer != nil {
		done = s.observer.StartTiming("extractors", "load_text", docKey)
	}

	text := extractByExtension(path)

	if done != nil {
		done(text != "", map[string]interface{}{
			"file":         filepath.Base(path),
			"text_length":  len(text),
			"document_key": docKey,
		})
	}
	return text
}

func extractByExtension(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDFText(path)
	case ".docx":
		return extractDocxText(path)
	case ".txt", ".md":
		return extractPlainText(path)
	default:
		return ""
	}
}

// extractPlainText reads a text file as-is.
func extractPlainText(path string) string {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ""
	}
	return string(data)
}

// MapSource is an in-memory TextSource, used in tests and by callers that
// already hold extracted text.
type MapSource map[string]string

// LoadText returns the stored text for key, or "" when absent.
func (m MapSource) LoadText(docKey string) string {
	return m[docKey]
}
