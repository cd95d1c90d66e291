// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/filestore"
	"github.com/danielhkuo/truevote/models"
)

// MinOptions is the smallest live option set a poll may have.
const MinOptions = 2

// NormalizeOption returns the key used to detect duplicate options:
// lower-cased with surrounding and repeated inner whitespace removed.
func NormalizeOption(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// validateOptions returns the trimmed texts and their keys.
func validateOptions(v *apperr.Validation, texts []string) (cleaned, keys []string) {
	seen := make(map[string]bool, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		key := NormalizeOption(text)
		if key == "" {
			v.Add("option_texts", "option %d is blank", i+1)
			continue
		}
		if seen[key] {
			v.Add("option_texts", "duplicate option %q", text)
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, text)
		keys = append(keys, key)
	}
	if len(texts) < MinOptions {
		v.Add("option_texts", "at least %d options are required", MinOptions)
	}
	return cleaned, keys
}

func validateFile(v *apperr.Validation, f *models.FileUpload) {
	if strings.TrimSpace(f.Filename) == "" {
		v.Add("file", "filename is required")
	}
	if len(f.Content) == 0 {
		v.Add("file", "file is empty")
	}
	if len(f.Content) > filestore.MaxFileSize {
		v.Add("file", "file exceeds %d bytes", filestore.MaxFileSize)
	}
}

func buildOptions(pollID string, texts, keys []string) []models.PollOption {
	options := make([]models.PollOption, len(texts))
	for i := range texts {
		options[i] = models.PollOption{
			ID:      uuid.NewString(),
			PollID:  pollID,
			Text:    texts[i],
			TextKey: keys[i],
		}
	}
	return options
}
