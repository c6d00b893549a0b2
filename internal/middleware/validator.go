package middleware

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

const (
	maxStandards      = 20
	maxStandardLength = 100
)

var (
	idPattern       = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)
	allowedUploadEx = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".md": true}
)

// ParseStandards accepts a JSON array (["GDPR","ISO 27001"]) or a
// comma-separated list, as sent by the upload form.
func ParseStandards(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("invalid selectedStandards: %w", err)
		}
	} else {
		out = strings.Split(raw, ",")
	}
	for i := range out {
		out[i] = SanitizeString(out[i])
	}
	return out, ValidateStandards(out)
}

// ValidateStandards bounds the number and length of requested standards.
func ValidateStandards(standards []string) error {
	if len(standards) > maxStandards {
		return fmt.Errorf("too many standards: %d (max %d)", len(standards), maxStandards)
	}
	for _, s := range standards {
		if len([]rune(s)) > maxStandardLength {
			return fmt.Errorf("standard name too long (max %d chars)", maxStandardLength)
		}
	}
	return nil
}

// ValidateID checks path ids of rules, analyses and sessions.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id format (alphanumeric, dash, underscore, dot, colon only, max 128 chars)")
	}
	return nil
}

// ValidateUploadFile checks the declared file name of an upload.
func ValidateUploadFile(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if strings.ContainsAny(name, "\x00\n\r") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid characters in file name")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadEx[ext] {
		return fmt.Errorf("unsupported file type %q (allowed: pdf, doc, docx, txt, md)", ext)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
