// Package validation checks uploaded files and request payloads, and reports
// the quality of normalized reference tables.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Extensions accepted for each upload kind.
var (
	ProductListExtensions = []string{".csv", ".xlsx"}
	HistoryExtensions     = []string{".xlsx"}
)

var (
	filenameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-_.()\[\]]+$`)

	// substrings never accepted in an uploaded file name
	dangerousPatterns = []string{
		"../", "..\\", "%2e%2e", "file://", "<script", "javascript:", "$(", "${", "`", "|", ";",
	}
)

// ValidateFilename checks an uploaded file name and its extension.
func ValidateFilename(name string, allowed []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("file name too long: maximum 255 characters")
	}

	lower := strings.ToLower(name)
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("file name contains potentially dangerous content")
		}
	}
	if !filenameRegex.MatchString(name) {
		return fmt.Errorf("file name contains invalid characters")
	}
	if hasExcessiveRepetition(name) {
		return fmt.Errorf("file name contains excessive character repetition")
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type %q, expected one of %s", ext, strings.Join(allowed, ", "))
}

// ValidateUploadSize checks that an upload is non-empty and within max bytes.
func ValidateUploadSize(size, max int64) error {
	if size <= 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if max > 0 && size > max {
		return fmt.Errorf("uploaded file too large: %d bytes, maximum %d", size, max)
	}
	return nil
}

// hasExcessiveRepetition flags the same character repeated more than ten
// times in a row.
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Struct validates a request payload using its `validate` tags.
func Struct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(v); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Namespace(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}
