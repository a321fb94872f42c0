package validation

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"vidlingo/config"
	"vidlingo/errors"
	"vidlingo/media"
)

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateVideoPath checks that the path points at an existing regular file
// with a playable extension.
func (v *Validator) ValidateVideoPath(path string) error {
	const op = "Validator.ValidateVideoPath"

	if path == "" {
		return errors.InvalidInput(op, nil, "File path is required")
	}

	if !media.IsVideoFile(path) {
		return errors.InvalidInput(op, nil, "Unsupported video format")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound(op, err, "Video file not found")
		}
		return errors.Internal(op, err, "Failed to access video file")
	}
	if info.IsDir() {
		return errors.InvalidInput(op, nil, "Path is a directory")
	}

	return nil
}

// ValidateSubtitlePath checks that the path points at an existing .srt file.
func (v *Validator) ValidateSubtitlePath(path string) error {
	const op = "Validator.ValidateSubtitlePath"

	if path == "" {
		return errors.InvalidInput(op, nil, "Subtitle path is required")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".srt") {
		return errors.InvalidInput(op, nil, "Only .srt subtitles are supported")
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound(op, err, "Subtitle file not found")
		}
		return errors.Internal(op, err, "Failed to access subtitle file")
	}

	return nil
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
}

// ValidateRequest validates HTTP requests
func (v *Validator) ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "Validator.ValidateRequest"

	// Method validation
	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.InvalidInput(op, nil, fmt.Sprintf("Method %s not allowed", r.Method))
		}
	}

	// Content type validation
	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Content-Type must be application/json")
		}
	}

	// Content length validation
	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		return errors.InvalidInput(op, nil, "Request body too large")
	}

	return nil
}
