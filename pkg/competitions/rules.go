package competitions

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// Rules are the submission constraints of an event.
type Rules struct {
	MaxSubmissionsPerDay int      `json:"max_submissions_per_day" yaml:"max_submissions_per_day"`
	MaxSubmissionsTotal  int      `json:"max_submissions_total" yaml:"max_submissions_total"`
	MaxFileSizeMB        int      `json:"max_file_size_mb" yaml:"max_file_size_mb"`
	AllowedFormats       []string `json:"allowed_formats" yaml:"allowed_formats"` // ".pkl", ".h5", ...
	TimeoutMinutes       int      `json:"timeout_minutes" yaml:"timeout_minutes"`
}

// DefaultRules are applied to drafts that leave rules unset.
func DefaultRules() Rules {
	return Rules{
		MaxSubmissionsPerDay: 10,
		MaxSubmissionsTotal:  50,
		MaxFileSizeMB:        500,
		AllowedFormats:       []string{".pkl", ".h5", ".pt"},
		TimeoutMinutes:       10,
	}
}

// MaxFileSizeBytes returns the size limit in bytes.
func (r Rules) MaxFileSizeBytes() int64 {
	return int64(r.MaxFileSizeMB) * 1024 * 1024
}

// FileExtension returns the lower-cased extension of name with its leading dot,
// or "" when name has none.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// CheckFile validates a file against the format and size rules.
func (r Rules) CheckFile(name string, size int64) error {
	ext := FileExtension(name)
	if ext == "" || !slices.Contains(r.AllowedFormats, ext) {
		return errors.NewValidationError("file", name,
			fmt.Sprintf("format %q not accepted, allowed formats: %s", ext, strings.Join(r.AllowedFormats, ", ")))
	}
	if size > r.MaxFileSizeBytes() {
		return errors.NewValidationError("file", size,
			fmt.Sprintf("file is too large, maximum size is %d MB", r.MaxFileSizeMB))
	}
	if size <= 0 {
		return errors.NewValidationError("file", size, "file is empty")
	}
	return nil
}

// Validate checks that every limit is usable.
func (r Rules) Validate() error {
	var errs errors.ValidationErrors
	if len(r.AllowedFormats) == 0 {
		errs = append(errs, errors.NewValidationError("rules.allowed_formats", nil, "at least one format is required"))
	}
	positive := []struct {
		field string
		v     int
	}{
		{"rules.max_submissions_per_day", r.MaxSubmissionsPerDay},
		{"rules.max_submissions_total", r.MaxSubmissionsTotal},
		{"rules.max_file_size_mb", r.MaxFileSizeMB},
		{"rules.timeout_minutes", r.TimeoutMinutes},
	}
	for _, p := range positive {
		if p.v <= 0 {
			errs = append(errs, errors.NewValidationError(p.field, p.v, "must be positive"))
		}
	}
	if r.MaxSubmissionsPerDay > r.MaxSubmissionsTotal && r.MaxSubmissionsTotal > 0 {
		errs = append(errs, errors.NewValidationError("rules.max_submissions_per_day", r.MaxSubmissionsPerDay,
			"cannot exceed max_submissions_total"))
	}
	return errs.ErrOrNil()
}

// NormalizeFormats lower-cases formats, adds the leading dot and drops
// blanks and duplicates, so "PKL", "pkl" and ".pkl" are the same format.
func NormalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || f == "." {
			continue
		}
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
