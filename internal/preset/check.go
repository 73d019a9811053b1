package preset

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
)

// FileReport describes what loading one preset file would do.
type FileReport struct {
	File    string        `json:"file" yaml:"file"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	Entries []EntryReport `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// EntryReport is the verdict on one candidate preset within a file. Reason
// is set when the whole entry is rejected; Dropped lists property entries
// that were filtered out of an accepted one.
type EntryReport struct {
	Index   int      `json:"index" yaml:"index"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Reason  string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Dropped []string `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// OK reports whether every entry in the file is usable as written.
func (r FileReport) OK() bool {
	if r.Error != "" {
		return false
	}
	for _, e := range r.Entries {
		if e.Reason != "" || len(e.Dropped) > 0 {
			return false
		}
	}
	return true
}

// CheckFile applies the loader's rules to a single file without logging.
func CheckFile(path string) FileReport {
	report := FileReport{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		report.Error = apperrors.NewIOError(apperrors.ErrCodePresetRead, "cannot read preset file", err).Error()
		return report
	}
	candidates, err := decodeCandidates(data)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	for i, c := range candidates {
		res := Validate(c)
		entry := EntryReport{Index: i, Reason: res.Reason, Dropped: res.Dropped}
		if res.OK() {
			entry.Name = res.Preset.Name
		} else if obj, ok := c.(map[string]interface{}); ok {
			entry.Name, _ = obj["name"].(string)
		}
		report.Entries = append(report.Entries, entry)
	}
	return report
}

// CheckDir reports on every preset file in dir, in file name order.
func CheckDir(dir string) ([]FileReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.WrapIO(err, apperrors.ErrCodePresetDirRead, "cannot read preset directory").
			WithContext("dir", dir)
	}

	var reports []FileReport
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), FileExtension) {
			continue
		}
		reports = append(reports, CheckFile(filepath.Join(dir, entry.Name())))
	}
	return reports, nil
}
