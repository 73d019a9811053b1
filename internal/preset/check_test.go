package preset

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
)

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		content   string
		wantOK    bool
		wantError string
		entries   []EntryReport
	}{
		{
			name:    "single valid preset",
			content: `{"name":"etag","properties":[{"namespace":"DAV:","name":"getetag"}]}`,
			wantOK:  true,
			entries: []EntryReport{{Index: 0, Name: "etag"}},
		},
		{
			name: "array with a rejected and a filtered entry",
			content: `[
				{"name":"bad name","properties":[{"namespace":"DAV:","name":"getetag"}]},
				{"name":"partly","properties":[{"namespace":"DAV:","name":"getetag"},{"namespace":"","name":"x"}]}
			]`,
			entries: []EntryReport{
				{Index: 0, Name: "bad name", Reason: `preset name "bad name" must match ^[-_a-zA-Z0-9]+$`},
				{Index: 1, Name: "partly", Dropped: []string{`properties[1]: namespace "" is neither "DAV:" nor an absolute URI`}},
			},
		},
		{
			name:      "malformed json",
			content:   `{"name":`,
			wantError: "unexpected end of JSON input",
		},
		{
			name:      "scalar root",
			content:   `42`,
			wantError: "root must be an object or an array, got number",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".json", tt.content)
			report := CheckFile(path)

			assert.Equal(t, path, report.File)
			assert.Equal(t, tt.wantOK, report.OK())
			if tt.wantError != "" {
				assert.Contains(t, report.Error, tt.wantError)
				return
			}
			assert.Empty(t, report.Error)
			assert.Equal(t, tt.entries, report.Entries)
		})
	}

	missing := CheckFile(filepath.Join(dir, "absent.json"))
	assert.False(t, missing.OK())
	assert.Contains(t, missing.Error, "[ERR_PRESET_READ] cannot read preset file")
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"name":"b","properties":[{"namespace":"DAV:","name":"getetag"}]}`)
	writeFile(t, dir, "A.JSON", `{"name":"a","properties":[{"namespace":"DAV:","name":"getetag"}]}`)
	writeFile(t, dir, "notes.txt", `ignored`)

	reports, err := CheckDir(dir)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, filepath.Join(dir, "A.JSON"), reports[0].File)
	assert.Equal(t, filepath.Join(dir, "b.json"), reports[1].File)

	_, err = CheckDir(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeIO, apperrors.GetErrorType(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
