package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wimi/internal/compiler"
)

func TestLoadIntentsFromTestdata(t *testing.T) {
	result, errs := LoadIntents("testdata/defs", LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Intents, 2)

	// Declaration order is preserved.
	assert.Equal(t, "upload", result.Intents[0].ID)
	assert.Equal(t, "checkout", result.Intents[1].ID)

	upload := result.Intents[0]
	assert.Equal(t, "alice", upload.Actor)
	assert.Equal(t, []string{"files:write"}, upload.Requires)
	assert.Equal(t, "Upload broke", upload.Messages["failed"])
	assert.Equal(t, "active", upload.Protection)
}

func TestLoadIntentsNonExistentDirectory(t *testing.T) {
	result, errs := LoadIntents("/nonexistent/path", LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadIntentsEmptyDirectory(t *testing.T) {
	result, errs := LoadIntents(t.TempDir(), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadIntentsCompileError(t *testing.T) {
	tmpDir := t.TempDir()
	bad := `package test

intent: broken: {
	purpose: 42
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.cue"), []byte(bad), 0o644))

	_, errs := LoadIntents(tmpDir, LoadModeFailFast)
	require.NotEmpty(t, errs)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, compiler.ErrUnsupportedType, loadErr.Code)
}

func TestLoadIntentsCollectAll(t *testing.T) {
	tmpDir := t.TempDir()
	defs := `package test

intent: {
	good: purpose: "fine"
	bad: purpose:  42
	worse: actor:  true
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "defs.cue"), []byte(defs), 0o644))

	result, errs := LoadIntents(tmpDir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	require.Len(t, result.Intents, 1)
	assert.Equal(t, "good", result.Intents[0].ID)
}

func TestFindCUEFiles(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.cue"), []byte("x: 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "b.txt"), []byte("not cue"), 0o644))

	sub := filepath.Join(tmpDir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.cue"), []byte("y: 2"), 0o644))

	files, err := FindCUEFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"id", compiler.ErrIntentIDEmpty},
		{"messages", compiler.ErrUnknownMessageState},
		{"requires", compiler.ErrEmptyCapability},
		{"protection", compiler.ErrUnknownProtection},
		{"purpose", compiler.ErrUnsupportedType},
		{"actor", compiler.ErrUnsupportedType},
		{"something-else", ErrCodeGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field), "field %q", tt.field)
	}
}

func TestLoadErrorFormatting(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in ./defs"}
	assert.Equal(t, "E003: no CUE files found in ./defs", err.Error())

	var target *LoadError
	assert.True(t, errors.As(error(err), &target))
}
