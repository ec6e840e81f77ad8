package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/pbaille/katas/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := bytes.NewBuffer(nil)
	cmd.SetOut(out)
	cmd.SetErr(bytes.NewBuffer(nil))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func clockServer(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestEncodeCommand_PrintsRows(t *testing.T) {
	db := filepath.Join(t.TempDir(), "katas.db")

	out, err := run(t, "--db", db, "encode", "Moscow", "New York", "Moscow", "London")
	require.NoError(t, err)
	assert.Equal(t, "Moscow    001\nNew York  010\nMoscow    001\nLondon    100\n", out)

	out, err = run(t, "--db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "encode")
	assert.Contains(t, out, `"Moscow","New York","Moscow","London"`)
}

func TestEncodeCommand_JSON(t *testing.T) {
	out, err := run(t, "encode", "--json", "--no-save", "apple", "orange")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"apple","code":[0,1]},{"label":"orange","code":[1,0]}]`, out)
}

func TestEncodeCommand_NoLabels(t *testing.T) {
	_, err := run(t, "encode", "--no-save")
	assert.Error(t, err)
}

func TestYearCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "katas.db")
	url := clockServer(t, `{"currentDateTime":"2021-12-03T10:15Z"}`)

	out, err := run(t, "--db", db, "year", "--url", url)
	require.NoError(t, err)
	assert.Equal(t, "2021\n", out)

	out, err = run(t, "--db", db, "history", "--kind", "year")
	require.NoError(t, err)
	assert.Contains(t, out, "2021-12-03T10:15Z")
}

func TestYearCommand_Errors(t *testing.T) {
	url := clockServer(t, `{"currentDateTime":"03-12-21"}`)
	_, err := run(t, "year", "--no-save", "--url", url)
	assert.ErrorIs(t, err, clock.ErrInvalidFormat)

	url = clockServer(t, `{"isDayLightSavingsTime":"2021-03-12"}`)
	_, err = run(t, "year", "--no-save", "--url", url)
	assert.ErrorIs(t, err, clock.ErrMissingField)
}

func TestShowCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "katas.db")

	_, err := run(t, "--db", db, "encode", "solo")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "history")
	require.NoError(t, err)
	id := out[:8]

	out, err = run(t, "--db", db, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Kind:    encode")
	assert.Contains(t, out, `"label":"solo"`)

	_, err = run(t, "--db", db, "show", "ffffffff")
	assert.Error(t, err)
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := run(t, "--db", filepath.Join(t.TempDir(), "katas.db"), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs yet")

	_, err = run(t, "history", "--kind", "bogus")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
