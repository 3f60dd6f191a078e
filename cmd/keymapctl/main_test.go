package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nativekeymap"
	"nativekeymap/internal/daemon"
	"nativekeymap/internal/keymap"
)

type stubLayouts struct {
	km       []keymap.Mapping
	layout   *keymap.Layout
	iso      keymap.ISOState
	err      error
	extended bool
}

func (s *stubLayouts) KeyMap(extended bool) ([]keymap.Mapping, error) {
	s.extended = extended
	return s.km, s.err
}

func (s *stubLayouts) Layout() (*keymap.Layout, error) { return s.layout, s.err }

func (s *stubLayouts) ISO() keymap.ISOState { return s.iso }

type stubWatcher struct{}

func (stubWatcher) Start(func()) error { return nil }
func (stubWatcher) Stop() error { return nil }

func runCLI(t *testing.T, stub *stubLayouts, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(&out)
	a.layouts = func(string) daemon.Layouts { return stub }
	a.newWatcher = func(nativekeymap.Options) daemon.ChangeWatcher { return stubWatcher{} }

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDumpPrintsJSON(t *testing.T) {
	stub := &stubLayouts{km: []keymap.Mapping{{KeyCode: "KeyA", Value: "a", WithShift: "A"}}}
	out, err := runCLI(t, stub, "dump")
	require.NoError(t, err)

	var got []keymap.Mapping
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, stub.km, got)
	assert.False(t, stub.extended)
}

func TestDumpExtendedRequestsLevel5(t *testing.T) {
	stub := &stubLayouts{}
	_, err := runCLI(t, stub, "dump", "--extended")
	require.NoError(t, err)
	assert.True(t, stub.extended)
}

func TestDumpDropsSilentKeysUnlessAll(t *testing.T) {
	stub := &stubLayouts{km: []keymap.Mapping{
		{KeyCode: "KeyA", Value: "a"},
		{KeyCode: "F13"},
	}}

	out, err := runCLI(t, stub, "dump")
	require.NoError(t, err)
	var got []keymap.Mapping
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "KeyA", got[0].KeyCode)

	out, err = runCLI(t, stub, "dump", "--all")
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
}

func TestDumpEmptyIsArray(t *testing.T) {
	out, err := runCLI(t, &stubLayouts{}, "dump")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestDumpYAML(t *testing.T) {
	stub := &stubLayouts{km: []keymap.Mapping{{KeyCode: "KeyQ", Value: "q"}}}
	out, err := runCLI(t, stub, "dump", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "key_code: KeyQ")
	assert.Contains(t, out, "value: q")
}

func TestLayoutPropagatesErrors(t *testing.T) {
	stub := &stubLayouts{err: nativekeymap.ErrUnavailable}
	_, err := runCLI(t, stub, "layout")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nativekeymap.ErrUnavailable))
}

func TestLayoutPrintsActiveLayout(t *testing.T) {
	stub := &stubLayouts{layout: &keymap.Layout{Platform: "linux", Name: "us"}}
	out, err := runCLI(t, stub, "layout")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "us"`)
}

func TestISOReport(t *testing.T) {
	stub := &stubLayouts{iso: keymap.ISO}
	out, err := runCLI(t, stub, "iso")
	require.NoError(t, err)
	assert.JSONEq(t, `{"iso":"iso"}`, out)
}

func TestUnknownOutputFormatIsRejected(t *testing.T) {
	_, err := runCLI(t, &stubLayouts{}, "iso", "-o", "xml")
	require.Error(t, err)
}

func TestConfigInitWritesDefaults(t *testing.T) {
	var out bytes.Buffer
	a := newApp(&out)
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"--config", cfgPath, "config", "init"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, cfgPath, strings.TrimSpace(out.String()))
	_, err := os.Stat(cfgPath)
	assert.NoError(t, err)
}

func TestConfigShowAppliesFlagOverrides(t *testing.T) {
	out, err := runCLI(t, &stubLayouts{}, "--display", ":7", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `":7"`)
}

func TestQueryWithoutDaemon(t *testing.T) {
	endpoint := unreachableEndpoint(t)
	_, err := runCLI(t, &stubLayouts{}, "query", "ping", "--endpoint", endpoint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no daemon is listening")
}

func TestRenderLineIsCompact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderLine(&buf, map[string]string{"name": "de<neo>"}))
	assert.Equal(t, "{\"name\":\"de<neo>\"}\n", buf.String())
}
