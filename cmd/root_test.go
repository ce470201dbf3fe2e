package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcasound/orcaprep/internal/buildinfo"
	"github.com/orcasound/orcaprep/internal/conf"
)

func execute(t *testing.T, args ...string) (string, *conf.Settings, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	settings := &conf.Settings{}
	root := RootCommand(settings, buildinfo.NewContext("v0.0.0-test", "2026-01-01"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), settings, err
}

func TestFlagsOverrideConfiguration(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	configFile := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("calltime: 4\ncase: 3\n"), 0o600))

	out, settings, err := execute(t, "config", "--config", configFile, "--preprocesscase", "2", "--tsvpath", "a.tsv", "--seed", "9")
	require.NoError(t, err)

	assert.InDelta(t, 4.0, settings.CallTime, 0)
	assert.Equal(t, conf.CasePCEN, settings.Case)
	assert.Equal(t, "a.tsv", settings.Input.AnnotationPath)
	assert.Equal(t, int64(9), settings.Negatives.Seed)
	assert.Contains(t, out, "calltime: 4")
	assert.Contains(t, out, "case: 2")
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	table := filepath.Join(dir, "annotations.tsv")
	require.NoError(t, os.WriteFile(table, []byte("wav_filename\tstart\tduration_s\na.wav\t1\t1\na.wav\t5\t2\n"), 0o600))

	out, _, err := execute(t, "stats", "--tsvpath", table)
	require.NoError(t, err)
	assert.Contains(t, out, "The mean of the call duration is 1.5\n")
}

func TestRunRequiresInputs(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "run", "--calltime", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tsvpath")
	assert.Contains(t, err.Error(), "--audiospath")
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "v0.0.0-test (built 2026-01-01)")
}
