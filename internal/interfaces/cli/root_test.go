package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fieldplan/internal/testutil"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// testEnv is a temp dir holding a config file with history enabled.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`planner:
  time_budget: 2s
  max_restarts: 4
  seed: 11
history:
  enabled: true
  path: %s
metrics:
  enabled: false
log:
  level: error
`, filepath.Join(dir, "history.db"))
	path := filepath.Join(dir, "fieldplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &testEnv{dir: dir, config: path}
}

func (e *testEnv) writePortals(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and captures stdout and stderr.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.config, "--no-color", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	t.Parallel()
	cmd := NewRootCommand()
	assert.Equal(t, "fieldplan", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"plan", "validate", "history", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"config", "profile", "log-level", "output", "verbose", "no-color", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestNewPlanCmd_Flags(t *testing.T) {
	t.Parallel()
	cmd := NewPlanCmd()
	for _, flag := range []string{"agents", "seed", "time-budget", "max-restarts", "workers",
		"format", "export", "compress", "upload", "verify", "start", "no-cache", "server"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
	assert.Equal(t, "1", cmd.Flags().Lookup("agents").DefValue)
}

func TestRoot_RejectsUnknownOutputFormat(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, _, err := env.run(t, "--output", "xml", "version")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestGetCLIContext_Missing(t *testing.T) {
	t.Parallel()
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestVersionCmd_JSON(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	out, _, err := env.run(t, "-o", "json", "version")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestPlanCmd_TextOutput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	path := env.writePortals(t, "portals.txt", "# test portals\n"+testutil.PortalText(testutil.Triangle()))

	out, _, err := env.run(t, "plan", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Fields: 1")
	assert.Contains(t, out, "link")
}

func TestPlanCmd_JSONAndHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	path := env.writePortals(t, "ring.txt", testutil.PortalText(testutil.Ring(6, 0.01)))

	out, _, err := env.run(t, "-o", "json", "plan", path, "--verify")
	require.NoError(t, err)
	var p plan.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Len(t, p.Portals, 6)
	assert.NotEmpty(t, p.Fields)
	assert.Equal(t, int64(11), p.Stats.Seed)

	out, _, err = env.run(t, "-o", "table", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, p.ID)
	assert.True(t, strings.HasPrefix(out, "ID"))

	out, _, err = env.run(t, "-o", "json", "history", "show", p.ID)
	require.NoError(t, err)
	var shown plan.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, p.ID, shown.ID)
	assert.Equal(t, p.TotalAP, shown.TotalAP)
}

func TestPlanCmd_MultiAgentTable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	path := env.writePortals(t, "scatter.csv", "name,lat,lon\n"+
		strings.ReplaceAll(testutil.PortalText(testutil.Scatter(5, 12, 0.02)), ";", ","))

	out, _, err := env.run(t, "-o", "table", "plan", path, "--agents", "2", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "\n1 ")
}

func TestPlanCmd_Export(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	path := env.writePortals(t, "portals.txt", testutil.PortalText(testutil.Triangle()))
	exportDir := filepath.Join(env.dir, "out")

	_, stderr, err := env.run(t, "plan", path, "--export", exportDir, "--compress")
	require.NoError(t, err)
	assert.Contains(t, stderr, "plan written to")

	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".zst"))
}

func TestPlanCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		args     []string
		wantCode errors.ErrorCode
		wantExit int
	}{
		{"zero agents", "", []string{"--agents", "0"}, errors.ErrCodeInvalidAgentCount, 2},
		{"too few portals", "A;51.5;-0.12\nB;51.6;-0.12\n", nil, errors.ErrCodeInsufficientPoints, 3},
		{"collinear", testutil.PortalText(testutil.Collinear(4)), nil, errors.ErrCodeDegenerateGeometry, 3},
		{"unknown format", "", []string{"--format", "kml"}, errors.ErrCodeInputFormat, 2},
		{"upload disabled", testutil.PortalText(testutil.Triangle()), []string{"--upload"}, errors.ErrCodeFeatureDisabled, 1},
		{"unknown start", testutil.PortalText(testutil.Triangle()), []string{"--start", "Nowhere"}, errors.ErrCodeBadRequest, 2},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			path := env.writePortals(t, "portals.txt", tc.content)

			_, _, err := env.run(t, append([]string{"plan", path}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errors.GetCode(err))
			assert.Equal(t, tc.wantExit, ExitCode(err))
		})
	}
}

func TestPlanCmd_MissingFile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, _, err := env.run(t, "plan", filepath.Join(env.dir, "nope.txt"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputUnreadable, errors.GetCode(err))
}

func TestValidateCmd(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	content := testutil.PortalText(testutil.Triangle()) +
		"Fountain again;51.500000;-0.120000\n" +
		"Broken;north;west\n"
	path := env.writePortals(t, "portals.txt", content)

	out, _, err := env.run(t, "-o", "json", "validate", path)
	require.NoError(t, err)

	var report ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Usable)
	assert.Len(t, report.Duplicates, 1)
	assert.Len(t, report.Issues, 1)
	assert.Equal(t, "txt", report.Format)
}

func TestValidateCmd_TooFew(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	path := env.writePortals(t, "portals.txt", "A;51.5;-0.12\n")

	out, _, err := env.run(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientPoints, errors.GetCode(err))
	assert.Contains(t, out, "Usable portals: 1")
}

func TestHistoryShow_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, _, err := env.run(t, "history", "show", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestFormatTable(t *testing.T) {
	t.Parallel()
	got := FormatTable([]string{"ID", "NAME"}, [][]string{{"1", "Fountain"}, {"22", "Café"}})
	want := "ID  NAME    \n" +
		"--  --------\n" +
		"1   Fountain\n" +
		"22  Café    \n"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(errors.New(errors.ErrCodeInputParse, "bad")))
	assert.Equal(t, 3, ExitCode(errors.New(errors.ErrCodeDegenerateGeometry, "line")))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}

func TestPlanCmd_Profile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	tri := env.writePortals(t, "tri.txt", testutil.PortalText(testutil.Triangle()))
	profile := env.writePortals(t, "cheap.yaml", `name: cheap
planner:
  max_restarts: 2
rewards:
  link_ap: 100
  field_ap: 1000
`)

	out, _, err := env.run(t, "--profile", profile, "-o", "json", "plan", tri)
	require.NoError(t, err)
	var p plan.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 3*100+1000, p.TotalAP)

	_, _, err = env.run(t, "--profile", filepath.Join(env.dir, "missing.yaml"), "version")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInputUnreadable))
}

//Personal.AI order the ending
