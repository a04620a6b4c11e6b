package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/store"
	"github.com/roach88/wavegrid/internal/testutil"
)

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func textOpts() *RootOptions {
	return &RootOptions{Format: "text", NoColor: true}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}

// decodeData unmarshals the data field of a CLIResponse envelope.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	require.Equal(t, "ok", env.Status, out)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// decodeError returns the error code of a CLIResponse envelope.
func decodeError(t *testing.T, out string) string {
	t.Helper()
	var env CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	require.Equal(t, "error", env.Status, out)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

// archiveFixture archives Fibonacci-only runs of three ticks under the given
// ids and returns the database path.
func archiveFixture(t *testing.T, ids ...string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "wavegrid.db")
	gen := store.NewFixedGenerator(ids...)
	clock := testutil.NewStepClock(testutil.Epoch, 0)

	for range ids {
		opts := &RunOptions{RootOptions: jsonOpts(), RunIDs: gen, Now: clock.Now}
		_, _, err := execute(newRunCommand(opts), "--ticks", "3", "--dual=false", "--db", db, "--label", "fixture")
		require.NoError(t, err)
	}
	return db
}
