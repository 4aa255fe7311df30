package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runTaskgate(t, binaryPath, home, "alice\ns3cret\n", "demo")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "created task-1")
	assert.Contains(t, stdout, "deleted task-2")
	assert.Contains(t, stdout, "Demo complete")
}

func TestSmokeTOMLBackendKeepsTasksAcrossProcesses(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	creds := []string{"--username", "alice", "--password", "s3cret"}

	_, stderr, err := runTaskgate(t, binaryPath, home, "",
		append([]string{"task", "create", "--title", "Persisted"}, creds...)...)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runTaskgate(t, binaryPath, home, "",
		append([]string{"task", "list", "--json"}, creds...)...)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "\"id\": \"task-1\"")
	assert.Contains(t, stdout, "\"owner_id\": \"user-001\"")
	assert.FileExists(t, filepath.Join(home, ".taskgate", "tasks.toml"))
}

func TestSmokeWrongPasswordExitsNonZero(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runTaskgate(t, binaryPath, home, "",
		"task", "list", "--username", "alice", "--password", "wrong")
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr, "invalid credentials")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "taskgate-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/taskgate")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build taskgate binary: %s", string(output))
	return binaryPath
}

func runTaskgate(t *testing.T, binaryPath, home, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(filteredEnviron(),
		"HOME="+home,
		"AUTH_USER_ID=user-001",
		"AUTH_USERNAME=alice",
		"AUTH_PASSWORD=s3cret",
		"TASKGATE_STORE_BACKEND=toml",
	)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// filteredEnviron drops taskgate and auth variables inherited from the host.
func filteredEnviron() []string {
	env := make([]string, 0, len(os.Environ()))
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "AUTH_") || strings.HasPrefix(kv, "TASKGATE_") {
			continue
		}
		env = append(env, kv)
	}

	return env
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
