package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

const (
	servicesFile = "../../testdata/farmers-services.yml"
	rulesFile    = "../../testdata/farmers-validation.yml"
	sampleFile   = "../../testdata/farmers-sample.json"
)

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer

	code = run(args, strings.NewReader(stdin), &out, &errOut)

	return code, out.String(), errOut.String()
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = runCLI(t, "", "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, stderr = runCLI(t, "", "map")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "-mapping is required")
}

func TestMapCommand(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "map", "-mapping", servicesFile, "-service", "farmers_registry", sampleFile)
	require.Equal(t, exitOK, code, stderr)

	out, err := jsonpath.DecodeObject([]byte(stdout))
	require.NoError(t, err)

	assert.Equal(t, "farmer-001", out["primaryKey"])
	assert.Equal(t, "farmerRegistrationForm", out["parentFormId"])

	arrays, ok := jsonpath.Collection(out["arrays"])
	require.True(t, ok)
	assert.Len(t, arrays, 3)
}

func TestMapCommandStdinAndDump(t *testing.T) {
	code, stdout, stderr := runCLI(t, `{"testData": {"id": "piped"}}`,
		"map", "-mapping", servicesFile, "-dump", "-")
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, stdout, "PrimaryKey")
	assert.Contains(t, stdout, `"piped"`)
}

func TestMapCommandServiceMismatch(t *testing.T) {
	code, _, stderr := runCLI(t, "{}", "-log-format", "json", "map", "-mapping", servicesFile, "-service", "other")

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `"level":"ERROR"`)
	assert.Contains(t, stderr, "does not match requested service")
}

func TestValidateCommand(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "validate", "-rules", rulesFile, sampleFile)
	require.Equal(t, exitOK, code, stderr)

	out, err := jsonpath.DecodeObject([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, true, out["valid"])

	code, stdout, stderr = runCLI(t, `{"id": "x"}`, "validate", "-rules", rulesFile)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, `"valid": false`)
	assert.Contains(t, stderr, "Validation failed with")
}

func TestCheckCommand(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "check", "-mapping", servicesFile)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "farmers_registry: 0 error(s)")

	broken := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte(`
service:
  id: broken
formMappings:
  people:
    type: array
    govstack: people
    jogetGrid: peopleGrid
    fields:
      - joget: name
        govstack: name
`), 0o600))

	code, stdout, _ = runCLI(t, "", "check", "-mapping", broken)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "unresolved_grid")
	assert.Contains(t, stdout, "broken: 1 error(s)")
}
