package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/rules"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
logger:
  level: error
database:
  driver: file
  path: %s
rulebase:
  path: %s
`, filepath.Join(dir, "copilot.db"), filepath.Join(dir, "rulebase.json"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RULEBASE_PATH", "")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRulesCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "rules", "add", "Encrypt backups", "-d", "Backups use AES-256", "-t", "iso27001")
	require.NoError(t, err)
	var created rules.Rule
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Encrypt backups", created.Name)
	assert.Equal(t, []string{"iso27001"}, created.Tags)

	out, err = execute(t, "--config", cfgPath, "rules", "toggle", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "active=false")

	out, err = execute(t, "--config", cfgPath, "rules", "list", "--active", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, err = execute(t, "--config", cfgPath, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Encrypt backups")

	_, err = execute(t, "--config", cfgPath, "rules", "delete", created.ID)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "rules", "delete", created.ID)
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestInspectCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	doc := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Hello world."), 0o644))

	out, err := execute(t, "--config", cfgPath, "inspect", doc)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["readable"])
	assert.Equal(t, "note.txt", res["fileName"])
}

func TestAnalyzeRequiresStandard(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := execute(t, "--config", cfgPath, "analyze", "policy.pdf")
	assert.Error(t, err)
}

func TestReadDocumentRejectsUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o644))
	_, _, _, err := readDocument(path)
	assert.Error(t, err)
}
