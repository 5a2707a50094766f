package cli

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

	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplates(t *testing.T) {
	out, err := run(t, "", "templates")
	require.NoError(t, err)
	for _, tm := range prompt.Default().List() {
		assert.Contains(t, out, tm.Name)
	}
}

func TestRender(t *testing.T) {
	out, err := run(t, "", "render", prompt.IdeaGenerator, "-f", "industry=Education", "--field", "problem=Time Management")
	require.NoError(t, err)
	assert.Contains(t, out, "Education")
	assert.Contains(t, out, "Time Management")

	_, err = run(t, "", "render", prompt.IdeaGenerator)
	var ve *prompt.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = run(t, "", "render", prompt.IdeaGenerator, "-f", "novalue")
	require.Error(t, err)

	_, err = run(t, "", "render", "nope", "-f", "a=b")
	require.ErrorIs(t, err, prompt.ErrUnknownTemplate)
}

func TestRenderSurpriseIsSeeded(t *testing.T) {
	a, err := run(t, "", "render", prompt.IdeaGenerator, "--surprise", "--seed", "7")
	require.NoError(t, err)
	b, err := run(t, "", "render", prompt.IdeaGenerator, "--surprise", "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtract(t *testing.T) {
	reply := "Sure!\n" + `{"name":"TimeWise","description":"Planner.","analysis":{"merits":["a"],"demerits":["b"],"suggestions":["c"]}}` + "\nBye"
	out, err := run(t, reply, "extract", prompt.IdeaGenerator)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "TimeWise", got["name"])

	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("no braces here"), 0o600))
	_, err = run(t, "", "extract", prompt.IdeaGenerator, path)
	var xe *extract.Error
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, extract.ReasonUnparseable, xe.Reason)

	_, err = run(t, reply, "extract", prompt.IdeaGenerator, "--strategy", "psychic")
	require.Error(t, err)
}

func TestGenerateWithMockModel(t *testing.T) {
	t.Setenv("FF_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	out, err := run(t, "", "generate", prompt.IdeaGenerator, "-f", "industry=Education")
	require.NoError(t, err)
	var got struct {
		Template string         `json:"template"`
		Model    string         `json:"model"`
		Result   map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, prompt.IdeaGenerator, got.Template)
	assert.Equal(t, "mock-1", got.Model)
	assert.NotEmpty(t, got.Result["name"])

	_, err = run(t, "", "generate", prompt.IdeaGenerator, "-f", "industry=Education", "--model", "gpt-99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config failure")
}

func TestGenerateRecord(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := filepath.Join(dir, "ff.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
env: development
gateway:
  default_model: mock-1
  models:
    - id: mock-1
      engine:
        type: mock
history:
  enabled: true
  dsn: `+filepath.Join(dir, "h.db")+`
`), 0o600))

	_, err := run(t, "", "--config", cfgPath, "generate", prompt.Branding, "-f", "keywords=eco", "--record")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "h.db"))
	require.NoError(t, err)
}

func TestModels(t *testing.T) {
	t.Setenv("FF_CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	out, err := run(t, "", "models")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "mock-1"`)
}
