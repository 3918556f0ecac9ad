package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/shared/config"
)

type scriptedClient struct {
	reply string
}

func (c scriptedClient) Complete(context.Context, []llm.Turn) (string, error) {
	return c.reply, nil
}

func useClient(t *testing.T, client llm.Client) {
	t.Helper()
	prev := newClient
	newClient = func(context.Context, config.Config) (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newClient = prev })
}

func writeSets(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sets:\n  - name: pair\n    questions:\n      - IS IT TRUE?\n      - IS IT KIND?\n"), 0o644))
	return path
}

func execute(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetsListsBuiltinsAndFileSets(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, config.Config{QuestionSetsFile: writeSets(t, dir)}, "sets")
	require.NoError(t, err)

	assert.Contains(t, out, "intelligence (")
	assert.Contains(t, out, "pair (2 questions)")
	assert.Contains(t, out, "  2. IS IT KIND?")
}

func TestRunSingleWritesResult(t *testing.T) {
	useClient(t, scriptedClient{reply: `{"0":{"score":97,"quotation":"q","explanation":"e"},"1":{"score":99,"quotation":"q","explanation":"e"}}`})
	dir := t.TempDir()
	passage := filepath.Join(dir, "passage.txt")
	require.NoError(t, os.WriteFile(passage, []byte("Kind words are true words."), 0o644))
	outPath := filepath.Join(dir, "result.json")

	cfg := config.Config{LLMProvider: "openai", QuestionSetsFile: writeSets(t, dir)}
	_, err := execute(t, cfg, "run", "--type", "pair", "--file", passage, "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res struct {
		Scores   map[string]struct{ Score float64 } `json:"scores"`
		Metadata struct {
			PhaseCompleted string `json:"phase_completed"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "1_and_4", res.Metadata.PhaseCompleted)
	assert.Equal(t, 99.0, res.Scores["1"].Score)
}

func TestRunCompareToStdout(t *testing.T) {
	useClient(t, scriptedClient{reply: `{"0":{"score":96,"quotation":"q","explanation":"e"},"1":{"score":96,"quotation":"q","explanation":"e"}}`})
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(a, []byte("First passage."), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("# Second\n\nSecond passage."), 0o644))

	cfg := config.Config{LLMProvider: "openai", QuestionSetsFile: writeSets(t, dir)}
	out, err := execute(t, cfg, "run", "-t", "pair", "-f", a, "--compare", b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"passageB"`)
}

func TestRunRejectsUnknownSetAndMissingFlags(t *testing.T) {
	useClient(t, scriptedClient{})
	dir := t.TempDir()
	passage := filepath.Join(dir, "p.txt")
	require.NoError(t, os.WriteFile(passage, []byte("text"), 0o644))

	_, err := execute(t, config.Config{}, "run", "--type", "nope", "--file", passage)
	assert.ErrorContains(t, err, "nope")

	_, err = execute(t, config.Config{}, "run", "--file", passage)
	assert.Error(t, err)
}
