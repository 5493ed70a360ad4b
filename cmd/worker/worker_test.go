package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/models"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	sample, err := filepath.Abs("../../internal/gazetteer/testdata/sample.json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "app.yaml")
	content := "gazetteer:\n  source: file\n  path: " + sample + "\ncache:\n  backend: memory\nbatch:\n  workers: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("\ufeffHCM\n\n  Quận 1, Sài Gòn  \r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"HCM", "Quận 1, Sài Gòn"}, lines)
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "parse", "Quận", "1,", "Sài", "Gòn")
	require.NoError(t, err)

	var result models.AddressResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "Quận 1, Sài Gòn", result.Raw)
	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Nil(t, result.Debug)
}

func TestParseCommand_Debug(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "--log-level", "error", "parse", "--debug", "HCM")
	require.NoError(t, err)

	var result models.AddressResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Debug)
	assert.Len(t, result.Debug.Scores, 5)
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := run(t, "", "--config", writeConfig(t), "parse")
	assert.Error(t, err)

	_, err = run(t, "", "--config", "missing.yaml", "parse", "HCM")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.ndjson")
	require.NoError(t, os.WriteFile(input, []byte("HCM\nQuận 1, Sài Gòn\nHuyện Châu Thành, Tỉnh Tiền Giang\n"), 0o644))

	_, err := run(t, "", "--config", writeConfig(t), "batch", "--input", input, "--output", output, "--workers", "3")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	var raws []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var result models.AddressResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &result))
		raws = append(raws, result.Raw)
	}
	assert.Equal(t, []string{"HCM", "Quận 1, Sài Gòn", "Huyện Châu Thành, Tỉnh Tiền Giang"}, raws)
}

func TestBatchCommand_Stdin(t *testing.T) {
	out, err := run(t, "HCM\nxyz\n", "--config", writeConfig(t), "batch", "--no-cache")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"status":"unmatched"`)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "flat.json")
	flat := `[
  {"id": 79, "unit_level": 1, "name": "Thành phố Hồ Chí Minh"},
  {"id": 760, "parent_id": 79, "unit_level": 2, "name": "Quận 1"},
  {"id": 26734, "parent_id": 760, "unit_level": 3, "name": "Phường Bến Nghé"}
]`
	require.NoError(t, os.WriteFile(input, []byte(flat), 0o644))
	output := filepath.Join(dir, "gazetteer.yaml")

	out, err := run(t, "", "convert", "-i", input, "-o", output, "--version", "flat-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"total":3`)

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(b), "version: flat-1")
	assert.Contains(t, string(b), "type: Thành phố Trung ương")

	// dataset vừa tạo dùng được ngay làm nguồn gazetteer
	cfg := filepath.Join(dir, "app.yaml")
	content := "gazetteer:\n  source: file\n  path: " + output + "\ncache:\n  backend: none\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	out, err = run(t, "", "--config", cfg, "parse", "Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh")
	require.NoError(t, err)
	assert.Contains(t, out, `"26734"`)
	assert.Contains(t, out, "flat-1")
}

func TestConvertCommand_InvalidInput(t *testing.T) {
	_, err := run(t, `{"id": 1}`, "convert")
	assert.Error(t, err)
}
