package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigShowPrintsSample(t *testing.T) {
	out, err := runCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, section := range []string{"[vault]", "[ledger]", "[ocr]", "[currency]"} {
		if !strings.Contains(out, section) {
			t.Fatalf("sample output missing %s:\n%s", section, out)
		}
	}
}

func TestConfigInitWritesSampleFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not mention target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample file missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}
}
