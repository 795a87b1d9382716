package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"promptlab/internal/gateway/repository/projectstore"
	"promptlab/internal/project"
	"promptlab/internal/prompt"
	"promptlab/internal/version"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedStore(t *testing.T) (string, project.Project) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.json")
	p := project.New("海报")
	p.Slots = []prompt.Slot{{ID: "s1", Key: "subject", Label: "主体描述", SourceText: "一只猫", OutputText: "a cat", Enabled: true}}
	v := version.Snapshot(p.Slots, 1, "主体描述: a cat", time.UnixMilli(1700000000000))
	p.Versions = []version.PromptVersion{v}
	p.ActiveVersionID = v.ID
	if err := projectstore.NewFile(path).SaveProjects(context.Background(), []project.Project{p}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path, p
}

func TestFingerprintIgnoresWhitespace(t *testing.T) {
	a, err := run(t, "", "fingerprint", "a b\tc")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := run(t, "abc\n", "fingerprint")
	if err != nil {
		t.Fatalf("fingerprint stdin: %v", err)
	}
	if a != b || strings.TrimSpace(a) != prompt.Fingerprint("abc") {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
}

func TestComposeFromFile(t *testing.T) {
	slots := []prompt.Slot{
		{ID: "1", Key: "subject", Label: "主体描述", SourceText: "一只猫", OutputText: "a cat", Enabled: true},
		{ID: "2", Key: "style", Label: "风格", SourceText: "水彩", Enabled: false},
	}
	b, _ := json.Marshal(slots)
	path := filepath.Join(t.TempDir(), "slots.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, "", "compose", "--file", path)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	canonical := prompt.ComposeCanonical(slots)
	if !strings.Contains(out, canonical) {
		t.Fatalf("canonical missing from output:\n%s", out)
	}
	if !strings.Contains(out, "fingerprint: "+prompt.Fingerprint(canonical)) {
		t.Fatalf("fingerprint missing from output:\n%s", out)
	}
	if strings.Contains(out, "水彩") {
		t.Fatalf("disabled slot leaked into output:\n%s", out)
	}
}

func TestComposeRequiresFile(t *testing.T) {
	if _, err := run(t, "", "compose"); err == nil {
		t.Fatalf("expected an error without --file")
	}
}

func TestProjectsList(t *testing.T) {
	path, p := seedStore(t)
	out, err := run(t, "", "--store", path, "projects", "list")
	if err != nil {
		t.Fatalf("projects list: %v", err)
	}
	if !strings.Contains(out, p.ID) || !strings.Contains(out, "海报") {
		t.Fatalf("project missing from listing:\n%s", out)
	}
}

func TestVersionsExport(t *testing.T) {
	path, p := seedStore(t)

	out, err := run(t, "", "--store", path, "versions", "export", p.ID, "-o", "json")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var doc versionsExport
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(doc.Versions) != 1 || doc.Versions[0].Name != "V1" {
		t.Fatalf("unexpected export: %+v", doc)
	}

	out, err = run(t, "", "--store", path, "versions", "export", "海报")
	if err != nil {
		t.Fatalf("export yaml by name: %v", err)
	}
	var ydoc versionsExport
	if err := yaml.Unmarshal([]byte(out), &ydoc); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if ydoc.Project != p.ID || ydoc.Versions[0].FinalPrompt != "主体描述: a cat" {
		t.Fatalf("unexpected yaml export: %+v", ydoc)
	}

	if _, err := run(t, "", "--store", path, "versions", "export", p.ID, "-o", "xml"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestVersionsListUnknownProject(t *testing.T) {
	path, _ := seedStore(t)
	if _, err := run(t, "", "--store", path, "versions", "list", "nope"); err == nil {
		t.Fatalf("expected not found")
	}
}
