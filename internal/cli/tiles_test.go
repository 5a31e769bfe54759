package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testBuildSpec = `grid:
  pitch: 40
arr_info:
  lch: 20
place_info:
  unit:
    row_specs:
      - mos_type: nch
        width: 4
        bot_wires: [g]
        top_wires: [s, d]
  tap:
    row_specs:
      - mos_type: ptap
        width: 2
`

// runCommand executes the CLI with the given args, capturing nothing; the
// print helpers write to stdout, which tests ignore.
func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)
	return root.Execute()
}

func writeTestSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestTilesBuildAndShow(t *testing.T) {
	spec := writeTestSpec(t, testBuildSpec)
	outDir := filepath.Join(t.TempDir(), "tiles")

	if err := runCommand(t, "tiles", "build", spec, "--out", outDir, "--no-cache"); err != nil {
		t.Fatalf("tiles build: %v", err)
	}

	// The built directory must be loadable on its own.
	table, err := loadBuiltTable(outDir)
	if err != nil {
		t.Fatalf("loadBuiltTable: %v", err)
	}
	names := table.Names()
	if len(names) != 2 || names[0] != "tap" || names[1] != "unit" {
		t.Fatalf("names = %v, want [tap unit]", names)
	}

	if err := runCommand(t, "tiles", "show", outDir); err != nil {
		t.Errorf("tiles show: %v", err)
	}
	if err := runCommand(t, "tiles", "show", outDir, "--tile", "unit"); err != nil {
		t.Errorf("tiles show --tile: %v", err)
	}
}

func TestTilesBuildUsesCache(t *testing.T) {
	spec := writeTestSpec(t, testBuildSpec)
	cacheDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("cache_dir = \""+cacheDir+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out1 := filepath.Join(t.TempDir(), "a")
	if err := runCommand(t, "tiles", "build", spec, "--out", out1, "--config", cfgPath); err != nil {
		t.Fatalf("first build: %v", err)
	}

	// A second build of the same spec must load from cache and produce the
	// same table.
	out2 := filepath.Join(t.TempDir(), "b")
	if err := runCommand(t, "tiles", "build", spec, "--out", out2, "--config", cfgPath); err != nil {
		t.Fatalf("second build: %v", err)
	}

	t1, err := loadBuiltTable(out1)
	if err != nil {
		t.Fatalf("load first: %v", err)
	}
	t2, err := loadBuiltTable(out2)
	if err != nil {
		t.Fatalf("load second: %v", err)
	}
	if t1.Hash() != t2.Hash() {
		t.Error("cached build differs from fresh build")
	}

	// The cache directory should now hold at least one entry.
	entries := 0
	_ = filepath.WalkDir(cacheDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			entries++
		}
		return nil
	})
	if entries == 0 {
		t.Error("expected cache entries after build")
	}
}

func TestTilesBuildRejectsMissingLch(t *testing.T) {
	spec := writeTestSpec(t, "grid:\n  pitch: 40\nplace_info: {}\n")
	if err := runCommand(t, "tiles", "build", spec, "--no-cache", "--out", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatal("expected error for missing lch")
	}
}
