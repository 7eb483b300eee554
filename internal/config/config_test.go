package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/wearlevel/internal/config"
	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func ptr[T any](v T) *T { return &v }

func Test_Load_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, sources, err := config.Load(dir, "", config.Overrides{}, map[string]string{"XDG_CONFIG_HOME": filepath.Join(dir, "xdg")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if sources != (config.Sources{}) {
		t.Errorf("sources = %+v, want none", sources)
	}
}

func Test_Load_Applies_Precedence_When_All_Layers_Are_Present(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")

	writeFile(t, filepath.Join(xdg, "eewear", "config.json"), `{
		// global
		"wear_level_factor": 4,
		"medium_size": 256,
		"block_ops": false,
	}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{"medium_size": 512, "medium_path": "dev.img"}`)

	cfg, sources, err := config.Load(dir, "", config.Overrides{MediumPath: ptr("cli.img")}, map[string]string{"XDG_CONFIG_HOME": xdg})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := config.Config{
		WearLevelFactor: 4,
		MediumSize:      512,
		MediumPath:      "cli.img",
		ByteOps:         true,
		BlockOps:        false,
	}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if sources.Global == "" || sources.Project == "" {
		t.Errorf("sources = %+v, want both set", sources)
	}
}

func Test_Load_Uses_Explicit_File_Instead_Of_Project_File_When_Path_Is_Given(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, config.FileName), `{"wear_level_factor": 2}`)
	writeFile(t, filepath.Join(dir, "other.json"), `{"wear_level_factor": 16}`)

	cfg, sources, err := config.Load(dir, "other.json", config.Overrides{}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.WearLevelFactor != 16 {
		t.Errorf("factor = %d, want 16", cfg.WearLevelFactor)
	}

	if sources.Project != filepath.Join(dir, "other.json") {
		t.Errorf("project source = %q", sources.Project)
	}
}

func Test_Load_Returns_Error_When_Input_Is_Bad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		file       string
		configPath string
		overrides  config.Overrides
		wantErr    string
	}{
		{name: "explicit file missing", configPath: "nope.json", wantErr: "config file not found"},
		{name: "broken jsonc", file: `{"wear_level_factor": }`, wantErr: "invalid config file"},
		{name: "unknown key", file: `{"wear_factor": 3}`, wantErr: "unknown field"},
		{name: "factor zero", file: `{"wear_level_factor": 0}`, wantErr: "wear_level_factor must be in [1, 255]"},
		{name: "factor too large", overrides: config.Overrides{WearLevelFactor: ptr(256)}, wantErr: "got 256"},
		{name: "medium too small", file: `{"wear_level_factor": 8, "medium_size": 15}`, wantErr: "cannot hold one slot-group"},
		{name: "empty path", overrides: config.Overrides{MediumPath: ptr("")}, wantErr: "medium_path cannot be empty"},
		{name: "no ops", file: `{"byte_ops": false, "block_ops": false}`, wantErr: "cannot both be disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, config.FileName), tt.file)
			}

			_, _, err := config.Load(dir, tt.configPath, tt.overrides, nil)
			if err == nil {
				t.Fatal("expected error")
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func Test_StoreOptions_Maps_Op_Switches_When_Config_Is_Valid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.BlockOps = false
	cfg.WearLevelFactor = 3

	got := cfg.StoreOptions()
	want := eeprom.Options{WearLevelFactor: 3, Ops: eeprom.OpsByte}

	if got.WearLevelFactor != want.WearLevelFactor || got.Ops != want.Ops {
		t.Errorf("options = %+v, want %+v", got, want)
	}
}

func Test_Format_Writes_Snake_Case_Keys_When_Called(t *testing.T) {
	t.Parallel()

	out, err := config.Format(config.Default())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	for _, key := range []string{`"wear_level_factor": 8`, `"medium_size": 1024`, `"medium_path": "eeprom.img"`, `"byte_ops": true`} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %s:\n%s", key, out)
		}
	}
}
