package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/calvinalkan/wearlevel/internal/cli"
)

func Test_Bare_Command_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	// Call Run directly without test helper (which adds --cwd)
	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"eewear"}, nil, nil)

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stderr.String(), ""; got != want {
		t.Errorf("stderr=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stdout.String(), "eewear - wear-leveled byte storage")
	cli.AssertContains(t, stdout.String(), "--cwd")
	cli.AssertContains(t, stdout.String(), "set-byte <base> <value>")
	cli.AssertContains(t, stdout.String(), "print-config")
}

func Test_Invalid_Global_Flag_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("--invalid-flag", "get-byte", "0")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")
	cli.AssertContains(t, stderr, "Global flags:")
	cli.AssertContains(t, stderr, "--config")
	cli.AssertContains(t, stderr, "--factor")
}

func Test_Unknown_Command_Fails_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("frobnicate")

	cli.AssertContains(t, stderr, "unknown command: frobnicate")
	cli.AssertContains(t, stderr, "Commands:")
}

func Test_Command_Help_Shows_Long_Description_And_Flags_When_Requested(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("dump", "--help")

	cli.AssertContains(t, stdout, "Usage: eewear dump [flags]")
	cli.AssertContains(t, stdout, "16 per line")
	cli.AssertContains(t, stdout, "--begin")
	cli.AssertContains(t, stdout, "--end")
}

func Test_Command_Flag_Error_Prints_Command_Help_When_Flag_Is_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("wear", "--bogus", "0")

	if exitCode != 1 {
		t.Errorf("exitCode=%d, want=1", exitCode)
	}

	cli.AssertContains(t, stderr, "unknown flag: --bogus")
	cli.AssertContains(t, stdout, "Usage: eewear wear <base> [flags]")
}

func Test_Run_Fails_When_Config_Is_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".eewear.json", `{"wear_level_factor": 300}`)

	stderr := c.MustFail("print-config")

	cli.AssertContains(t, stderr, "wear_level_factor must be in [1, 255]")
}

func Test_PrintConfig_Shows_Effective_Values_And_Sources_When_Files_Exist(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".eewear.json", `{
		// project settings
		"wear_level_factor": 4,
	}`)

	stdout := c.MustRun("--size", "256", "print-config")

	cli.AssertContains(t, stdout, `"wear_level_factor": 4`)
	cli.AssertContains(t, stdout, `"medium_size": 256`)
	cli.AssertContains(t, stdout, "project_config=")
	cli.AssertNotContains(t, stdout, "global_config=")

	defaults := cli.NewCLI(t).MustRun("print-config")
	cli.AssertContains(t, defaults, "(defaults only)")
}

func Test_Verbose_Logs_Physical_Writes_When_Enabled(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("create")

	_, stderr, code := c.Run("--verbose", "init-byte", "0", "7")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	if !strings.Contains(stderr, "init group") || !strings.Contains(stderr, "level=DEBUG") {
		t.Errorf("stderr should carry debug records, got:\n%s", stderr)
	}
}
