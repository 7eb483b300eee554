package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/internal/config"
)

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the context passed to the command. Long running
// commands (shell, wear) stop at the next check.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("eewear", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagFactor := globalFlags.Int("factor", 0, "Override wear_level_factor")
	flagSize := globalFlags.Int("size", 0, "Override medium_size")
	flagImage := globalFlags.String("image", "", "Override medium_path")
	flagVerbose := globalFlags.BoolP("verbose", "v", false, "Log physical writes to stderr")

	if len(args) > 0 {
		args = args[1:]
	}

	err := globalFlags.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globalFlags)

		return 1
	}

	rest := globalFlags.Args()

	if *flagHelp || len(rest) == 0 {
		printUsage(out, globalFlags)
		return 0
	}

	workDir := *flagCwd
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)
			return 1
		}
	}

	var overrides config.Overrides

	if globalFlags.Changed("factor") {
		overrides.WearLevelFactor = flagFactor
	}

	if globalFlags.Changed("size") {
		overrides.MediumSize = flagSize
	}

	if globalFlags.Changed("image") {
		overrides.MediumPath = flagImage
	}

	cfg, sources, err := config.Load(workDir, *flagConfig, overrides, env)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	sess := &session{cfg: cfg, sources: sources, workDir: workDir, env: env}

	if *flagVerbose {
		sess.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	cmd := findCommand(commandList(sess, in), rest[0])
	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, rest[0]))
		fprintln(errOut)
		printUsage(errOut, globalFlags)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, rest[1:])

	closeErr := sess.close()
	if closeErr != nil {
		fprintln(errOut, "error:", closeErr)
		return 1
	}

	if code != 0 {
		return code
	}

	return o.Finish()
}

// commandList returns all commands in help order. Each call builds fresh
// flag sets, so a command can be run more than once (as the shell does).
func commandList(s *session, in io.Reader) []*Command {
	return []*Command{
		createCmd(s),
		initByteCmd(s),
		getByteCmd(s),
		setByteCmd(s),
		initBlockCmd(s),
		getBlockCmd(s),
		setBlockCmd(s),
		inspectCmd(s),
		dumpCmd(s),
		wearCmd(s),
		snapshotCmd(s),
		demoCmd(),
		shellCmd(s, in),
		printConfigCmd(s),
	}
}

func findCommand(cmds []*Command, name string) *Command {
	for _, cmd := range cmds {
		if cmd.Name() == name {
			return cmd
		}
	}

	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globalFlags *flag.FlagSet) {
	fprintln(w, `eewear - wear-leveled byte storage on an EEPROM image

Usage: eewear [global flags] <command> [args]

Global flags:`)
	_, _ = io.WriteString(w, globalFlags.FlagUsages())
	fprintln(w)
	fprintln(w, "Commands:")
	printCommandList(w, commandList(&session{}, nil), nil)

	fprintln(w)
	fprintln(w, `Addresses and byte values accept decimal or 0x hex. Run "eewear <command> --help" for details.`)
}
