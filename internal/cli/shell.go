package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// lineReader is the part of liner.State the shell uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scanReader reads commands from a non-interactive input without echoing
// prompts.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}

	if err := r.sc.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (r *scanReader) AppendHistory(string) {}

func shellCmd(s *session, in io.Reader) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Run commands interactively against one open image",
		Long: `Open the image once and read commands line by line. Every command except
create and shell is available, without the "eewear" prefix. The image stays
locked until the shell exits.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			err := wantArgs(args, 0)
			if err != nil {
				return err
			}

			return execShell(ctx, o, s, in)
		},
		Section:  SectionImage,
		TopLevel: true,
	}
}

func execShell(ctx context.Context, o *IO, s *session, in io.Reader) error {
	o.enterShell()

	store, err := s.open(o)
	if err != nil {
		return err
	}

	o.endCommand()

	var lr lineReader

	if f, ok := in.(*os.File); ok && f == os.Stdin {
		state := liner.NewLiner()
		defer state.Close()

		state.SetCtrlCAborts(true)
		state.SetCompleter(completeCommand)

		history := historyFile(s.env)
		if hf, err := os.Open(history); err == nil { //nolint:gosec // history lives in $HOME
			_, _ = state.ReadHistory(hf)
			_ = hf.Close()
		}

		defer saveHistory(state, history)

		lr = state

		o.Printf("eewear shell (image=%s, factor=%d, ops=%s)\n", s.imagePath(), store.WearLevelFactor(), store.Ops())
		o.Println("Type 'help' for available commands.")
	} else {
		if in == nil {
			in = strings.NewReader("")
		}

		lr = &scanReader{sc: bufio.NewScanner(in)}
	}

	for ctx.Err() == nil {
		line, err := lr.Prompt("eewear> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lr.AppendHistory(line)

		fields := strings.Fields(line)
		name, args := fields[0], fields[1:]

		switch name {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			printShellHelp(o, s)
			continue
		}

		cmd := findCommand(commandList(s, nil), name)
		if cmd == nil {
			o.ErrPrintln("error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
			continue
		}

		cmd.Run(ctx, o, args)
		o.endCommand()
	}

	return nil
}

func printShellHelp(o *IO, s *session) {
	var sb strings.Builder

	printCommandList(&sb, commandList(s, nil), func(c *Command) bool { return c.TopLevel })

	o.Println("Commands:")
	o.Printf("%s", sb.String())
	o.Println("Shell:")
	o.Println("  help                         Show this help")
	o.Println("  exit / quit / q              Leave the shell")
}

// completeCommand provides tab completion for command names.
func completeCommand(line string) []string {
	var completions []string

	for _, cmd := range commandList(&session{}, nil) {
		if !cmd.TopLevel && strings.HasPrefix(cmd.Name(), line) {
			completions = append(completions, cmd.Name())
		}
	}

	return completions
}

// historyFile returns the path to the shell history file, or "" when HOME
// is unknown.
func historyFile(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".eewear_history")
}

func saveHistory(state *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.Create(path) //nolint:gosec // history lives in $HOME
	if err != nil {
		return
	}

	_, _ = state.WriteHistory(f)
	_ = f.Close()
}
