package cli

import (
	"fmt"
	"io"
)

// IO routes command output and the warnings raised about the image, such as
// a size mismatch with the config or a slot-group that was never initialized.
//
// A warning is printed to stderr right before the next stdout line, so it
// sits next to the output it concerns. A one-shot command repeats the
// warnings that had output printed after them once it finishes, so they stay
// visible through head or tail. Inside the shell each warning is printed once,
// at the latest when the command that raised it ends.
//
// Any warning makes the exit code 1.
type IO struct {
	out    io.Writer
	errOut io.Writer

	pending []string // raised, not printed yet
	shown   []string // printed, in order
	buried  int      // shown[:buried] have stdout output after them

	inShell bool
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records what looks wrong with the image and what to do about it.
// Warnings never suppress normal output.
func (o *IO) Warn(issue string, action string) {
	o.pending = append(o.pending, fmt.Sprintf("%s: %s", issue, action))
}

// Println writes to stdout after any pending warnings.
func (o *IO) Println(a ...any) {
	o.beforeOutput()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout after any pending warnings.
func (o *IO) Printf(format string, a ...any) {
	o.beforeOutput()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish prints what is still pending, repeats buried warnings outside the
// shell, and returns the exit code.
func (o *IO) Finish() int {
	o.flushWarnings()

	if !o.inShell {
		for _, w := range o.shown[:o.buried] {
			o.printWarning(w)
		}
	}

	if len(o.shown) > 0 {
		return 1
	}

	return 0
}

// enterShell switches to per-command warning delivery.
func (o *IO) enterShell() {
	o.inShell = true
}

// endCommand prints the warnings raised by the command that just ran.
func (o *IO) endCommand() {
	o.flushWarnings()
}

func (o *IO) beforeOutput() {
	o.flushWarnings()
	o.buried = len(o.shown)
}

func (o *IO) flushWarnings() {
	for _, w := range o.pending {
		o.printWarning(w)
	}

	o.shown = append(o.shown, o.pending...)
	o.pending = nil
}

func (o *IO) printWarning(w string) {
	_, _ = fmt.Fprintln(o.errOut, "warning:", w)
}
