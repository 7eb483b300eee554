package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/internal/config"
)

func printConfigCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, s)
		},
		Section: SectionDiagnostics,
	}
}

func execPrintConfig(o *IO, s *session) error {
	formatted, err := config.Format(s.cfg)
	if err != nil {
		return err
	}

	o.Println(formatted)
	o.Println("")
	o.Println("# sources")
	o.Println("effective_cwd=" + s.workDir)
	o.Println("image=" + s.imagePath())

	if s.sources.Global == "" && s.sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if s.sources.Global != "" {
			o.Println("global_config=" + s.sources.Global)
		}

		if s.sources.Project != "" {
			o.Println("project_config=" + s.sources.Project)
		}
	}

	return nil
}
