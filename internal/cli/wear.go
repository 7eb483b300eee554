package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
	"github.com/calvinalkan/wearlevel/pkg/medium"
)

// wearReport is the outcome of a simulated update run.
type wearReport struct {
	Updates uint64
	Factor  int
	Wear    medium.Wear
}

// Gain is how many more updates the group survives compared to rewriting a
// single cell in place.
func (r wearReport) Gain() float64 {
	if r.Wear.Max == 0 {
		return 0
	}

	return float64(r.Updates) / float64(r.Wear.Max)
}

// prometheus renders the report in the Prometheus text exposition format.
func (r wearReport) prometheus(base int) string {
	set := metrics.NewSet()
	label := fmt.Sprintf(`{base="%d",factor="%d"}`, base, r.Factor)

	set.NewCounter("eewear_simulated_updates_total" + label).Set(r.Updates)
	set.NewCounter("eewear_cell_writes_total" + label).Set(r.Wear.Total)
	set.NewCounter("eewear_cell_writes_elided_total" + label).Set(r.Wear.Elided)
	set.NewGauge("eewear_cell_writes_max"+label, func() float64 { return float64(r.Wear.Max) })
	set.NewGauge("eewear_wear_gain"+label, r.Gain)

	var sb strings.Builder

	set.WritePrometheus(&sb)

	return sb.String()
}

func wearCmd(s *session) *Command {
	flags := flag.NewFlagSet("wear", flag.ContinueOnError)
	updates := flags.Uint64P("updates", "n", 1000, "Number of value changes to simulate")
	format := flags.StringP("format", "f", "text", "Output format: text or prometheus")

	return &Command{
		Flags: flags,
		Usage: "wear <base> [flags]",
		Short: "Simulate updates on a copy of the image and report cell wear",
		Long: `Copy the image into memory and apply --updates value changes to the
slot-group at <base>. Reports the physical writes per cell and how many more
updates the group survives than a single cell rewritten in place. The image
itself is not modified.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			err := wantArgs(args, 1)
			if err != nil {
				return err
			}

			if *format != "text" && *format != "prometheus" {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, *format)
			}

			base, err := parseAddr(args[0])
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			report, err := simulateWear(ctx, store, base, *updates)
			if err != nil {
				return err
			}

			if *format == "prometheus" {
				o.Printf("%s", report.prometheus(base))
				return nil
			}

			o.Printf("updates=%d factor=%d\n", report.Updates, report.Factor)
			o.Printf("cell writes: total=%d max=%d at %d\n", report.Wear.Total, report.Wear.Max, report.Wear.MaxAddr)
			o.Printf("in place: %d writes to one cell\n", report.Updates)
			o.Printf("gain: %.1fx\n", report.Gain())

			return nil
		},
		Section: SectionDiagnostics,
	}
}

// simulateWear runs updates on an in-memory copy of the store's medium.
// Each update changes the value, so every one costs a slot advance.
func simulateWear(ctx context.Context, src *eeprom.Store, base int, updates uint64) (wearReport, error) {
	data, err := medium.Snapshot(src.Medium())
	if err != nil {
		return wearReport{}, err
	}

	mem := medium.NewMem(len(data), medium.MemOptions{ElideEqualWrites: true})

	err = mem.Restore(data)
	if err != nil {
		return wearReport{}, err
	}

	store, err := eeprom.New(mem, eeprom.Options{WearLevelFactor: src.WearLevelFactor(), Ops: eeprom.OpsByte})
	if err != nil {
		return wearReport{}, err
	}

	v, err := store.GetByte(base)
	if err != nil {
		return wearReport{}, err
	}

	for i := range updates {
		if i%4096 == 0 && ctx.Err() != nil {
			return wearReport{}, fmt.Errorf("simulation interrupted after %d updates: %w", i, ctx.Err())
		}

		v++

		err = store.SetByte(base, v)
		if err != nil {
			return wearReport{}, err
		}
	}

	return wearReport{
		Updates: updates,
		Factor:  store.WearLevelFactor(),
		Wear:    mem.Wear(base, base+store.GroupSize()),
	}, nil
}
