package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
	"github.com/calvinalkan/wearlevel/pkg/medium"
)

// demoSettings is a packed three-byte record: two bytes of score, one of level.
type demoSettings struct {
	Score uint16
	Level uint8
}

const demoSize = 64

func demoCmd() *Command {
	flags := flag.NewFlagSet("demo", flag.ContinueOnError)
	factor := flags.IntP("factor", "n", 8, "Wear-level factor for the demo medium")

	return &Command{
		Flags: flags,
		Usage: "demo [flags]",
		Short: "Walk through byte and block updates on a 64-byte medium",
		Long: `Lay out a volume byte and a three-byte settings record on an in-memory
64-byte medium, then initialize, read and update them one step at a time.
The medium is dumped after every step together with the number of physical
cell writes it cost. Does not touch the image.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := wantArgs(args, 0)
			if err != nil {
				return err
			}

			var sb strings.Builder

			err = runDemo(&sb, *factor)
			if err != nil {
				return err
			}

			o.Printf("%s", sb.String())

			return nil
		},
		Section: SectionDiagnostics,
	}
}

func runDemo(sb *strings.Builder, factor int) error {
	// Equal writes are elided like the EEPROM update primitive, so a value
	// that lands on an already erased cell only costs its counter.
	mem := medium.NewMem(demoSize, medium.MemOptions{ElideEqualWrites: true})

	layout := eeprom.NewLayout(factor)
	volumeParam := layout.Byte("volume")
	settingsParam := eeprom.Reserve[demoSettings](layout, "settings")

	err := layout.Fits(mem.Size())
	if err != nil {
		return err
	}

	store, err := eeprom.New(mem, eeprom.Options{WearLevelFactor: factor})
	if err != nil {
		return err
	}

	settings, err := eeprom.NewVar[demoSettings](store, settingsParam.Base)
	if err != nil {
		return err
	}

	for _, p := range layout.Params() {
		fmt.Fprintf(sb, "%-8s base=%-3d bytes=%d\n", p.Name, p.Base, p.Len)
	}

	steps := 0
	written := uint64(0)

	step := func(title string) error {
		total := mem.Wear(0, demoSize).Total
		steps++

		fmt.Fprintf(sb, "\n%d. %s [writes=%d]\n", steps, title, total-written)

		written = total

		return eeprom.Dump(sb, mem, 0, demoSize)
	}

	err = step("erased medium")
	if err != nil {
		return err
	}

	volume, err := store.InitByte(volumeParam.Base, 0x40)
	if err != nil {
		return err
	}

	err = step(fmt.Sprintf("init-byte volume=0x%02X", volume))
	if err != nil {
		return err
	}

	cur := demoSettings{Score: 0x00FD, Level: 0x01}

	err = settings.Init(cur)
	if err != nil {
		return err
	}

	err = step(fmt.Sprintf("init-block settings score=0x%04X level=%d", cur.Score, cur.Level))
	if err != nil {
		return err
	}

	volume, err = store.GetByte(volumeParam.Base)
	if err != nil {
		return err
	}

	cur, err = settings.Get()
	if err != nil {
		return err
	}

	err = step(fmt.Sprintf("read volume=0x%02X score=0x%04X level=%d", volume, cur.Score, cur.Level))
	if err != nil {
		return err
	}

	volume++

	err = store.SetByte(volumeParam.Base, volume)
	if err != nil {
		return err
	}

	err = step(fmt.Sprintf("set-byte volume=0x%02X", volume))
	if err != nil {
		return err
	}

	// 0x00FE, 0x00FF, 0x0100: one byte, one byte landing on an erased cell,
	// then two bytes.
	changed := 0

	for range 3 {
		cur.Score++

		changed, err = settings.Set(cur)
		if err != nil {
			return err
		}

		err = step(fmt.Sprintf("set-block score=0x%04X (%d bytes changed)", cur.Score, changed))
		if err != nil {
			return err
		}
	}

	w := mem.Wear(0, demoSize)
	fmt.Fprintf(sb, "\nphysical writes=%d (%d elided), most worn cell=%d (%d writes)\n", w.Total, w.Elided, w.MaxAddr, w.Max)

	return nil
}
