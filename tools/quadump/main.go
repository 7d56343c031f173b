// Command quadump parses a .qua map file and prints its normalized
// scroll-speed changes and timing points as tables. Grounded on
// original_source/tools/src/dump-svs.rs, which prints the same data as
// tab-separated lines; here it's rendered with the pack's tablewriter
// dependency instead.
package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/plitki-go/plitki/internal/qua"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: quadump <path-to-.qua>")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	doc, err := qua.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m, err := qua.ToMap(doc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%s — %s [%s]\n\n", doc.Artist, doc.Title, doc.DifficultyName)

	svTable := tablewriter.NewWriter(os.Stdout)
	svTable.SetHeader([]string{"Timestamp (ms)", "Multiplier"})
	svTable.Append([]string{"0 (initial)", fmt.Sprintf("%.3f", m.InitialMultiplier.Float())})
	for _, sv := range m.ScrollSpeedChanges() {
		svTable.Append([]string{
			fmt.Sprintf("%d", sv.Timestamp.T.Millis()),
			fmt.Sprintf("%.3f", sv.Multiplier.Float()),
		})
	}
	svTable.Render()

	fmt.Println()

	tpTable := tablewriter.NewWriter(os.Stdout)
	tpTable.SetHeader([]string{"Timestamp (ms)", "BPM", "Signature"})
	for _, tp := range m.TimingPoints {
		bpm := 0.0
		if tp.BeatDuration.D > 0 {
			bpm = 60000 / float64(tp.BeatDuration.D.Duration().Milliseconds())
		}
		tpTable.Append([]string{
			fmt.Sprintf("%d", tp.Timestamp.T.Millis()),
			fmt.Sprintf("%.2f", bpm),
			fmt.Sprintf("%d/%d", tp.Signature.BeatCount, tp.Signature.BeatUnit),
		})
	}
	tpTable.Render()
}
