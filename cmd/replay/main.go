// Command replay walks an interaction trace and prints what viewers did.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"windowcraft.ai/internal/eventlog"
)

func main() {
	var (
		traceDir = flag.String("trace", "./data/trace", "trace dir containing trace-*.jsonl.zst")
		viewer   = flag.String("viewer", "", "only entries for this viewer id (optional)")
		windowID = flag.Uint64("window", 0, "only entries for this window id (optional)")
		fromTick = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		verbose  = flag.Bool("v", false, "print every matching entry")
	)
	flag.Parse()

	files, err := eventlog.ListFiles(*traceDir, "trace")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list trace:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no trace files found in", *traceDir)
		os.Exit(1)
	}

	f := filter{viewer: *viewer, window: *windowID, from: *fromTick, to: *toTick}
	s := newSummary()
	for _, path := range files {
		err := eventlog.ReadFile(path, func(e eventlog.Entry) error {
			if !f.match(e) {
				return nil
			}
			s.add(e)
			if *verbose {
				fmt.Println(format(e))
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	s.print(os.Stdout)
}

type filter struct {
	viewer   string
	window   uint64
	from, to uint64
}

func (f filter) match(e eventlog.Entry) bool {
	switch {
	case f.viewer != "" && e.Viewer != f.viewer:
		return false
	case f.window != 0 && e.WindowID != f.window:
		return false
	case e.Tick < f.from:
		return false
	case f.to != 0 && e.Tick > f.to:
		return false
	}
	return true
}

type summary struct {
	total   int
	errors  int
	byEvent map[string]int
	viewers map[string]struct{}
	windows map[uint64]struct{}
	first   uint64
	last    uint64
}

func newSummary() *summary {
	return &summary{byEvent: map[string]int{}, viewers: map[string]struct{}{}, windows: map[uint64]struct{}{}}
}

func (s *summary) add(e eventlog.Entry) {
	if s.total == 0 || e.Tick < s.first {
		s.first = e.Tick
	}
	if e.Tick > s.last {
		s.last = e.Tick
	}
	s.total++
	s.byEvent[e.Event]++
	s.viewers[e.Viewer] = struct{}{}
	if e.WindowID != 0 {
		s.windows[e.WindowID] = struct{}{}
	}
	if e.Error != "" {
		s.errors++
	}
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintf(w, "entries=%d viewers=%d windows=%d errors=%d ticks=%d..%d\n",
		s.total, len(s.viewers), len(s.windows), s.errors, s.first, s.last)
	events := make([]string, 0, len(s.byEvent))
	for ev := range s.byEvent {
		events = append(events, ev)
	}
	sort.Strings(events)
	for _, ev := range events {
		fmt.Fprintf(w, "  %-15s %d\n", ev, s.byEvent[ev])
	}
}

func format(e eventlog.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d viewer=%s window=%d %s", e.Tick, e.Viewer, e.WindowID, e.Event)
	if e.Slot != nil {
		fmt.Fprintf(&b, " slot=%d", *e.Slot)
	}
	if e.Detail != "" {
		b.WriteString(" " + e.Detail)
	}
	if e.Error != "" {
		b.WriteString(" error=" + e.Error)
	}
	return b.String()
}
