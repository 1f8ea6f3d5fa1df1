package main

import (
	"testing"

	"windowcraft.ai/internal/eventlog"
)

func TestFilterAndSummary(t *testing.T) {
	slot := 3
	entries := []eventlog.Entry{
		{Tick: 5, Viewer: "a", WindowID: 1, Event: "OPENED"},
		{Tick: 6, Viewer: "a", WindowID: 1, Event: "CLICK", Slot: &slot, Detail: "LEFT"},
		{Tick: 7, Viewer: "b", WindowID: 2, Event: "CLICK", Error: "window: unknown window"},
		{Tick: 9, Viewer: "a", WindowID: 1, Event: "CLOSE"},
	}
	f := filter{viewer: "a", from: 6}
	s := newSummary()
	for _, e := range entries {
		if f.match(e) {
			s.add(e)
		}
	}
	if s.total != 2 || s.byEvent["CLICK"] != 1 || s.byEvent["CLOSE"] != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.first != 6 || s.last != 9 || len(s.windows) != 1 {
		t.Fatalf("range/windows = %d..%d %d", s.first, s.last, len(s.windows))
	}

	if got := format(entries[1]); got != "tick=6 viewer=a window=1 CLICK slot=3 LEFT" {
		t.Fatalf("format = %q", got)
	}
}
