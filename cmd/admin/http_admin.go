package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// serverState mirrors the JSON served at /admin/v1/state.
type serverState struct {
	Tick    uint64 `json:"tick"`
	Viewers int    `json:"viewers"`
	Pending int    `json:"pending_tasks"`
	Windows []struct {
		ID        uint64 `json:"id"`
		Title     string `json:"title"`
		Viewer    string `json:"viewer"`
		Open      bool   `json:"open"`
		Size      int    `json:"size"`
		Closeable bool   `json:"closeable"`
	} `json:"windows"`
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the JSON response as is")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/state"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if *raw || resp.StatusCode/100 != 2 {
		fmt.Println(string(b))
		if resp.StatusCode/100 != 2 {
			os.Exit(1)
		}
		return
	}
	var st serverState
	if err := json.Unmarshal(b, &st); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	printState(os.Stdout, st)
}

func printState(w io.Writer, st serverState) {
	fmt.Fprintf(w, "tick=%d viewers=%d windows=%d pending_tasks=%d\n", st.Tick, st.Viewers, len(st.Windows), st.Pending)
	for _, win := range st.Windows {
		flags := ""
		if win.Open {
			flags += "open "
		}
		if !win.Closeable {
			flags += "modal "
		}
		fmt.Fprintf(w, "  #%-5d %-20q size=%-3d viewer=%s %s\n", win.ID, win.Title, win.Size, win.Viewer, strings.TrimSpace(flags))
	}
}
