// Command viewer shows windows served by a windowcraft server in the terminal.
//
// Usage:
//
//	viewer [-url ws://127.0.0.1:8080/v1/ws] [-name alice]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"windowcraft.ai/internal/viewer"
)

func main() {
	var (
		url  = flag.String("url", "ws://127.0.0.1:8080/v1/ws", "server websocket url")
		name = flag.String("name", "", "viewer name (default: $USER)")
	)
	flag.Parse()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "viewer: stdout is not a terminal")
		os.Exit(2)
	}
	if *name == "" {
		*name = os.Getenv("USER")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := viewer.Dial(ctx, *url, *name)
	cancel()
	if err != nil {
		log.Fatalf("connect %s: %v", *url, err)
	}
	defer client.Close()

	p := tea.NewProgram(viewer.NewModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		os.Exit(1)
	}
}
