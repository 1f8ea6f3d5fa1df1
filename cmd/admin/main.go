// Command admin inspects a running server and checks layout and config files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/config"
	"windowcraft.ai/internal/layout"
	"windowcraft.ai/internal/ui/gui"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "layouts":
			os.Exit(layoutsCmd(os.Args[2:], os.Stdout, os.Stderr))
		case "config":
			os.Exit(configCmd(os.Args[2:], os.Stdout, os.Stderr))
		case "codecs":
			fmt.Println(strings.Join(adapter.Names(), "\n"))
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin state|layouts|config|codecs [flags]")
	os.Exit(2)
}

// layoutsCmd parses every layout in a directory and prints one line per layout.
func layoutsCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("layouts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "./layouts", "layout directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ls, err := layout.LoadDir(*dir)
	if err != nil {
		fmt.Fprintln(stderr, "layouts:", err)
		return 1
	}
	for _, name := range layout.Names(ls) {
		l := ls[name]
		st, err := gui.ParseStructure(l.Structure...)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 1
		}
		kind := "static"
		if l.Paged != nil {
			kind = "paged"
		}
		fmt.Fprintf(stdout, "%-12s %dx%d %-6s %q\n", name, st.Width(), st.Height(), kind, l.Title)
	}
	return 0
}

// configCmd loads a server config and prints the effective values.
func configCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "config.yaml", "server config path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	if _, ok := adapter.Lookup(cfg.Codec); !ok {
		fmt.Fprintf(stderr, "config: unknown codec %q (have %s)\n", cfg.Codec, strings.Join(adapter.Names(), ", "))
		return 1
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	_ = enc.Close()
	return 0
}
