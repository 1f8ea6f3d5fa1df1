package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/config"
	"windowcraft.ai/internal/eventlog"
	"windowcraft.ai/internal/layout"
	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/transport/ws"
	"windowcraft.ai/internal/ui/window"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the server config (defaults are used when missing)")
		addr       = flag.String("addr", "", "http listen address (overrides config listen)")
		layoutsDir = flag.String("layouts", "", "layout directory (overrides config layouts_dir)")
		home       = flag.String("home", "menu", "layout opened for every viewer on join")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *layoutsDir != "" {
		cfg.LayoutsDir = *layoutsDir
	}

	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		rot := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		defer rot.Close()
		out = io.MultiWriter(os.Stdout, rot)
	}
	logger := log.New(out, "[server] ", log.LstdFlags|log.Lmicroseconds)

	codec, err := adapter.Select(cfg.Codec)
	if err != nil {
		logger.Fatalf("select codec: %v", err)
	}

	loop := sched.New(cfg.TickRateHz, logger)
	mgr := window.NewManager(logger)

	var trace *eventlog.Trace
	if cfg.Trace.Enabled {
		trace = eventlog.NewTrace(cfg.Trace.Dir)
		defer trace.Close()
	}

	layouts, err := layout.LoadDir(cfg.LayoutsDir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Printf("layouts dir %s not found; using built-in screens", cfg.LayoutsDir)
		layouts, err = builtinLayouts()
	}
	if err != nil {
		logger.Fatalf("load layouts: %v", err)
	}
	logger.Printf("layouts: %s", strings.Join(layout.Names(layouts), ", "))
	if _, ok := layouts[*home]; !ok {
		logger.Fatalf("home layout %q not found", *home)
	}

	h, err := newHub(loop, mgr, layouts, logger)
	if err != nil {
		logger.Fatalf("hub: %v", err)
	}
	opts := ws.Options{
		Codec:      codec,
		Compressed: cfg.CompressPayloads,
		TickRateHz: cfg.TickRateHz,
		MaxQueue:   cfg.Session.MaxQueue,
		ReadLimit:  cfg.Session.ReadLimitBytes,
		OnJoin: func(viewer uuid.UUID, name string) {
			if err := h.open(viewer, *home); err != nil {
				logger.Printf("open %s for %s (%s): %v", *home, viewer, name, err)
			}
		},
	}
	if trace != nil {
		opts.Trace = trace
	}
	srv := ws.NewServer(loop, mgr, logger, opts)
	h.srv = srv

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("loop stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		st, err := snapshotState(r.Context(), loop, mgr, srv)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP windowcraft_tick Current scheduler tick.\n")
		fmt.Fprintf(rw, "# TYPE windowcraft_tick gauge\n")
		fmt.Fprintf(rw, "windowcraft_tick %d\n", st.Tick)

		fmt.Fprintf(rw, "# HELP windowcraft_windows Windows known to the manager.\n")
		fmt.Fprintf(rw, "# TYPE windowcraft_windows gauge\n")
		fmt.Fprintf(rw, "windowcraft_windows %d\n", len(st.Windows))

		fmt.Fprintf(rw, "# HELP windowcraft_viewers Connected viewers.\n")
		fmt.Fprintf(rw, "# TYPE windowcraft_viewers gauge\n")
		fmt.Fprintf(rw, "windowcraft_viewers %d\n", st.Viewers)

		fmt.Fprintf(rw, "# HELP windowcraft_pending_tasks Scheduled tasks waiting to run.\n")
		fmt.Fprintf(rw, "# TYPE windowcraft_pending_tasks gauge\n")
		fmt.Fprintf(rw, "windowcraft_pending_tasks %d\n", st.Pending)
	})

	if envBool("WC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			st, err := snapshotState(r.Context(), loop, mgr, srv)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(st)
		})
	} else {
		logger.Printf("admin endpoints disabled (WC_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("WC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", srv.Handler())

	hs := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = hs.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (codec=%s compressed=%v tick=%dHz)", cfg.Listen, codec.Name(), cfg.CompressPayloads, cfg.TickRateHz)
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

type windowState struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Viewer   string `json:"viewer"`
	Open     bool   `json:"open"`
	Size     int    `json:"size"`
	Closable bool   `json:"closeable"`
}

type serverState struct {
	Tick    uint64        `json:"tick"`
	Viewers int           `json:"viewers"`
	Pending int           `json:"pending_tasks"`
	Windows []windowState `json:"windows"`
}

// snapshotState reads manager state on the loop goroutine.
func snapshotState(ctx context.Context, loop *sched.Scheduler, mgr *window.Manager, srv *ws.Server) (serverState, error) {
	ch := make(chan serverState, 1)
	loop.Submit(func() {
		st := serverState{
			Tick:    loop.CurrentTick(),
			Viewers: len(srv.Viewers()),
			Pending: loop.Pending(),
		}
		for _, w := range mgr.Windows() {
			_, open := w.CurrentViewer()
			st.Windows = append(st.Windows, windowState{
				ID:       w.ID(),
				Title:    w.Title(),
				Viewer:   w.ViewerID().String(),
				Open:     open,
				Size:     w.Size(),
				Closable: w.IsCloseable(),
			})
		}
		ch <- st
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		return serverState{}, ctx.Err()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
