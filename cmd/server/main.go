package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"worldedit.ai/internal/persistence/history"
	persistlog "worldedit.ai/internal/persistence/log"
	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/protocol"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/edit"
	"worldedit.ai/internal/sim/tuning"
	"worldedit.ai/internal/sim/world/regions"
	"worldedit.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to worldedit.yaml (default: <configs>/worldedit.yaml)")
		seed       = flag.Int64("seed", 0, "world seed override (used only when generating a fresh world)")
		disableDB  = flag.Bool("disable_db", false, "keep undo/redo counters in memory instead of sqlite")
		saveEvery  = flag.Duration("save_every", 5*time.Minute, "periodic world save interval (0 to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "worldedit.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	cats, err := catalogs.Load(filepath.Join(*configDir, "catalogs"))
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", tune.WorldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, counters, err := openRuntimeIndex(worldDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(context.Background(), cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	editLog := persistlog.NewEditLogger(worldDir)
	defer editLog.Close()
	auditors := history.MultiAuditor{editLog}
	if idx != nil {
		auditors = append(auditors, idx)
	}

	worldCodec := snapshot.Codec{FrameImportant: cats.FrameImportant}
	undoCodec := worldCodec
	if tune.LegacySnapshots {
		undoCodec.Format = snapshot.FormatLegacy
	}

	worldPath := filepath.Join(worldDir, "world.dat")
	w, err := loadOrCreateWorld(worldPath, worldCodec, tune, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	hist, err := history.New(history.Options{
		Dir:      filepath.Join(*dataDir, tune.HistoryDir),
		WorldID:  tune.WorldID,
		Retain:   tune.MaxUndoDepth,
		Codec:    undoCodec,
		Counters: counters,
		Auditor:  auditors,
		Logger:   log.New(os.Stdout, "[history] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("history: %v", err)
	}

	rs := regions.FromTuning(tune.Regions)
	editor, err := edit.New(edit.Options{
		World:        w,
		History:      hist,
		Catalogs:     cats,
		Regions:      rs,
		WandLimit:    tune.WandTileLimit,
		DefaultSteps: tune.DefaultUndoSteps,
		Logger:       log.New(os.Stdout, "[edit] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("editor: %v", err)
	}

	save := func() {
		start := time.Now()
		if err := worldCodec.WriteFile(worldPath, editor.Snapshot()); err != nil {
			logger.Printf("save world: %v", err)
			return
		}
		logger.Printf("saved world to %s in %s", worldPath, time.Since(start).Round(time.Millisecond))
	}

	ctx, cancel := signalContext()
	defer cancel()

	if *saveEvery > 0 {
		go func() {
			t := time.NewTicker(*saveEvery)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					save()
				}
			}
		}()
	}

	digests := map[string]string{}
	for cat := catalogs.Tile; cat <= catalogs.Slope; cat++ {
		if t := cats.Table(cat); t != nil {
			digests[cat.String()] = t.Digest
		}
	}
	wsSrv := ws.NewServer(editor, ws.Info{
		WorldID: tune.WorldID,
		Params: protocol.WorldParams{
			Width:         w.Width,
			Height:        w.Height,
			WandTileLimit: tune.WandTileLimit,
			MaxUndoDepth:  tune.MaxUndoDepth,
		},
		Catalogs: digests,
		Regions:  rs.Names(),
	}, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP worldedit_sessions Connected edit sessions.\n")
		fmt.Fprintf(rw, "# TYPE worldedit_sessions gauge\n")
		fmt.Fprintf(rw, "worldedit_sessions{world=%q} %d\n", tune.WorldID, wsSrv.Sessions())
		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP worldedit_index_queue_depth Audit index backlog.\n")
			fmt.Fprintf(rw, "# TYPE worldedit_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "worldedit_index_queue_depth{world=%q} %d\n", tune.WorldID, st.QueueDepth)
			fmt.Fprintf(rw, "# HELP worldedit_index_audit_dropped_total Audit rows dropped because the index fell behind.\n")
			fmt.Fprintf(rw, "# TYPE worldedit_index_audit_dropped_total counter\n")
			fmt.Fprintf(rw, "worldedit_index_audit_dropped_total{world=%q} %d\n", tune.WorldID, st.DropAuditTotal)
		}
	})

	if envBool("WE_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/save", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			if err := worldCodec.WriteFile(worldPath, editor.Snapshot()); err != nil {
				rw.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "path": worldPath})
		})
		mux.HandleFunc("/admin/v1/history", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			actor := r.URL.Query().Get("actor")
			d, err := hist.Depths(r.Context(), actor)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusBadRequest)
				return
			}
			usable, err := hist.Usable(r.Context(), actor)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			files, err := hist.Files(actor)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]any{"actor_id": actor, "depths": d, "usable": usable, "files": files})
		})
	} else {
		logger.Printf("admin endpoints disabled (WE_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("WE_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	save()
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

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
