package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/server"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 200 * time.Millisecond

func serveCmd() *cobra.Command {
	var addr string
	var watch bool
	var verbose bool
	var background bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live graph view over HTTP and websockets",
		Long: "Hosts one live view. Clients read frames from /ws or /api/state, send pointer\n" +
			"events and commands, and scrape /metrics.",
		Run: func(cmd *cobra.Command, args []string) {
			if running, pid := server.IsRunning(server.PidFile()); running {
				fmt.Printf("  Server already running (PID %d)\n", pid)
				return
			}

			if background {
				exe, _ := os.Executable()
				child := exec.Command(exe, childArgs(os.Args[1:])...)
				detach(child)
				if err := child.Start(); err != nil {
					ui.Bad.Printf("  Failed to start server: %v\n", err)
					os.Exit(1)
				}
				ui.Good.Printf("  %s Server started (PID %d)\n", ui.StatusIcon(true), child.Process.Pid)
				return
			}

			cfg, err := loadConfig()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Serve.Watch = watch
			}
			if verbose {
				cfg.Log.Level = "debug"
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			log := newLogger(cfg)

			pidFile := server.PidFile()
			if err := server.WritePid(pidFile); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			defer server.RemovePid(pidFile)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ds, err := loadDataset(ctx, cfg, log)
			if err != nil {
				ui.Bad.Printf("  Failed to load dataset: %v\n", err)
				return
			}

			l := loop.New(loop.SystemClock{})
			m := server.NewMetrics()
			v, err := newView(l, cfg, log, m)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				return
			}
			srv := server.New(server.Config{Addr: cfg.Serve.Addr, Version: version, Verbose: verbose}, l, v, m, log)
			_ = l.Post(func() { v.Reload(ds) })

			ui.Banner("live view")
			fmt.Printf("  Listening on %s\n", ui.Info.Sprint("http://"+displayAddr(cfg.Serve.Addr)))
			fmt.Println(ui.Subtle.Sprint("  Frames: /ws · State: /api/state · Metrics: /metrics"))
			fmt.Println()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return ignoreCancel(l.Run(ctx, cfg.View.Frame())) })
			g.Go(func() error { return srv.Run(ctx) })
			if cfg.Serve.Watch {
				if src, ok := dataSource(cfg).(dataset.FileSource); ok {
					g.Go(func() error { return ignoreCancel(srv.Watch(ctx, src, watchDebounce)) })
				} else {
					ui.Warn.Printf("  %s --watch needs --students and --tutoring files\n", ui.WarnIcon())
				}
			}
			if err := g.Wait(); err != nil {
				ui.Bad.Printf("  Server error: %v\n", err)
				server.RemovePid(pidFile)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: serve.addr)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload when the dataset files change")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
	cmd.Flags().BoolVarP(&background, "bg", "b", false, "Run in background")

	cmd.AddCommand(
		serveStatusCmd(),
		serveStopCmd(),
	)
	return cmd
}

func serveStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a server is running",
		Run: func(cmd *cobra.Command, args []string) {
			running, pid := server.IsRunning(server.PidFile())
			if !running {
				fmt.Println("  Server is not running")
				fmt.Println("  Start: mentorgraph serve")
				return
			}
			ui.Good.Printf("  %s Server running (PID %d)\n", ui.StatusIcon(true), pid)

			if addr == "" {
				if cfg, err := loadConfig(); err == nil {
					addr = cfg.Serve.Addr
				}
			}
			status, err := fetchStatus(cmd.Context(), "http://"+displayAddr(addr)+"/api/status")
			if err != nil {
				ui.Warn.Printf("  %s No answer on %s: %v\n", ui.WarnIcon(), addr, err)
				return
			}
			fmt.Printf("  Version:     %v\n", status["version"])
			fmt.Printf("  Uptime:      %v\n", status["uptime"])
			fmt.Printf("  Subscribers: %v\n", status["subscribers"])
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Server address (default: serve.addr)")
	return cmd
}

func serveStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background server",
		Run: func(cmd *cobra.Command, args []string) {
			running, pid := server.IsRunning(server.PidFile())
			if !running {
				fmt.Println("  Server is not running")
				return
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				ui.Bad.Printf("  Failed to find process %d: %v\n", pid, err)
				os.Exit(1)
			}
			if err := terminate(proc); err != nil {
				ui.Bad.Printf("  Failed to stop server: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Server stopped (PID %d)\n", ui.StatusIcon(true), pid)
		},
	}
}

func fetchStatus(ctx context.Context, url string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// childArgs drops the background flag so the child serves in the
// foreground.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "--bg", "-b", "--bg=true":
			continue
		}
		out = append(out, a)
	}
	return out
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
