package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/physbot/pkg/engine"
	"github.com/germanamz/physbot/pkg/httpapi"
	"github.com/germanamz/physbot/pkg/mcpserver"
)

var version = "dev"

// globalOpts holds the flags every subcommand accepts.
type globalOpts struct {
	configPath string
	envFile    string
	logLevel   string
	logFile    string
}

func registerGlobalFlags(fs *flag.FlagSet) *globalOpts {
	o := &globalOpts{}
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (default: physbot.yaml if present, else built-in)")
	fs.StringVar(&o.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&o.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "log level: debug, info, warn, error")
	fs.StringVar(&o.logFile, "log-file", "", "append logs to this file")
	return o
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			initCmd := flag.NewFlagSet("init", flag.ExitOnError)
			initCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: physbot init [flags]\n\nCreate a physbot.yaml interactively.\n\nFlags:\n")
				initCmd.PrintDefaults()
			}
			out := initCmd.String("out", defaultConfigFile, "path of the config file to write")
			_ = initCmd.Parse(os.Args[2:])

			exitOnError(runInit(*out))
			return
		case "ask":
			askCmd := flag.NewFlagSet("ask", flag.ExitOnError)
			askCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: physbot ask [flags] <question...>\n\nAnswer one question and exit. Reads stdin when no question is given.\n\nFlags:\n")
				askCmd.PrintDefaults()
			}
			opts := registerGlobalFlags(askCmd)
			_ = askCmd.Parse(os.Args[2:])

			exitOnError(runAsk(opts, askCmd.Args()))
			return
		case "serve":
			serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
			serveCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: physbot serve [flags]\n\nServe the question gate over HTTP.\n\nFlags:\n")
				serveCmd.PrintDefaults()
			}
			opts := registerGlobalFlags(serveCmd)
			addr := serveCmd.String("addr", envOr("PHYSBOT_ADDR", ":8080"), "listen address")
			_ = serveCmd.Parse(os.Args[2:])

			exitOnError(runServe(opts, *addr))
			return
		case "mcp":
			mcpCmd := flag.NewFlagSet("mcp", flag.ExitOnError)
			mcpCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: physbot mcp [flags]\n\nServe the %s tool over MCP on stdio.\n\nFlags:\n", mcpserver.ToolName)
				mcpCmd.PrintDefaults()
			}
			opts := registerGlobalFlags(mcpCmd)
			_ = mcpCmd.Parse(os.Args[2:])

			exitOnError(runMCP(opts))
			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: physbot [flags]\n       physbot <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  init    Create a physbot.yaml interactively\n  ask     Answer one question and exit\n  serve   Serve the question gate over HTTP\n  mcp     Serve the question gate as an MCP tool on stdio\n")
	}

	opts := registerGlobalFlags(flag.CommandLine)
	flag.Parse()

	exitOnError(runTUI(opts))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the environment and configuration and builds the engine.
// Any error means the process must not serve requests. Logs go to logOut
// unless --log-file is set. The returned close func releases the log file.
func bootstrap(opts *globalOpts, logOut io.Writer) (*engine.Engine, *slog.Logger, func(), error) {
	if err := loadDotEnv(opts.envFile); err != nil {
		return nil, nil, nil, err
	}

	closeLog := func() {}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path is a CLI flag
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logOut = f
		closeLog = func() { _ = f.Close() }
	}

	log := newLogger(logOut, opts.logLevel)

	cfg, err := engine.LoadConfig(resolveConfigPath(opts.configPath))
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}

	eng, err := engine.New(cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}

	return eng, log, closeLog, nil
}

func runTUI(opts *globalOpts) error {
	eng, _, closeLog, err := bootstrap(opts, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	initMarkdownRenderer(0)

	_, err = tea.NewProgram(newAppModel(ctx, eng), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func runAsk(opts *globalOpts, args []string) error {
	question := strings.Join(args, " ")
	if question == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read question: %w", err)
		}
		question = string(data)
	}

	eng, _, closeLog, err := bootstrap(opts, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	initMarkdownRenderer(0)

	reply := eng.Handle(ctx, question)
	fmt.Println(renderReply(reply))

	if reply.Outcome == engine.OutcomeFailed {
		return reply.Err
	}
	return nil
}

func runServe(opts *globalOpts, addr string) error {
	eng, log, closeLog, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	srv := httpapi.NewServer(addr, eng, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func runMCP(opts *globalOpts) error {
	eng, _, closeLog, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = mcpserver.New("physbot", version, eng).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
