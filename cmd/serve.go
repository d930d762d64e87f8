package main

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"a11y-checker/internal/analyzer"
	"a11y-checker/internal/models"
	"a11y-checker/internal/report"
)

//go:embed templates/index.html
var indexTemplate string

func newServeCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web form that checks one URL at a time",
		Long: `serve starts an HTTP server with a single form. Each submitted URL is
checked with the same configuration as the CLI. The browser is launched on
the first request and kept for later ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, stdout)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}

type TemplateData struct {
	URL     string
	Error   string
	Results *models.PageHealthReport
}

type server struct {
	orch   *analyzer.Orchestrator
	logger *slog.Logger
	tmpl   *template.Template
}

func newServer(orch *analyzer.Orchestrator, logger *slog.Logger) *server {
	tmpl := template.Must(report.Template().New("index").Parse(indexTemplate))
	return &server{orch: orch, logger: logger, tmpl: tmpl}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

func (s *server) clientError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

func (s *server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	trace := string(debug.Stack())
	s.logger.ErrorContext(r.Context(), "Internal Server Error", slog.Any("error", err), slog.String("trace", trace))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.clientError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	data := TemplateData{}

	if r.Method == http.MethodPost {
		urlToCheck := r.FormValue("url")
		data.URL = urlToCheck
		if err := validateURLs([]string{urlToCheck}); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			data.Error = "Please enter an absolute http or https URL."
		} else if results, err := s.orch.CheckURL(r.Context(), urlToCheck); err != nil {
			s.logger.WarnContext(r.Context(), "Check failed for URL", slog.String("url", urlToCheck), slog.Any("error", err))
			data.Error = "Failed to check the page. The URL might be unreachable or the page never finished loading."
		} else {
			s.logger.InfoContext(r.Context(), "Check successful", slog.String("url", urlToCheck), slog.Int("score", results.Score))
			data.Results = results
		}
	}

	if err := s.tmpl.ExecuteTemplate(w, "index", data); err != nil {
		s.serverError(w, r, err)
	}
}

func runServe(cmd *cobra.Command, stdout io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Output.Verbose {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stdout, opts))

	orch := newOrchestrator(cfg, nil, logger)
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Error("Failed to close browser", slog.Any("error", err))
		}
	}()

	addr, _ := cmd.Flags().GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(orch, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting...", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", slog.Any("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
