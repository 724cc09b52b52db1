// Command httplog sends one HTTP request and logs the exchange with secret
// headers masked. The response body goes to stdout, log lines to stderr.
//
//	httplog [-X METHOD] [-H 'Name: value']... [-d BODY] URL
//
// Logging is configured from the environment (see the config package).
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	"cdr.dev/slog/sloggers/slogjson"
	"github.com/spf13/cobra"

	"github.com/coder/httplog"
	"github.com/coder/httplog/buildinfo"
	"github.com/coder/httplog/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		method  string
		data    string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "httplog [flags] URL",
		Short: "Send an HTTP request and log the exchange with secrets masked",
		Long: `httplog sends one HTTP request, writes the response body to stdout and
logs the request and response to stderr. Values of secret headers are masked.

Logging is configured through HTTPLOG_* environment variables, optionally
read from a .env file in the working directory.`,
		Version:       buildinfo.Version(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			req, err := newRequest(cmd.Context(), method, args[0], data, headers)
			if err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			client := httplog.NewClient(cfg.ClientOptions(logger, nil)...)
			defer client.CloseIdleConnections()

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("send request: %w", err)
			}
			defer resp.Body.Close()

			if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
				return fmt.Errorf("read response body: %w", err)
			}
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVarP(&method, "request", "X", "", "request method (default GET, or POST with -d)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header 'Name: value' (repeatable)")
	return cmd
}

func newLogger(cfg config.Config, w io.Writer) slog.Logger {
	sink := sloghuman.Sink(w)
	if cfg.Format == config.FormatJSON {
		sink = slogjson.Sink(w)
	}
	// Lines must pass whatever level they are emitted at.
	return slog.Make(sink).Leveled(slog.LevelDebug)
}

func newRequest(ctx context.Context, method, url, data string, headers []string) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
		if data != "" {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("header %q is not of the form 'Name: value'", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return req, nil
}
