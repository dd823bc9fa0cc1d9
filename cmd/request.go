package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/config"
	"github.com/vedsharma/momentscli/internal/format"
	httpclient "github.com/vedsharma/momentscli/internal/http"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/params"
	"github.com/vedsharma/momentscli/internal/request"
	"github.com/vedsharma/momentscli/internal/session"
	"github.com/vedsharma/momentscli/internal/storage"
	"go.uber.org/zap"
)

var (
	setFlags     []string
	queryFlags   []string
	headerFlags  []string
	bodyFlags    []string
	disableFlags []string
	payloadFlag  string
	noHistory    bool
)

func init() {
	curlCmd := &cobra.Command{
		Use:   "curl <endpoint>",
		Short: "Print the curl command for a request without sending it",
		Args:  cobra.ExactArgs(1),
		Run:   runCurl,
	}
	addRequestFlags(curlCmd)

	runCmd := &cobra.Command{
		Use:   "run <endpoint>",
		Short: "Send a request and print the response",
		Args:  cobra.ExactArgs(1),
		Run:   runExecute,
	}
	addRequestFlags(runCmd)
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")

	payloadCmd := &cobra.Command{
		Use:   "payload <endpoint>",
		Short: "Print the editable JSON view of a request",
		Long: `Print the query parameters and body of a request as one JSON document.

Edit the output and pass it back with --payload @file.`,
		Args: cobra.ExactArgs(1),
		Run:  runPayload,
	}
	addRequestFlags(payloadCmd)

	rootCmd.AddCommand(curlCmd, runCmd, payloadCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&setFlags, "set", []string{}, "Set a schema field: key=value (can be used multiple times)")
	cmd.Flags().StringArrayVar(&queryFlags, "query", []string{}, "Add a query parameter: key=value")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", []string{}, "Add or replace a header: 'Name: value'")
	cmd.Flags().StringArrayVar(&bodyFlags, "body", []string{}, "Add a body field: key=value")
	cmd.Flags().StringArrayVar(&disableFlags, "disable", []string{}, "Leave a schema body field out of the request")
	cmd.Flags().StringVar(&payloadFlag, "payload", "", "JSON view to apply (JSON string or @filename)")
}

// buildOverrides applies the payload first, then the individual flags
func buildOverrides(ep catalog.Endpoint) (*params.Overrides, error) {
	o := params.New()

	if payloadFlag != "" {
		raw := payloadFlag
		if strings.HasPrefix(raw, "@") {
			content, err := readBodyFromFile(strings.TrimPrefix(raw, "@"))
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
			raw = content
		}
		if err := o.ApplyPayload(ep, raw); err != nil {
			return nil, err
		}
	}

	for _, s := range setFlags {
		key, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		if err := o.SetFieldFor(ep, key, value); err != nil {
			return nil, err
		}
	}

	for _, s := range queryFlags {
		key, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		o.Add(params.Query, key, value)
	}

	for _, h := range parseHeaders(headerFlags) {
		o.Add(params.Headers, h[0], h[1])
	}

	for _, s := range bodyFlags {
		key, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		o.Add(params.Body, key, value)
	}

	for _, field := range disableFlags {
		if _, ok := ep.BodyField(field); !ok {
			return nil, fmt.Errorf("%w: %s has no body field %s", params.ErrUnknownField, ep.ID, field)
		}
		o.SetEnabled(field, false)
	}

	return o, nil
}

func parseAssignment(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return key, value, nil
}

// parseHeaders keeps the order the headers were given in
func parseHeaders(headerStrings []string) [][2]string {
	result := make([][2]string, 0, len(headerStrings))
	for _, h := range headerStrings {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result = append(result, [2]string{key, value})
		}
	}
	return result
}

func mustOverrides(ep catalog.Endpoint) *params.Overrides {
	o, err := buildOverrides(ep)
	if err != nil {
		format.PrintError(err.Error())
		os.Exit(1)
	}
	return o
}

func runCurl(cmd *cobra.Command, args []string) {
	ep := mustEndpoint(args[0])
	o := mustOverrides(ep)
	format.PrintCommand(request.CommandText(ep, cfg.APIKey, o))
}

func runPayload(cmd *cobra.Command, args []string) {
	ep := mustEndpoint(args[0])
	o := mustOverrides(ep)
	text, err := o.Payload(ep)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to render payload: %v", err))
		os.Exit(1)
	}
	format.PrintCommand(text)
}

func runExecute(cmd *cobra.Command, args []string) {
	ep := mustEndpoint(args[0])
	o := mustOverrides(ep)
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	resp, err := sendRequest(ctx, httpclient.NewClient(), ep, o)
	stop()
	if err != nil {
		format.PrintError(fmt.Sprintf("Request not sent: %v (use --api-key or %s)", err, config.EnvAPIKey))
		os.Exit(1)
	}

	format.PrintResponse(resp, verbose)
	if resp.TransportFailed() {
		os.Exit(1)
	}
}

var openHistory = storage.NewStorage

// sendRequest executes one request and records it when history is enabled.
// The history store is closed before it returns.
func sendRequest(ctx context.Context, exec session.Executor, ep catalog.Endpoint, o *params.Overrides) (*model.Response, error) {
	var opts []session.Option
	if cfg.History.Enabled && !noHistory {
		store, err := openHistory(cfg.History.Limit)
		if err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, session.WithRecorder(storage.NewRecorder(store)))
		}
	}

	state := session.New(endpoints, exec, opts...)
	return state.Execute(ctx, session.Request{EndpointID: ep.ID, APIKey: cfg.APIKey, Overrides: o})
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	// Get working directory
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !strings.HasPrefix(cleanPath, wd+string(filepath.Separator)) && cleanPath != wd {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// Resolve symlinks and verify the target is also within the working directory
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !strings.HasPrefix(realPath, wd+string(filepath.Separator)) && realPath != wd {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}

	return string(content), nil
}
