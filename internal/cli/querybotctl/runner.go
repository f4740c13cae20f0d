package querybotctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type call struct {
	method      string
	path        string
	body        any
	needSession bool
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("querybotctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "querybot API base URL")
	sessionID := fs.String("session", defaults.SessionID, "session ID; a new session is created when empty")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	c, code := buildCall(command, fs.Args()[1:], stderr)
	if code != 0 {
		return code
	}

	base := strings.TrimRight(*baseURL, "/")
	session := strings.TrimSpace(*sessionID)
	if c.needSession && session == "" {
		created, err := createSession(ctx, client, base)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "create session: %v\n", err)
			return 1
		}
		session = created
		_, _ = fmt.Fprintf(stderr, "session: %s\n", session)
	}

	status, responseBody, err := doRequest(ctx, client, c.method, base+c.path, session, c.body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if status >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", status, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func buildCall(command string, args []string, stderr io.Writer) (call, int) {
	switch command {
	case "health":
		return call{method: http.MethodGet, path: "/v1/health"}, 0
	case "ready":
		return call{method: http.MethodGet, path: "/v1/ready"}, 0
	case "schema":
		return call{method: http.MethodGet, path: "/v1/schema"}, 0
	case "describe":
		if len(args) != 1 {
			_, _ = fmt.Fprintln(stderr, "usage: querybotctl describe <table>")
			return call{}, 2
		}
		return call{method: http.MethodGet, path: "/v1/schema/tables/" + url.PathEscape(args[0])}, 0
	case "history":
		return call{method: http.MethodGet, path: "/v1/history", needSession: true}, 0
	case "generate":
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			_, _ = fmt.Fprintln(stderr, "usage: querybotctl generate <request>")
			return call{}, 2
		}
		return call{method: http.MethodPost, path: "/v1/generate", body: map[string]any{"request": text}, needSession: true}, 0
	case "classify":
		statement := strings.TrimSpace(strings.Join(args, " "))
		if statement == "" {
			_, _ = fmt.Fprintln(stderr, "usage: querybotctl classify <sql>")
			return call{}, 2
		}
		return call{method: http.MethodPost, path: "/v1/classify", body: map[string]any{"sql": statement}, needSession: true}, 0
	case "run":
		runFlags := flag.NewFlagSet("run", flag.ContinueOnError)
		runFlags.SetOutput(stderr)
		confirm := runFlags.Bool("confirm", false, "confirm a statement that modifies data")
		limit := runFlags.Int("limit", 0, "row bound for read statements (server default when 0)")
		pending := runFlags.Bool("pending", false, "run the session's last generated statement")
		if err := runFlags.Parse(args); err != nil {
			return call{}, 2
		}
		statement := strings.TrimSpace(strings.Join(runFlags.Args(), " "))
		if statement == "" && !*pending {
			_, _ = fmt.Fprintln(stderr, "usage: querybotctl run [-confirm] [-limit n] [-pending] <sql>")
			return call{}, 2
		}
		return call{method: http.MethodPost, path: "/v1/run", body: map[string]any{
			"sql":         statement,
			"confirm":     *confirm,
			"limit":       *limit,
			"use_pending": *pending,
		}, needSession: true}, 0
	case "export":
		exportFlags := flag.NewFlagSet("export", flag.ContinueOnError)
		exportFlags.SetOutput(stderr)
		format := exportFlags.String("format", "csv", "csv or parquet")
		if err := exportFlags.Parse(args); err != nil {
			return call{}, 2
		}
		return call{method: http.MethodPost, path: "/v1/export", body: map[string]any{"format": *format}, needSession: true}, 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return call{}, 2
	}
}

func createSession(ctx context.Context, client *http.Client, base string) (string, error) {
	status, body, err := doRequest(ctx, client, http.MethodPost, base+"/v1/sessions", "", nil)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("http %d: %s", status, strings.TrimSpace(string(body)))
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if created.SessionID == "" {
		return "", fmt.Errorf("server returned empty session id")
	}
	return created.SessionID, nil
}

func doRequest(ctx context.Context, client *http.Client, method, endpoint, sessionID string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(sessionID) != "" {
		req.Header.Set("X-Session-ID", strings.TrimSpace(sessionID))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: querybotctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                          GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                           GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  schema                          GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  describe <table>                GET /v1/schema/tables/{table}")
	_, _ = fmt.Fprintln(w, "  history                         GET /v1/history")
	_, _ = fmt.Fprintln(w, "  generate <request>              POST /v1/generate")
	_, _ = fmt.Fprintln(w, "  classify <sql>                  POST /v1/classify")
	_, _ = fmt.Fprintln(w, "  run [-confirm] [-limit n] <sql> POST /v1/run")
	_, _ = fmt.Fprintln(w, "  export [-format csv|parquet]    POST /v1/export")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
