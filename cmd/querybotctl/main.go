package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/querybot/querybot/internal/cli/querybotctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("QUERYBOT_CLI_TIMEOUT")), 60*time.Second)
	options := querybotctl.Options{
		BaseURL:   envOr("QUERYBOT_API_URL", "http://localhost:8080"),
		SessionID: strings.TrimSpace(os.Getenv("QUERYBOT_SESSION_ID")),
		Timeout:   timeout,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	code := querybotctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid QUERYBOT_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
