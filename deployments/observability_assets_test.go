package deployments

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

func TestGrafanaDashboardJSONIsValid(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "grafana", "querybot_dashboard.json")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dashboard file: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("dashboard JSON parse error: %v", err)
	}

	title, _ := decoded["title"].(string)
	if strings.TrimSpace(title) == "" {
		t.Fatal("dashboard title is required")
	}
	panels, ok := decoded["panels"].([]any)
	if !ok || len(panels) == 0 {
		t.Fatal("dashboard must include at least one panel")
	}
}

func TestPrometheusRulesContainExpectedAlerts(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "prometheus", "querybot_rules.yaml")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rules file: %v", err)
	}
	text := string(content)

	requiredAlerts := []string{
		"QueryBotGenerationExhaustedRatioHigh",
		"QueryBotModelFailures",
		"QueryBotExecutionErrorRatioHigh",
		"QueryBotExecutionLatencyP95High",
		"QueryBotHTTPErrorRateHigh",
	}
	for _, alertName := range requiredAlerts {
		if !strings.Contains(text, "alert: "+alertName) {
			t.Fatalf("rules missing alert %q", alertName)
		}
	}
}

func TestPrometheusScrapeExampleContainsMetricsPathAndRules(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "prometheus", "prometheus-scrape.example.yaml")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read scrape example: %v", err)
	}
	text := string(content)

	for _, token := range []string{
		"metrics_path: /v1/metrics",
		"querybot_rules.yaml",
		"querybot_recording_rules.yaml",
		"job_name: querybot-api",
	} {
		if !strings.Contains(text, token) {
			t.Fatalf("scrape example missing %q", token)
		}
	}
}

func TestPrometheusRecordingRulesContainExpectedRecords(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "prometheus", "querybot_recording_rules.yaml")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read recording rules file: %v", err)
	}
	text := string(content)

	requiredRecords := []string{
		"querybot:generation_exhausted_ratio_15m",
		"querybot:generation_failures_15m",
		"querybot:attempts_per_generation_15m",
		"querybot:execution_error_ratio_15m",
		"querybot:execution_latency_ms_p95",
		"querybot:mutations_refused_1h",
		"querybot:http_error_rate_5m",
	}
	for _, recordName := range requiredRecords {
		if !strings.Contains(text, "record: "+recordName) {
			t.Fatalf("recording rules missing record %q", recordName)
		}
	}
}

// Every raw series an asset queries must be registered by the observability package.
func TestAssetsReferenceRegisteredMetrics(t *testing.T) {
	root := repoRoot(t)

	var registered strings.Builder
	for _, name := range []string{"domain_metrics.go", "http.go"} {
		content, err := os.ReadFile(filepath.Join(root, "internal", "observability", name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		registered.Write(content)
	}
	source := registered.String()

	assets := []string{
		filepath.Join("prometheus", "querybot_recording_rules.yaml"),
		filepath.Join("grafana", "querybot_dashboard.json"),
	}
	series := regexp.MustCompile(`querybot_[a-z_]+`)
	for _, asset := range assets {
		content, err := os.ReadFile(filepath.Join(root, "deployments", "observability", asset))
		if err != nil {
			t.Fatalf("read %s: %v", asset, err)
		}
		for _, name := range series.FindAllString(string(content), -1) {
			name = strings.TrimSuffix(name, "_bucket")
			if !strings.Contains(source, `"`+name+`"`) {
				t.Fatalf("%s references unregistered metric %q", asset, name)
			}
		}
	}
}

func TestAlertmanagerExampleContainsSeverityRouting(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "alertmanager", "alertmanager.example.yaml")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read alertmanager example: %v", err)
	}
	text := string(content)

	requiredTokens := []string{
		"receiver: querybot-default",
		"severity=\"critical\"",
		"severity=\"warning\"",
		"name: querybot-critical",
		"name: querybot-warning",
		"inhibit_rules:",
		"group_by: [alertname, service, severity]",
	}
	for _, token := range requiredTokens {
		if !strings.Contains(text, token) {
			t.Fatalf("alertmanager example missing token %q", token)
		}
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), ".."))
}
