// Command shadow_compare replays the dispatch polling endpoints against this
// API and a legacy deployment and reports where their answers diverge.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Admin    bool   `json:"admin"`
	Critical bool   `json:"critical"`
	// ListKey names the field used to order object arrays before comparing.
	ListKey string `json:"list_key"`
}

type config struct {
	Targets []target `json:"targets"`
	Ignore  []string `json:"ignore"`
}

var defaultConfig = config{
	Targets: []target{
		{Method: http.MethodGet, Path: "/api/keepalive_needed", Critical: true},
		{Method: http.MethodGet, Path: "/admin/alerts/feed", Admin: true, Critical: true, ListKey: "key"},
		{Method: http.MethodGet, Path: "/health"},
	},
	Ignore: []string{"now"},
}

type endpoint struct {
	base   string
	header string
	value  string
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase       string
		legacyBase   string
		targetsPath  string
		token        string
		legacyCookie string
		ignore       string
		timeout      time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Dispatch API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy dispatch base URL")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON targets file; built-in polling targets are used when empty")
	flag.StringVar(&token, "token", os.Getenv("DISPATCH_ADMIN_TOKEN"), "Admin bearer token for the dispatch API")
	flag.StringVar(&legacyCookie, "legacy-cookie", os.Getenv("LEGACY_SESSION_COOKIE"), "Session cookie for the legacy admin pages")
	flag.StringVar(&ignore, "ignore", "", "Comma separated JSON keys to drop before comparing")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	cfg, err := loadConfig(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}
	for _, key := range strings.Split(ignore, ",") {
		if key = strings.TrimSpace(key); key != "" {
			cfg.Ignore = append(cfg.Ignore, key)
		}
	}

	client := &http.Client{Timeout: timeout}
	goSide := endpoint{base: goBase}
	if token != "" {
		goSide.header, goSide.value = "Authorization", "Bearer "+token
	}
	legacySide := endpoint{base: legacyBase}
	if legacyCookie != "" {
		legacySide.header, legacySide.value = "Cookie", legacyCookie
	}

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range cfg.Targets {
		comp := compareTarget(client, goSide, legacySide, t, cfg.Ignore)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (config, error) {
	if path == "" {
		return defaultConfig, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config{}, err
	}
	if len(cfg.Targets) == 0 {
		return config{}, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg, nil
}

func compareTarget(client *http.Client, goSide, legacySide endpoint, tgt target, ignore []string) comparison {
	comp := comparison{Target: tgt}
	goStatus, goBody, goDur, goErr := fetch(client, goSide, tgt)
	legacyStatus, legacyBody, legacyDur, legacyErr := fetch(client, legacySide, tgt)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus
	comp.BodyMatch = bodiesEqual(goBody, legacyBody, ignore, tgt.ListKey)
	return comp
}

func fetch(client *http.Client, side endpoint, tgt target) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(side.base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if tgt.Admin && side.header != "" {
		req.Header.Set(side.header, side.value)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore []string, listKey string) bool {
	if len(ignore) == 0 && bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	drop := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		drop[key] = struct{}{}
	}
	aj = normalize(aj, drop, listKey)
	bj = normalize(bj, drop, listKey)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v interface{}, drop map[string]struct{}, listKey string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if _, ok := drop[k]; ok {
				delete(val, k)
				continue
			}
			val[k] = normalize(inner, drop, listKey)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalize(inner, drop, listKey)
		}
		if listKey != "" {
			sort.SliceStable(val, func(i, j int) bool {
				return sortKey(val[i], listKey) < sortKey(val[j], listKey)
			})
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func sortKey(v interface{}, key string) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return fmt.Sprint(obj[key])
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Fprintf(w, "  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
