// Command smoke probes a running assignment API instance and reports the
// status of its read surface. Intended for deploy verification, not load
// testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type probe struct {
	Name     string
	Method   string
	Path     string
	Critical bool
}

type result struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base       string
		scheduleID string
		timeout    time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&scheduleID, "schedule", "", "schedule id for engine probes (optional)")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes := []probe{
		{Name: "health", Method: http.MethodGet, Path: "/health", Critical: true},
		{Name: "ready", Method: http.MethodGet, Path: "/ready", Critical: true},
		{Name: "metrics", Method: http.MethodGet, Path: "/metrics", Critical: false},
	}
	if scheduleID != "" {
		probes = append(probes,
			probe{Name: "categories", Method: http.MethodGet, Path: "/api/v1/schedules/" + scheduleID + "/categories", Critical: true},
			probe{Name: "assignment count", Method: http.MethodGet, Path: "/api/v1/schedules/" + scheduleID + "/assignments/count", Critical: true},
		)
	}

	client := &http.Client{Timeout: timeout}
	var failedCritical int
	for _, p := range probes {
		r := run(client, base, p)
		report(r)
		if r.Probe.Critical && (r.Err != nil || r.Status != http.StatusOK) {
			failedCritical++
		}
	}

	if failedCritical > 0 {
		log.Printf("%d critical probe(s) failed", failedCritical)
		os.Exit(1)
	}
	fmt.Println("all critical probes passed")
}

func run(client *http.Client, base string, p probe) result {
	req, err := http.NewRequest(p.Method, base+p.Path, nil)
	if err != nil {
		return result{Probe: p, Err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return result{Probe: p, Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return result{Probe: p, Status: resp.StatusCode, Duration: time.Since(start)}
}

func report(r result) {
	payload := map[string]interface{}{
		"probe":       r.Probe.Name,
		"path":        r.Probe.Path,
		"duration_ms": r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		payload["error"] = r.Err.Error()
	} else {
		payload["status"] = r.Status
	}
	line, _ := json.Marshal(payload)
	fmt.Println(string(line))
}
