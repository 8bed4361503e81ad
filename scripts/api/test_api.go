// Minimal end-to-end check against a running AgentGPT API.
//
// The provider key may be fake: provider outages degrade into completed tasks,
// so the run still finishes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8000")
	redisURL = getenv("REDIS_URL", "")
	stream   = getenv("EVENT_STREAM", "agentgpt.events")
	apiKey   = getenv("CEREBRAS_API_KEY", "sk-e2e-placeholder")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	checkHealth()

	id := createAgent()
	execute(id)
	checkTasks(id)
	checkSummary(id)
	for _, format := range []string{"json", "csv", "txt"} {
		download(id, format)
	}
	if redisURL != "" {
		checkEvents(context.Background(), id)
	}

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- agents

func checkHealth() {
	var resp struct{ Status string }
	doJSON("GET", "/health", nil, &resp, http.StatusOK)
	if resp.Status != "healthy" {
		log.Fatalf("health: status %q", resp.Status)
	}
}

func createAgent() string {
	var resp struct {
		ID     string
		Status string
	}
	doJSON("POST", "/agents", map[string]any{
		"config": map[string]any{
			"name":           "e2e " + uuid.NewString()[:8],
			"goal":           "the history of the abacus",
			"provider":       "cerebras",
			"model":          "llama3.1-8b",
			"api_key":        apiKey,
			"max_iterations": 2,
			"temperature":    0.3,
		},
	}, &resp, http.StatusOK)
	if resp.ID == "" || resp.Status != "idle" {
		log.Fatalf("create: unexpected response %+v", resp)
	}
	return resp.ID
}

func execute(id string) {
	var resp struct {
		TasksCompleted int    `json:"tasks_completed"`
		TasksFailed    int    `json:"tasks_failed"`
		ExecutionTime  string `json:"execution_time"`
	}
	doJSON("POST", "/agents/"+id+"/execute", nil, &resp, http.StatusOK)
	if resp.TasksCompleted+resp.TasksFailed != 2 {
		log.Fatalf("execute: want 2 settled tasks, got %+v", resp)
	}
}

func checkTasks(id string) {
	var tasks []struct{ Text, Status string }
	doJSON("GET", "/agents/"+id+"/tasks", nil, &tasks, http.StatusOK)
	if len(tasks) != 2 || !strings.HasPrefix(tasks[0].Text, "Research and analyze:") {
		log.Fatalf("tasks: unexpected %+v", tasks)
	}
}

func checkSummary(id string) {
	var summary struct {
		Execution struct {
			TotalTasks int `json:"total_tasks"`
		} `json:"execution_summary"`
	}
	doJSON("GET", "/agents/"+id+"/summary", nil, &summary, http.StatusOK)
	if summary.Execution.TotalTasks != 2 {
		log.Fatalf("summary: total_tasks %d", summary.Execution.TotalTasks)
	}
}

func download(id, format string) {
	res := doReq("GET", "/agents/"+id+"/download/"+format, nil, http.StatusOK)
	defer res.Body.Close()
	disposition := res.Header.Get("Content-Disposition")
	if !strings.HasSuffix(disposition, "."+format) {
		log.Fatalf("download %s: disposition %q", format, disposition)
	}
	body, _ := io.ReadAll(res.Body)
	if len(body) == 0 {
		log.Fatalf("download %s: empty body", format)
	}
}

// ----------------------------- events

func checkEvents(ctx context.Context, id string) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	msgs, err := rdb.XRevRangeN(ctx, stream, "+", "-", 50).Result()
	if err != nil {
		log.Fatalf("redis xrevrange: %v", err)
	}
	for _, m := range msgs {
		if m.Values["agent_id"] == id && m.Values["type"] == "run.completed" {
			return
		}
	}
	log.Fatalf("events: no run.completed for %s on %s", id, stream)
}

// ----------------------------- helpers

func doJSON(method, path string, body, out any, want int) {
	res := doReq(method, path, body, want)
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}

func doReq(method, path string, body any, want int) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if res.StatusCode != want {
		b, _ := io.ReadAll(res.Body)
		res.Body.Close()
		log.Fatalf("%s %s: want %d got %d: %s", method, path, want, res.StatusCode, b)
	}
	return res
}
