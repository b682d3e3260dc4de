package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contentorbit/scheduler"
	"contentorbit/types"
)

// Client talks to the bot's REST API
type Client struct {
	baseURL  string
	password string
	http     *http.Client
}

// NewClient builds an API client for the given base URL
func NewClient(baseURL, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Snapshot is everything one poll cycle collects
type Snapshot struct {
	Stats     types.Stats
	Scheduler scheduler.Status
	Sections  map[string]bool
	Posts     []*types.PublishedPost
	Logs      []*types.LogEntry
}

// FetchSnapshot pulls stats, recent posts and logs in one sweep
func (c *Client) FetchSnapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	var statsResp struct {
		Stats     types.Stats      `json:"stats"`
		Sections  map[string]bool  `json:"sections"`
		Scheduler scheduler.Status `json:"scheduler"`
	}
	if err := c.get("/api/stats", &statsResp); err != nil {
		return nil, err
	}
	snap.Stats = statsResp.Stats
	snap.Sections = statsResp.Sections
	snap.Scheduler = statsResp.Scheduler

	var postsResp struct {
		Posts []*types.PublishedPost `json:"posts"`
	}
	if err := c.get("/api/posts?limit=8", &postsResp); err != nil {
		return nil, err
	}
	snap.Posts = postsResp.Posts

	var logsResp struct {
		Logs []*types.LogEntry `json:"logs"`
	}
	if err := c.get("/api/logs?limit=12", &logsResp); err != nil {
		return nil, err
	}
	snap.Logs = logsResp.Logs
	return snap, nil
}

// RunNow triggers one pipeline cycle
func (c *Client) RunNow() error {
	return c.post("/api/run")
}

// StartScheduler resumes scheduled posting
func (c *Client) StartScheduler() error {
	return c.post("/api/scheduler/start")
}

// StopScheduler pauses scheduled posting
func (c *Client) StopScheduler() error {
	return c.post("/api/scheduler/stop")
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.addAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(path string) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.addAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) addAuth(req *http.Request) {
	if c.password != "" {
		req.Header.Set("X-Dashboard-Password", c.password)
	}
}
