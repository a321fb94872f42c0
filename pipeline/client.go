package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidlingo/errors"
	"vidlingo/models"
)

// Segment is one transcript span in an extraction result.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	// TextCn is set when the service already embedded a translation.
	TextCn string `json:"textCn,omitempty"`
}

// Translation is one sentence-level translation keyed by start time.
type Translation struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end,omitempty"`
	TextCn string  `json:"textCn"`
}

// ExtractResult is the payload of GET /result/{id}.
type ExtractResult struct {
	Segments []Segment `json:"segments"`
	SrtPath  string    `json:"srt_path,omitempty"`
}

// TaskState is the payload of GET /status/{id}.
type TaskState struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Client talks to the external processing service over HTTP. All endpoints
// answer JSON with an "ok" flag; non-2xx responses and ok=false are both
// surfaced as errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	const op = "PipelineClient.Health"

	var resp struct {
		Ok bool `json:"ok"`
	}
	if err := c.getJSON(ctx, op, "/health", &resp); err != nil {
		return err
	}
	return nil
}

// Extract queues transcript extraction for a video and returns the task id
// to poll.
func (c *Client) Extract(ctx context.Context, videoPath string) (string, error) {
	const op = "PipelineClient.Extract"

	var resp struct {
		Ok     bool   `json:"ok"`
		TaskID string `json:"task_id"`
		Error  string `json:"error,omitempty"`
	}
	payload := map[string]string{"video_path": videoPath}
	if err := c.postJSON(ctx, op, "/extract", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Ok || resp.TaskID == "" {
		return "", errors.Unavailable(op, nil, serviceMessage(resp.Error, "Extraction was rejected"))
	}
	return resp.TaskID, nil
}

func (c *Client) Status(ctx context.Context, taskID string) (*TaskState, error) {
	const op = "PipelineClient.Status"

	var state TaskState
	if err := c.getJSON(ctx, op, "/status/"+taskID, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Result(ctx context.Context, taskID string) (*ExtractResult, error) {
	const op = "PipelineClient.Result"

	var result ExtractResult
	if err := c.getJSON(ctx, op, "/result/"+taskID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Label runs dictionary annotation over a subtitle file. The response is the
// same document shape consumed by vocabulary imports.
func (c *Client) Label(ctx context.Context, srtPath string) (*models.VocabDocument, error) {
	const op = "PipelineClient.Label"

	var doc models.VocabDocument
	payload := map[string]string{"srt_path": srtPath}
	if err := c.postJSON(ctx, op, "/label", payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Translate(ctx context.Context, srtPath, fromLang, toLang string) ([]Translation, error) {
	const op = "PipelineClient.Translate"

	var resp struct {
		Ok           bool          `json:"ok"`
		Translations []Translation `json:"translations"`
		Error        string        `json:"error,omitempty"`
	}
	payload := map[string]string{
		"srt_path":  srtPath,
		"from_lang": fromLang,
		"to_lang":   toLang,
	}
	if err := c.postJSON(ctx, op, "/translate", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, errors.Unavailable(op, nil, serviceMessage(resp.Error, "Translation failed"))
	}
	return resp.Translations, nil
}

// Embed burns a subtitle file into a video and returns the output path.
func (c *Client) Embed(ctx context.Context, videoPath, srtPath string) (string, error) {
	const op = "PipelineClient.Embed"

	var resp struct {
		Ok      bool   `json:"ok"`
		OutPath string `json:"out_path"`
		Error   string `json:"error,omitempty"`
	}
	payload := map[string]string{
		"video_path": videoPath,
		"srt_path":   srtPath,
	}
	if err := c.postJSON(ctx, op, "/embed", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Ok {
		return "", errors.Unavailable(op, nil, serviceMessage(resp.Error, "Subtitle embedding failed"))
	}
	return resp.OutPath, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Internal(op, err, "Failed to build request")
	}
	return c.do(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Internal(op, err, "Failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Internal(op, err, "Failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Unavailable(op, err, "Processing service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Unavailable(op, err, "Failed to read service response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Unavailable(op, nil,
			fmt.Sprintf("Processing service returned %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Unavailable(op, err, "Malformed service response")
	}
	return nil
}

func serviceMessage(serviceErr, fallback string) string {
	if serviceErr != "" {
		return serviceErr
	}
	return fallback
}
