/*
PURPOSE:
  HTTP client for the chart model-serving API.
  Handles model listing and single-image inference requests.

REQUIREMENTS:
  User-specified:
  - Invoke inference with a prompt, conversation template and token cap.
  - No retries: a failed call is recorded per image, never repeated.

  Implementation-discovered:
  - Needs http.Client with timeouts.
  - Model loading can dominate the first request; a header timeout separate
    from the generation timeout distinguishes "loading" from "hung".

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - All failures surface as errors to the caller; the runner decides how to
    record them. Server-side errors ({"error": ...}) are errors too.

IMPLEMENTATION RULES:
  - Use net/http.
  - Enforce timeouts.
  - Images travel as base64 in the request body.

USAGE:
  e := engine.New(cfg)
  models, err := e.Models()
  answer, err := e.Infer([]string{"chart.png"}, prompt, "phi", 1024)

RELATED FILES:
  - internal/config/config.go

MAINTENANCE:
  - Update endpoints if the serving API changes (/api/tags, /api/generate).
*/

package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/output"
)

// Engine handles model server interactions.
type Engine struct {
	Config *config.Config
	Client *http.Client
}

// New creates a new Engine.
func New(cfg *config.Config) *Engine {
	// ResponseHeaderTimeout covers the time until the first response byte,
	// which is where server-side model loading happens.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.LoadTimeout

	return &Engine{
		Config: cfg,
		Client: &http.Client{
			Transport: transport,
			// The overall timeout must cover loading + generation.
			Timeout: cfg.LoadTimeout + cfg.InferTimeout,
		},
	}
}

// Models returns the model names the server reports.
func (e *Engine) Models() ([]string, error) {
	resp, err := e.Client.Get(fmt.Sprintf("%s/api/tags", e.Config.ServerURL))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var names []string
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Infer runs one synchronous inference call. imagePaths are read and sent
// base64-encoded; the call may take minutes and is never retried.
func (e *Engine) Infer(imagePaths []string, prompt, convTemplate string, maxNewTokens int) (string, error) {
	images := make([]string, 0, len(imagePaths))
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("failed to read image %s: %w", p, err)
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	payload := map[string]interface{}{
		"model":          e.Config.Model,
		"prompt":         prompt,
		"images":         images,
		"conv_mode":      convTemplate,
		"max_new_tokens": maxNewTokens,
		"stream":         false,
	}
	reqBody, _ := json.Marshal(payload)

	ctx, cancel := context.WithTimeout(context.Background(), e.Config.LoadTimeout+e.Config.InferTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/api/generate", e.Config.ServerURL), bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	output.Logger.Debug("Network: Request Sent. Waiting for model...", "model", e.Config.Model)

	resp, err := e.Client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "awaiting headers") {
			return "", fmt.Errorf("header timeout (model loading?): %w", err)
		}
		return "", fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server error (%s): %s", resp.Status, string(body))
	}

	var data struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		return "", fmt.Errorf("server returned invalid JSON: %w (Body: %s)", err, string(bodyBytes))
	}
	if data.Error != "" {
		return "", fmt.Errorf("server API error: %s", data.Error)
	}

	output.Logger.Debug("Inference complete", "model", e.Config.Model, "duration", time.Since(start))
	return data.Response, nil
}
