package modelserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/pkg/httputil"
	"github.com/wonny/niftyquant/pkg/logger"
)

// Client talks to a TensorFlow-Serving compatible REST endpoint
// ⭐ SSOT: 모델 서버 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new model server client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// predictRequest {"instances": [[[x1], [x2], ...]]} (batch=1, window, feature=1)
type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// Predict runs one forward pass of model on a scaled window
func (c *Client) Predict(ctx context.Context, model string, window []float64) (float64, error) {
	instance := make([][]float64, len(window))
	for i, v := range window {
		instance[i] = []float64{v}
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, model)
	resp, err := c.httpClient.PostJSON(ctx, url, predictRequest{Instances: [][][]float64{instance}})
	if err != nil {
		return 0, fmt.Errorf("model server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", contracts.ErrModelNotAvailable, model)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode predict response: %w", err)
	}
	if len(out.Predictions) != 1 || len(out.Predictions[0]) != 1 {
		return 0, fmt.Errorf("unexpected prediction shape for %s", model)
	}

	v := out.Predictions[0][0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("model %s returned non-finite value", model)
	}
	return v, nil
}

// Predictor binds a Client to one deployed model
type Predictor struct {
	client *Client
	model  string
}

// PredictNext implements contracts.Predictor
func (p *Predictor) PredictNext(ctx context.Context, window []float64) (float64, error) {
	return p.client.Predict(ctx, p.model, window)
}

// Model returns the deployed model name
func (p *Predictor) Model() string {
	return p.model
}
