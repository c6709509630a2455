package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/api"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
	"github.com/adriaan-vdb/map-my-mind-WebApp/pkg/utils"
)

// Client implements ports.Collaborator by calling a remote map-my-mind API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker(DefaultBreakerConfig("remote-api"), logger),
		logger:  logger,
	}
}

// httpStatusError carries a non-2xx reply.
type httpStatusError struct {
	Status  int
	Type    string
	Message string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperrors.NewInternalError("encode request").WithCause(err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var er apperrors.ErrorResponse
			_ = json.Unmarshal(data, &er)
			if er.Message == "" {
				er.Message = http.StatusText(resp.StatusCode)
			}
			return nil, &httpStatusError{Status: resp.StatusCode, Type: er.Type, Message: er.Message}
		}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, &schemaError{err}
		}
		if err := utils.ValidateStruct(out); err != nil {
			return nil, &schemaError{err}
		}
		return nil, nil
	})
	return c.translate(path, err)
}

type schemaError struct{ err error }

func (e *schemaError) Error() string { return "response does not match schema: " + e.err.Error() }
func (e *schemaError) Unwrap() error { return e.err }

func (c *Client) translate(path string, err error) error {
	if err == nil {
		return nil
	}
	var statusErr *httpStatusError
	var schemaErr *schemaError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusBadRequest && statusErr.Type == string(apperrors.ErrorTypeValidation) {
			return apperrors.NewValidationError(statusErr.Message)
		}
		return apperrors.NewExternalError("remote api", err).WithCode("HTTP_STATUS").
			WithDetails(map[string]any{"status": statusErr.Status, "path": path})
	case errors.As(err, &schemaErr):
		return apperrors.NewExternalError("remote api", err).WithCode("SCHEMA_MISMATCH")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.NewUnavailableError("remote api").WithCause(err)
	}
	c.logger.Warn("Remote API request failed", zap.String("path", path), zap.Error(err))
	return apperrors.NewExternalError("remote api", err).WithCode("TRANSPORT")
}

type generatedMapReply struct {
	Nodes []ports.GeneratedNode `json:"nodes" validate:"required,dive"`
	Edges []ports.GeneratedEdge `json:"edges" validate:"required,dive"`
}

func (c *Client) GenerateMap(ctx context.Context, text string, detailLevel int) (*ports.GeneratedMap, error) {
	var out generatedMapReply
	if err := c.post(ctx, "/api/v1/generate", api.GenerateRequest{Text: text, DetailLevel: detailLevel}, &out); err != nil {
		return nil, err
	}
	return &ports.GeneratedMap{Nodes: out.Nodes, Edges: out.Edges}, nil
}

func (c *Client) SuggestChildren(ctx context.Context, nodeLabel string, detailLevel int) ([]ports.Suggestion, error) {
	var out api.SuggestResponse
	if err := c.post(ctx, "/api/v1/suggest", api.SuggestRequest{NodeLabel: nodeLabel, DetailLevel: detailLevel}, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *Client) GetInsight(ctx context.Context, req ports.InsightRequest) (*ports.Insight, error) {
	var out ports.Insight
	in := api.InsightRequest{Nodes: req.Nodes, Edges: req.Edges, Summaries: req.Summaries, DetailLevel: req.DetailLevel}
	if err := c.post(ctx, "/api/v1/insight", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSemanticClusters(ctx context.Context, nodes []graph.Node, edges []graph.Edge, detailLevel int) ([]ports.Cluster, error) {
	var out api.ClustersResponse
	in := api.ClustersRequest{Nodes: nodes, Edges: edges, DetailLevel: detailLevel}
	if err := c.post(ctx, "/api/v1/clusters", in, &out); err != nil {
		return nil, err
	}
	return out.Clusters, nil
}

var _ ports.Collaborator = (*Client)(nil)
