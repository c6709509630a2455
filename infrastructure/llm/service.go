package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	apperrors "github.com/adriaan-vdb/map-my-mind-WebApp/pkg/errors"
)

// Metrics records collaborator calls.
type Metrics interface {
	RecordLLMCall(operation, result string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordLLMCall(string, string, time.Duration) {}

// Service implements ports.Collaborator against a Provider. Responses are
// decoded into typed structs and validated before they are returned.
type Service struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	logger   *zap.Logger
	metrics  Metrics
	tracer   trace.Tracer
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithBreaker(cfg BreakerConfig) ServiceOption {
	return func(s *Service) { s.breaker = newBreaker(cfg, s.logger) }
}

// NewService creates a new LLM service with the specified provider.
func NewService(provider Provider, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		provider: provider,
		timeout:  60 * time.Second,
		logger:   logger,
		metrics:  nopMetrics{},
		tracer:   otel.Tracer("map-my-mind/llm"),
	}
	s.breaker = newBreaker(DefaultBreakerConfig("llm"), logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAvailable returns true if the provider can serve requests.
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// call runs one completion + parse through the breaker. Provider failures
// count against the breaker; schema failures do not.
func (s *Service) call(ctx context.Context, op, prompt string, opts CompletionOptions, parse func(string) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "llm."+op, trace.WithAttributes(
		attribute.String("llm.provider", s.providerName()),
		attribute.Int("llm.prompt_length", len(prompt)),
	))
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.metrics.RecordLLMCall(op, result, time.Since(start))
		span.End()
	}()

	if !s.IsAvailable() {
		return apperrors.NewUnavailableError("llm")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.breaker.Execute(func() (any, error) {
		return s.provider.Complete(ctx, prompt, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperrors.NewUnavailableError("llm").WithCause(err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError("llm." + op)
		}
		s.logger.Warn("LLM provider call failed", zap.String("operation", op), zap.Error(err))
		return apperrors.NewExternalError("llm", err).WithCode("PROVIDER_ERROR")
	}

	response, _ := out.(string)
	if perr := parse(response); perr != nil {
		s.logger.Warn("LLM response rejected",
			zap.String("operation", op),
			zap.Int("response_length", len(response)),
			zap.Error(perr),
		)
		return apperrors.NewExternalError("llm", perr).WithCode("SCHEMA_MISMATCH")
	}
	return nil
}

func (s *Service) providerName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func checkLevel(level int) error {
	if !ports.ValidDetailLevel(level) {
		return apperrors.NewValidationError("detailLevel must be between 1 and 5")
	}
	return nil
}

// GenerateMap turns free text into nodes and edges.
func (s *Service) GenerateMap(ctx context.Context, text string, detailLevel int) (*ports.GeneratedMap, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text is required")
	}
	if err := checkLevel(detailLevel); err != nil {
		return nil, err
	}

	var result *ports.GeneratedMap
	err := s.call(ctx, "generate", buildGeneratePrompt(text, detailLevel),
		CompletionOptions{Temperature: 0.4, MaxTokens: 400 * detailLevel, Format: "json"},
		func(resp string) (perr error) {
			result, perr = parseGenerated(resp)
			return perr
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SuggestChildren proposes child labels for a node.
func (s *Service) SuggestChildren(ctx context.Context, nodeLabel string, detailLevel int) ([]ports.Suggestion, error) {
	if strings.TrimSpace(nodeLabel) == "" {
		return nil, apperrors.NewValidationError("nodeLabel is required")
	}
	if err := checkLevel(detailLevel); err != nil {
		return nil, err
	}

	var result []ports.Suggestion
	err := s.call(ctx, "suggest", buildSuggestPrompt(nodeLabel, detailLevel),
		CompletionOptions{Temperature: 0.7, MaxTokens: 300, Format: "json"},
		func(resp string) (perr error) {
			result, perr = parseSuggestions(resp)
			return perr
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetInsight analyses a map.
func (s *Service) GetInsight(ctx context.Context, req ports.InsightRequest) (*ports.Insight, error) {
	if len(req.Nodes) == 0 {
		return nil, apperrors.NewValidationError("nodes are required")
	}
	if err := checkLevel(req.DetailLevel); err != nil {
		return nil, err
	}

	payload := mapPayload{Nodes: req.Nodes, Edges: req.Edges, Summaries: req.Summaries}
	var result *ports.Insight
	err := s.call(ctx, "insight", buildInsightPrompt(payload, req.DetailLevel),
		CompletionOptions{Temperature: 0.6, MaxTokens: 500, Format: "json"},
		func(resp string) (perr error) {
			result, perr = parseInsight(resp)
			return perr
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSemanticClusters groups node ids by meaning.
func (s *Service) GetSemanticClusters(ctx context.Context, nodes []graph.Node, edges []graph.Edge, detailLevel int) ([]ports.Cluster, error) {
	if len(nodes) == 0 {
		return nil, apperrors.NewValidationError("nodes are required")
	}
	if err := checkLevel(detailLevel); err != nil {
		return nil, err
	}

	var result []ports.Cluster
	err := s.call(ctx, "clusters", buildClustersPrompt(mapPayload{Nodes: nodes, Edges: edges}, detailLevel),
		CompletionOptions{Temperature: 0.3, MaxTokens: 500, Format: "json"},
		func(resp string) (perr error) {
			result, perr = parseClusters(resp)
			return perr
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ ports.Collaborator = (*Service)(nil)
