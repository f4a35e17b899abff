package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"

	"github.com/mbd888/stellarbeat-mcp/internal/idgen"
	"github.com/mbd888/stellarbeat-mcp/internal/logging"
	"github.com/mbd888/stellarbeat-mcp/internal/metrics"
	"github.com/mbd888/stellarbeat-mcp/internal/monitor"
	"github.com/mbd888/stellarbeat-mcp/internal/stellarbeat"
	"github.com/mbd888/stellarbeat-mcp/internal/traces"
	"github.com/mbd888/stellarbeat-mcp/internal/validation"
	"github.com/mbd888/stellarbeat-mcp/internal/workflow"
)

// Outcome labels for tool call metrics, besides the upstream error kinds.
const (
	outcomeSuccess         = "success"
	outcomeInvalidArgument = "invalid_arguments"
	outcomeError           = "error"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	svc    *monitor.Service
	wf     *workflow.Composer
	logger *slog.Logger
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *monitor.Service, wf *workflow.Composer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handlers{svc: svc, wf: wf, logger: logger, now: time.Now}
}

// toolFunc computes a tool's result. The adapter turns it into the JSON
// payload or the error envelope.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// errorEnvelope is the body of every failed tool result.
type errorEnvelope struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Tool      string `json:"tool"`
	Timestamp string `json:"timestamp"`
}

// Tools returns every tool bound to its handler.
func (h *Handlers) Tools() []server.ServerTool {
	return []server.ServerTool{
		h.bind(ToolGetNetworkStatus, h.getNetworkStatus),
		h.bind(ToolGetNetworkConsensus, h.getNetworkConsensus),
		h.bind(ToolGetNetworkTrends, h.getNetworkTrends),
		h.bind(ToolGetNetworkDecentralization, h.getNetworkDecentralization),
		h.bind(ToolGetNetworkReport, h.getNetworkReport),
		h.bind(ToolSearchNodes, h.searchNodes),
		h.bind(ToolGetNodeDetails, h.getNodeDetails),
		h.bind(ToolCheckNodeHealth, h.checkNodeHealth),
		h.bind(ToolGetNodeUptimeTrend, h.getNodeUptimeTrend),
		h.bind(ToolFindFailingNodes, h.findFailingNodes),
		h.bind(ToolCompareNodes, h.compareNodes),
		h.bind(ToolRankValidators, h.rankValidators),
		h.bind(ToolGetOrganization, h.getOrganization),
		h.bind(ToolSearchOrganizations, h.searchOrganizations),
		h.bind(ToolGetOrganizationReliability, h.getOrganizationReliability),
		h.bind(ToolListOrganizationNodes, h.listOrganizationNodes),
		h.bind(ToolGetOrganizationHistory, h.getOrganizationHistory),
		h.bind(ToolNetworkHealthAudit, h.networkHealthAudit),
		h.bind(ToolNodeDeepDive, h.nodeDeepDive),
		h.bind(ToolOrganizationAudit, h.organizationAudit),
		h.bind(ToolValidatorSelection, h.validatorSelection),
		h.bind(ToolOutageImpactAnalysis, h.outageImpactAnalysis),
	}
}

func (h *Handlers) bind(tool mcp.Tool, fn toolFunc) server.ServerTool {
	return server.ServerTool{Tool: tool, Handler: h.wrap(tool, fn)}
}

// wrap runs one invocation: request id, logger and span in the context,
// schema check, the handler, metrics, and the result or error envelope. The
// returned Go error is always nil.
func (h *Handlers) wrap(tool mcp.Tool, fn toolFunc) server.ToolHandlerFunc {
	schema, schemaErr := json.Marshal(tool.InputSchema)

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		requestID := idgen.WithPrefix("call_")
		ctx = logging.WithLogger(logging.WithRequestID(ctx, requestID), h.logger.With("tool", tool.Name))
		log := logging.L(ctx)

		ctx, span := traces.StartSpan(ctx, "mcp.tool", traces.Tool(tool.Name))
		defer span.End()

		log.Debug("tool call started")

		var (
			out any
			err error
		)
		switch {
		case schemaErr != nil:
			err = fmt.Errorf("encode input schema: %w", schemaErr)
		default:
			if errs := validation.CheckSchema(schema, req.GetArguments()); len(errs) > 0 {
				err = errs
			} else {
				out, err = fn(ctx, req)
			}
		}

		var body []byte
		if err == nil {
			body, err = json.Marshal(out)
			if err != nil {
				err = fmt.Errorf("encode result: %w", err)
			}
		}

		elapsed := time.Since(start)
		if err != nil {
			outcome := outcomeOf(err)
			traces.RecordError(span, err)
			metrics.ObserveToolCall(tool.Name, outcome, elapsed.Seconds())
			log.Warn("tool call failed", "outcome", outcome, "error", err, "duration_ms", elapsed.Milliseconds())
			return h.errorResult(tool.Name, err), nil
		}

		metrics.ObserveToolCall(tool.Name, outcomeSuccess, elapsed.Seconds())
		log.Info("tool call finished", "duration_ms", elapsed.Milliseconds(), "bytes", len(body))
		return mcp.NewToolResultText(string(body)), nil
	}
}

func (h *Handlers) errorResult(tool string, err error) *mcp.CallToolResult {
	env := errorEnvelope{
		Error:     err.Error(),
		Tool:      tool,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if o := outcomeOf(err); o != outcomeError {
		env.Kind = o
	}
	body, mErr := json.Marshal(env)
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(body))
}

func outcomeOf(err error) string {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return outcomeInvalidArgument
	}
	if kind, ok := stellarbeat.KindOf(err); ok {
		return string(kind)
	}
	return outcomeError
}

// Argument helpers.

func optionalTime(req mcp.CallToolRequest, field string) (*time.Time, error) {
	raw := strings.TrimSpace(req.GetString(field, ""))
	if raw == "" {
		return nil, nil
	}
	if errs := validation.Validate(validation.ValidTimestamp(field, raw)); len(errs) > 0 {
		return nil, errs
	}
	t, err := validation.ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func publicKeyArg(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	pk := strings.TrimSpace(req.GetString("public_key", ""))
	if errs := validation.Validate(
		validation.Required("public_key", pk),
		validation.ValidPublicKey("public_key", pk),
	); len(errs) > 0 {
		return "", errs
	}
	trace.SpanFromContext(ctx).SetAttributes(traces.PublicKey(pk))
	return pk, nil
}

func organizationIDArg(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	id := validation.SanitizeString(req.GetString("organization_id", ""), validation.MaxStringLength)
	if errs := validation.Validate(validation.Required("organization_id", id)); len(errs) > 0 {
		return "", errs
	}
	trace.SpanFromContext(ctx).SetAttributes(traces.OrganizationID(id))
	return id, nil
}

// Network handlers.

func (h *Handlers) getNetworkStatus(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.NetworkStatus(ctx, at)
}

func (h *Handlers) getNetworkConsensus(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.NetworkConsensus(ctx, at)
}

func (h *Handlers) getNetworkTrends(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	since, err := optionalTime(req, "since")
	if err != nil {
		return nil, err
	}
	if since == nil {
		return nil, validation.ValidationErrors{{Field: "since", Message: "is required"}}
	}
	until, err := optionalTime(req, "until")
	if err != nil {
		return nil, err
	}
	if until != nil && until.Before(*since) {
		return nil, validation.ValidationErrors{{Field: "until", Message: "must not be before since"}}
	}
	return h.svc.NetworkTrends(ctx, *since, until)
}

func (h *Handlers) getNetworkDecentralization(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.NetworkDecentralization(ctx, at)
}

func (h *Handlers) getNetworkReport(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.NetworkReport(ctx, at)
}

// Node handlers.

func queryArg(req mcp.CallToolRequest) (string, error) {
	q := req.GetString("query", "")
	if errs := validation.Validate(validation.MaxLength("query", q, validation.MaxStringLength)); len(errs) > 0 {
		return "", errs
	}
	return q, nil
}

func (h *Handlers) searchNodes(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	q, err := queryArg(req)
	if err != nil {
		return nil, err
	}
	return h.svc.SearchNodes(ctx, monitor.SearchNodesParams{
		Query:          q,
		Country:        strings.TrimSpace(req.GetString("country", "")),
		OrganizationID: strings.TrimSpace(req.GetString("organization_id", "")),
		ActiveOnly:     req.GetBool("active_only", false),
		ValidatorsOnly: req.GetBool("validators_only", false),
		Limit:          req.GetInt("limit", 0),
		Cursor:         req.GetString("cursor", ""),
	})
}

func (h *Handlers) getNodeDetails(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	pk, err := publicKeyArg(ctx, req)
	if err != nil {
		return nil, err
	}
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.GetNodeDetails(ctx, pk, at)
}

func (h *Handlers) checkNodeHealth(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	pk, err := publicKeyArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.svc.CheckNodeHealth(ctx, pk)
}

func (h *Handlers) getNodeUptimeTrend(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	pk, err := publicKeyArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.svc.NodeUptimeTrend(ctx, pk)
}

func (h *Handlers) findFailingNodes(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.svc.FindFailingNodes(ctx,
		req.GetString("severity", ""),
		req.GetInt("limit", 0),
		req.GetString("cursor", ""),
	)
}

func (h *Handlers) compareNodes(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	keys := req.GetStringSlice("public_keys", nil)
	checks := []func() *validation.ValidationError{validation.MinItems("public_keys", keys, 2)}
	for i, k := range keys {
		keys[i] = strings.TrimSpace(k)
		checks = append(checks, validation.ValidPublicKey(fmt.Sprintf("public_keys[%d]", i), keys[i]))
	}
	if errs := validation.Validate(checks...); len(errs) > 0 {
		return nil, errs
	}
	return h.svc.CompareNodes(ctx, keys)
}

func (h *Handlers) rankValidators(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.svc.RankValidators(ctx,
		req.GetString("sort_by", ""),
		req.GetInt("limit", 0),
		req.GetString("cursor", ""),
	)
}

// Organization handlers.

func (h *Handlers) getOrganization(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := organizationIDArg(ctx, req)
	if err != nil {
		return nil, err
	}
	at, err := optionalTime(req, "at")
	if err != nil {
		return nil, err
	}
	return h.svc.GetOrganization(ctx, id, at)
}

func (h *Handlers) searchOrganizations(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	q, err := queryArg(req)
	if err != nil {
		return nil, err
	}
	return h.svc.SearchOrganizations(ctx, q, req.GetBool("tier_one_only", false))
}

func (h *Handlers) getOrganizationReliability(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := organizationIDArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.svc.OrganizationReliability(ctx, id)
}

func (h *Handlers) listOrganizationNodes(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := organizationIDArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.svc.ListOrganizationNodes(ctx, id, req.GetInt("limit", 0), req.GetString("cursor", ""))
}

func (h *Handlers) getOrganizationHistory(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := organizationIDArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.svc.OrganizationHistory(ctx, id)
}

// Workflow handlers.

func (h *Handlers) networkHealthAudit(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	return h.wf.NetworkHealthAudit(ctx)
}

func (h *Handlers) nodeDeepDive(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	pk, err := publicKeyArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.wf.NodeDeepDive(ctx, pk)
}

func (h *Handlers) organizationAudit(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := organizationIDArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.wf.OrganizationAudit(ctx, id)
}

func (h *Handlers) validatorSelection(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.wf.SelectValidators(ctx, req.GetInt("count", 0), req.GetString("sort_by", ""))
}

func (h *Handlers) outageImpactAnalysis(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.wf.OutageImpactAnalysis(ctx, req.GetString("severity", ""))
}
