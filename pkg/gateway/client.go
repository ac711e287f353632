// Package gateway provides the client for provisioning graph infrastructure
// through the public RationalBloks MCP gateway.
//
// Graforest is a customer of RationalBloks: it calls the same public API any
// external developer would, authenticated with the Graforest service account
// key. This package is the only place in the codebase that talks to
// RationalBloks.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/graforest-inc/graforest-mcp/pkg/apperrors"
	"github.com/graforest-inc/graforest-mcp/pkg/config"
	"github.com/graforest-inc/graforest-mcp/pkg/logging"
)

// executePath is the single gateway endpoint. Every operation is a tool-call
// envelope posted here.
const executePath = "/api/mcp/execute"

// envelope is the gateway's uniform response shape. A success:false envelope
// is an error regardless of HTTP status.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

// Client talks to the RationalBloks MCP gateway with the Graforest service
// account key. Construct one per outer operation and release it with Close
// on every exit path.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceKey   string
	pollInterval time.Duration
	pollMaxWait  time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *zap.Logger
}

// NewClient creates a gateway client from configuration. It fails when no
// service account key is configured: provisioning is impossible without one.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("%w: set GRAFOREST_RB_API_KEY", apperrors.ErrMissingAPIKey)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		baseURL:      cfg.URL,
		serviceKey:   cfg.ServiceKey,
		pollInterval: cfg.PollInterval(),
		pollMaxWait:  cfg.PollMaxWait(),
		sleep:        sleepContext,
		logger:       logger.Named("gateway"),
	}, nil
}

// Close releases the client's idle connections. Call it on every exit path;
// the client must not be used afterwards.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// execute posts a {tool, arguments} envelope to the gateway and returns the
// raw result. HTTP failures and success:false envelopes both surface as
// errors.
func (c *Client) execute(ctx context.Context, tool string, arguments map[string]any) (json.RawMessage, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{
		"tool":      tool,
		"arguments": arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+executePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call RationalBloks gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("gateway returned error",
			zap.String("tool", tool),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(logging.SanitizeToken(string(body)), logging.MaxBodyLogLength)))
		return nil, fmt.Errorf("gateway returned status %d: %s",
			resp.StatusCode, logging.TruncateString(string(body), logging.MaxBodyLogLength))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrGatewayFailure, msg)
	}
	return env.Result, nil
}

// executeInto runs a tool call and decodes its result into out.
func (c *Client) executeInto(ctx context.Context, tool string, arguments map[string]any, out any) error {
	result, err := c.execute(ctx, tool, arguments)
	if err != nil {
		return err
	}
	if out == nil || len(result) == 0 {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", tool, err)
	}
	return nil
}

// CreateGraphProject creates a new graph project. A nil schema selects the
// default knowledge graph schema.
func (c *Client) CreateGraphProject(ctx context.Context, name string, schema map[string]any, description string) (map[string]any, error) {
	if schema == nil {
		schema = DefaultKnowledgeGraphSchema()
	}
	args := map[string]any{
		"name":   name,
		"schema": schema,
	}
	if description != "" {
		args["description"] = description
	}

	var project map[string]any
	if err := c.executeInto(ctx, "create_graph_project", args, &project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeployGraphStaging requests deployment of a project to staging.
func (c *Client) DeployGraphStaging(ctx context.Context, projectID string) (map[string]any, error) {
	var result map[string]any
	if err := c.executeInto(ctx, "deploy_graph_staging", map[string]any{"project_id": projectID}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetJobStatus fetches the status of a deployment job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (map[string]any, error) {
	var status map[string]any
	if err := c.executeInto(ctx, "get_job_status", map[string]any{"job_id": jobID}, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetGraphProjectInfo fetches detailed info about a graph project.
func (c *Client) GetGraphProjectInfo(ctx context.Context, projectID string) (map[string]any, error) {
	var info map[string]any
	if err := c.executeInto(ctx, "get_graph_project_info", map[string]any{"project_id": projectID}, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetGraphSchema fetches the full graph schema with field-level detail.
func (c *Client) GetGraphSchema(ctx context.Context, projectID string) (map[string]any, error) {
	var schema map[string]any
	if err := c.executeInto(ctx, "get_graph_schema", map[string]any{"project_id": projectID}, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// ListProjects lists all projects under the service account. The gateway has
// returned both a bare list and a {"projects": [...]} wrapper over time, so
// both shapes are accepted.
func (c *Client) ListProjects(ctx context.Context) ([]map[string]any, error) {
	raw, err := c.execute(ctx, "list_projects", nil)
	if err != nil {
		return nil, err
	}

	var projects []map[string]any
	if err := json.Unmarshal(raw, &projects); err == nil {
		return projects, nil
	}

	var wrapped struct {
		Projects []map[string]any `json:"projects"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Projects == nil {
			return []map[string]any{}, nil
		}
		return wrapped.Projects, nil
	}
	return []map[string]any{}, nil
}

// DeleteGraphProject deletes a graph project and all associated resources.
func (c *Client) DeleteGraphProject(ctx context.Context, projectID string) error {
	return c.executeInto(ctx, "delete_graph_project", map[string]any{"project_id": projectID}, nil)
}

// Provision runs the full provisioning workflow:
//
//	CREATING  create the project with the knowledge graph schema
//	DEPLOYING request deployment to staging
//	POLLING   poll the deployment job until a terminal status
//	READY     fetch and return the project info with its Graph API URL
//
// A failed or errored job is fatal immediately. Exceeding the poll ceiling
// raises apperrors.ErrDeployTimeout; the remote job keeps running orphaned
// since there is no cancellation path.
func (c *Client) Provision(ctx context.Context, name, description string) (map[string]any, error) {
	c.logger.Info("provisioning graph project", zap.String("name", name))

	if description == "" {
		description = "Graforest knowledge graph: " + name
	}

	project, err := c.CreateGraphProject(ctx, name, nil, description)
	if err != nil {
		return nil, err
	}
	projectID := ProjectID(project)
	if projectID == "" {
		return nil, fmt.Errorf("create_graph_project returned no project ID: %v", project)
	}
	c.logger.Info("created graph project",
		zap.String("project_id", projectID),
		zap.String("name", name))

	deployResult, err := c.DeployGraphStaging(ctx, projectID)
	if err != nil {
		return nil, err
	}
	jobID, _ := deployResult["job_id"].(string)
	if jobID == "" {
		return nil, fmt.Errorf("deploy_graph_staging returned no job_id: %v", deployResult)
	}
	c.logger.Info("deployment started", zap.String("job_id", jobID))

	if err := c.pollJob(ctx, projectID, jobID); err != nil {
		return nil, err
	}

	info, err := c.GetGraphProjectInfo(ctx, projectID)
	if err != nil {
		return nil, err
	}
	code, _ := info["project_code"].(string)
	if code == "" {
		code = projectID
	}
	c.logger.Info("graph project ready", zap.String("project_code", code))
	return info, nil
}

// pollJob polls a deployment job until it completes, fails, or the wall-clock
// ceiling is reached. The gateway offers no webhook, so polling is the only path.
func (c *Client) pollJob(ctx context.Context, projectID, jobID string) error {
	elapsed := time.Duration(0)
	for elapsed < c.pollMaxWait {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return err
		}
		elapsed += c.pollInterval

		status, err := c.GetJobStatus(ctx, jobID)
		if err != nil {
			return err
		}

		jobStatus, _ := status["status"].(string)
		if jobStatus == "" {
			jobStatus = "unknown"
		}
		c.logger.Debug("deployment job status",
			zap.String("job_id", jobID),
			zap.String("status", jobStatus),
			zap.Duration("elapsed", elapsed))

		switch jobStatus {
		case "completed":
			c.logger.Info("deployment completed",
				zap.String("project_id", projectID),
				zap.Duration("elapsed", elapsed))
			return nil
		case "failed", "error":
			msg, _ := status["error"].(string)
			if msg == "" {
				msg = "Unknown deployment error"
			}
			return fmt.Errorf("%w for %s: %s", apperrors.ErrDeployFailed, projectID, msg)
		}
	}

	return fmt.Errorf("%w after %s for %s", apperrors.ErrDeployTimeout, c.pollMaxWait, projectID)
}

// ProjectID extracts a project's id from a gateway record, accepting either
// the id or project_id field name.
func ProjectID(record map[string]any) string {
	if id, ok := record["id"].(string); ok && id != "" {
		return id
	}
	if id, ok := record["project_id"].(string); ok && id != "" {
		return id
	}
	return ""
}
