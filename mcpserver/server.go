// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the execute operation as an MCP tool over
// stdio, so agent frameworks can submit code through the same orchestrator
// the HTTP front end uses. It relies on the mark3labs/mcp-go library for
// the protocol details.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/safexec/safexec/config"
	"github.com/safexec/safexec/executor"
	"github.com/safexec/safexec/outcome"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	exec      executor.Service
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, exec executor.Service) (*MCPServer, error) {
	s := &MCPServer{
		config: cfg,
		logger: logger,
		exec:   exec,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.String("sandbox.runtime", s.config.Sandbox.Runtime),
		zap.String("sandbox.image", s.config.Sandbox.Image),
		zap.Int("sandbox.timeout_sec", s.config.Sandbox.TimeoutSec),
		zap.String("sandbox.memory_limit", s.config.Sandbox.MemoryLimit),
		zap.Int("sandbox.pids_limit", s.config.Sandbox.PidsLimit),
		zap.Int("sandbox.max_code_chars", s.config.Sandbox.MaxCodeChars),
	)

	// Create the MCP server
	s.mcpServer = server.NewMCPServer("safexec", "A safe code execution server")

	// Register the execute_python tool
	s.registerExecutePythonTool()

	return s, nil
}

// registerExecutePythonTool registers the execute_python tool
func (s *MCPServer) registerExecutePythonTool() {
	tool := mcp.Tool{
		Name:        "execute_python",
		Description: "Execute untrusted Python code in a resource- and network-constrained sandbox",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source code to run",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecutePython)
}

// handleExecutePython handles the execute_python tool
func (s *MCPServer) handleExecutePython(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	s.logger.Info("code execution requested", zap.Int("code_len", len(code)))

	result, err := s.exec.Execute(ctx, code)
	if err != nil {
		var verr *executor.ValidationError
		if errors.As(err, &verr) {
			return toolError(verr.Reason), nil
		}
		return nil, err
	}

	s.logger.Info("code execution completed", zap.Stringer("outcome", result.Kind))

	payload := map[string]string{}
	isError := false

	switch result.Kind {
	case outcome.KindSuccess:
		payload["output"] = result.Output
	case outcome.KindProgramError:
		payload["output"] = result.Output
		payload["error"] = result.Message
		isError = true
	case outcome.KindTimeout:
		payload["error"] = fmt.Sprintf("execution timed out after %d seconds", result.TimeoutSeconds)
		isError = true
	default:
		payload["error"] = result.Message
		isError = true
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
		IsError: isError,
	}, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}
