// Package main is the entry point for the safexec server.
//
// The safexec server accepts untrusted program text and executes it inside
// a resource- and network-constrained container sandbox with a hard
// wall-clock timeout, returning a classified result. It serves either a
// small HTTP API (with a minimal HTML page) or an MCP stdio transport,
// selected by configuration.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/safexec/safexec/config"
	"github.com/safexec/safexec/executor"
	"github.com/safexec/safexec/httpserver"
	"github.com/safexec/safexec/logger"
	"github.com/safexec/safexec/mcpserver"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Execution orchestrator
			newOrchestrator,

			// Transports
			httpserver.New,
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, httpSrv *httpserver.Server, mcpSrv *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "http":
					go func() {
						if err := httpSrv.Start(); err != nil {
							panic(err)
						}
					}()
				case "stdio":
					go func() {
						if err := mcpSrv.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}

func newOrchestrator(log *zap.Logger, cfg *config.Config) (executor.Service, error) {
	return executor.New(log, cfg)
}
