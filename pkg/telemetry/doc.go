// Package telemetry provides observability instrumentation for segtrain.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring document resolution, experiment assembly, and training runs.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "segtrain"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context
// propagation:
//
//	logger := tel.Logger.NewComponentLogger("resolver")
//	logger = logger.WithRunID("run-123").WithDocument("configs/train.yaml")
//	logger.Info("Resolving configuration document")
//	logger.WithError(err).Error("Resolution failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into resolution, assembly and run flow:
//
//	ctx, span := tel.Tracer.StartResolveSpan(ctx, documentPath)
//	defer span.End()
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), none (testing)
//
// # Metrics
//
// Prometheus metrics track engine behavior:
//
//	tel.Metrics.RecordDocumentResolved("ok", duration)
//	tel.Metrics.RecordTargetBuilt("torch.optim.AdamW", "ok")
//	tel.Metrics.RecordRunStarted("exec")
//	tel.Metrics.RecordRunCompleted("exec", "completed", duration, epochs)
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Run context
//	ctx = telemetry.WithRunContext(ctx, runID, backend)
//	defer telemetry.EndRunContext(ctx, backend, status, epochs, err)
//
//	// Resolve a document under a span
//	err := telemetry.RecordResolveOperation(ctx, path, func(ctx context.Context) error {
//	    resolved, err = config.Resolve(root)
//	    return err
//	})
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (verbose logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling)
//	cfg := telemetry.ProductionConfig()
//
// # Common Metrics
//
// Key metrics exposed:
//
//   - segtrain_documents_resolved_total{status}
//   - segtrain_resolve_duration_seconds{status}
//   - segtrain_references_resolved_total
//   - segtrain_targets_built_total{target,status}
//   - segtrain_build_duration_seconds{status}
//   - segtrain_runs_started_total{backend}
//   - segtrain_runs_completed_total{backend,status}
//   - segtrain_run_duration_seconds{backend,status}
//   - segtrain_resolution_errors_total{kind}
//   - segtrain_instantiation_errors_total{target}
//   - segtrain_active_runs
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending traces:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
package telemetry
