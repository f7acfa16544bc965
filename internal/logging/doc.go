// Package logging provides structured logging for archmetrics runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation, so a batch over hundreds of decomposition documents
// can be filtered afterwards by run, document or metric.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/tmp/archmetrics/run.log", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("batch started", "documents", 42)
//
// An empty path logs to stderr.
//
// # Context Propagation
//
//	runLogger := logger.WithRun("7f9c...")
//	docLogger := runLogger.WithDocument("shop_candidate1.json")
//	docLogger.WithMetric("DCCMD").Debug("metric not available", "reason", "no use-case stories")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"metric not available","run_id":"7f9c...","document":"shop_candidate1.json","metric":"DCCMD","reason":"no use-case stories"}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a buffer to
// assert on entries.
package logging
