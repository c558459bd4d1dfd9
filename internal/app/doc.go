// Package app wires the level check web service together and runs it.
//
// # Initialization Flow
//
//	1. cmd/web loads configuration and builds the logger
//	2. NewApplication initializes OpenTelemetry and business metrics
//	3. The report and health services are built from config
//	4. Handlers and middleware are mounted on a chi router
//	5. Run serves until SIGINT or SIGTERM
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Serve runs the HTTP server and the shutdown watcher in an errgroup. When
// the context ends, in-flight requests get Server.ShutdownTimeout to finish
// and telemetry providers are flushed.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit.
package app
