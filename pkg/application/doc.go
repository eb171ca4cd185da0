// ABOUTME: Application context package shared by the audio subsystem
// ABOUTME: Provides lifecycle, logging, error reporting and asset paths
// Package application provides the Context the audio subsystem reaches
// for cross-cutting services: the log sink, the asynchronous error sink,
// asset path resolution and the shutdown signal.
//
// Example:
//
//	app := application.New(application.Config{
//	    Name:      "livepaper",
//	    AssetsDir: "/usr/share/livepaper",
//	    OnError:   func(err error) { log.Printf("audio: %v", err) },
//	})
//	defer app.Shutdown()
package application
