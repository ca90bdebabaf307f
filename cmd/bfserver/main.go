// Command bfserver runs the HTTP/SSE façade over the Brainfuck
// hardware co-execution engine: it loads the pin map and example
// catalogue, starts the hardware thread, and serves the API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/niklas-simon/brainfuck-processing-unit/api"
	"github.com/niklas-simon/brainfuck-processing-unit/hw"
	"github.com/niklas-simon/brainfuck-processing-unit/itp"
)

const shutdownGrace = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bfserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := envOr("BFSERVER_ADDR", ":8000")
	pinFile := envOr("PIN_FILE", "pins.json")
	examplePath := envOr("EXAMPLES_FILE", "examples.json")

	if _, err := itp.LoadExamples(examplePath); err != nil {
		return fmt.Errorf("loading example catalogue: %w", err)
	}

	ports, err := selectPorts(pinFile)
	if err != nil {
		return fmt.Errorf("selecting hardware ports: %w", err)
	}

	global := itp.NewGlobal()
	hwexec := itp.NewHWExec(global, ports)
	apiServer := api.NewServer(global, examplePath)

	staticDir := envOr("STATIC_DIR", "static")

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", apiServer))
	root.Handle("/", http.FileServer(http.Dir(staticDir)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{Addr: addr, Handler: root}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hwexec.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		fmt.Printf("bfserver: listening on %s\n", addr)
		err := httpServer.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// selectPorts chooses the real periph.io-backed driver when the pin
// map loads and the host platform initialises; otherwise it falls
// back to the in-process mock so the server stays runnable in CI and
// on a developer's laptop.
func selectPorts(pinFile string) (hw.Ports, error) {
	pm, err := hw.LoadPinMap(pinFile)
	if err != nil {
		fmt.Printf("bfserver: %v; using mock hardware\n", err)
		return hw.NewMock().Ports(), nil
	}
	if err := hw.InitHost(); err != nil {
		fmt.Printf("bfserver: %v; using mock hardware\n", err)
		return hw.NewMock().Ports(), nil
	}
	rpi, err := hw.NewRPi(pm)
	if err != nil {
		fmt.Printf("bfserver: %v; using mock hardware\n", err)
		return hw.NewMock().Ports(), nil
	}
	return rpi.Ports(), nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
