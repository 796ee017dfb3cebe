package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/microtonal/tetrachord/server"
	"github.com/microtonal/tetrachord/version"
)

func main() {
	addr := flag.String("addr", ":10000", "Address to listen on.")
	perSecond := flag.Float64("rate", 5, "Requests per second allowed from a single client.")
	burst := flag.Int("burst", 20, "Requests a client may make in a burst before being rate limited.")
	proxies := flag.String("trusted-proxies", "", "Comma separated addresses or CIDR prefixes of reverse proxies whose X-Forwarded-For header identifies the client.")
	debug := flag.Bool("debug", false, "Log rejected requests.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("tetrachord-serve"))
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s := server.New(logger, *perSecond, *burst)
	trusted, err := server.ParseTrustedProxies(*proxies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	s.Limiter.TrustedProxies = trusted
	if err := s.ListenAndServe(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Tetrachord server: derives tetrachords and their fractions over a JSON API.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
