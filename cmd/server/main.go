package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"hyperion/internal/dispatch"
	"hyperion/internal/portal"
)

func main() {
	investorConfig := flag.String("investors", "investors.json", "path to the investor config file")
	stockConfig := flag.String("stocks", "stocks.json", "path to the stock config file")
	address := flag.String("address", "127.0.0.1", "address to listen on")
	port := flag.Int("port", 50051, "port to listen on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	p, err := portal.New(*investorConfig, *stockConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to initialize portal")
	}

	srv := dispatch.New(*address, *port, p)

	runErr := make(chan error, 1)
	go func() {
		runErr <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil {
			log.Fatal().Err(err).Msg("dispatch server exited")
		}
	}
}
