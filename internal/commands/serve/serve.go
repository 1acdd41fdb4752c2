package serve

import (
	"context"
	"log"

	"mediavault/internal/config"
	"mediavault/internal/server"
)

type Flags struct {
	Port int
}

func Run(ctx context.Context, flags Flags) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if flags.Port != 0 {
		cfg.Port = flags.Port
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	if err := server.Serve(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
