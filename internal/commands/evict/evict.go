package evict

import (
	"context"
	"log"

	"mediavault/internal/cli"
	"mediavault/internal/client"
)

func Run(ctx context.Context, server string, filenames []string) {
	baseURL, err := client.ResolveBaseURL(server)
	if err != nil {
		log.Fatal(err)
	}

	if err := cli.Evict(ctx, client.New(baseURL), filenames); err != nil {
		log.Fatal(err)
	}
}
