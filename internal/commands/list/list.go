package list

import (
	"context"
	"log"
	"os"

	"mediavault/internal/cli"
	"mediavault/internal/client"
)

func Run(ctx context.Context, server string) {
	baseURL, err := client.ResolveBaseURL(server)
	if err != nil {
		log.Fatal(err)
	}

	if err := cli.List(ctx, client.New(baseURL), os.Stdout); err != nil {
		log.Fatal(err)
	}
}
