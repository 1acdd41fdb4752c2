package push

import (
	"context"
	"log"

	"mediavault/internal/cli"
	"mediavault/internal/client"
)

type Flags struct {
	Server string
}

func Run(ctx context.Context, flags Flags, args []string) {
	baseURL, err := client.ResolveBaseURL(flags.Server)
	if err != nil {
		log.Fatal(err)
	}

	if err := cli.Push(ctx, client.New(baseURL), args); err != nil {
		log.Fatalf("Push failed: %v", err)
	}
}
