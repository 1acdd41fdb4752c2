package pull

import (
	"context"
	"log"

	"mediavault/internal/cli"
	"mediavault/internal/client"
)

type Flags struct {
	Server string
	Out    string
	Range  string
}

func Run(ctx context.Context, flags Flags, filename string) {
	baseURL, err := client.ResolveBaseURL(flags.Server)
	if err != nil {
		log.Fatal(err)
	}

	err = cli.Pull(ctx, client.New(baseURL), cli.PullFlags{Out: flags.Out, Range: flags.Range}, filename)
	if err != nil {
		log.Fatalf("Pull failed: %v", err)
	}
}
