package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"mediavault/internal/client"
)

// Push uploads every given file, stopping at the first failure.
func Push(ctx context.Context, c *client.Client, files []string) error {
	const (
		colorYellow = "\033[33m"
		colorReset  = "\033[0m"
	)

	if len(files) == 0 {
		return errNoArgs
	}
	for _, f := range files {
		log.Printf("Uploading %s%s%s ...", colorYellow, filepath.Base(f), colorReset)
		if err := c.Push(ctx, f); err != nil {
			return fmt.Errorf("push %s: %w", f, err)
		}
	}
	log.Printf("%d file(s) uploaded", len(files))
	return nil
}
