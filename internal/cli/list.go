package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"mediavault/internal/client"
)

// List prints every stored video.
func List(ctx context.Context, c *client.Client, w io.Writer) error {
	videos, err := c.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSIZE\tTYPE\tMODIFIED")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Filename, v.Size, v.ContentType, v.LastModified.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

var errNoArgs = errors.New("no files given")

// Evict drops the given videos from the server cache.
func Evict(ctx context.Context, c *client.Client, filenames []string) error {
	if len(filenames) == 0 {
		return errNoArgs
	}
	for _, name := range filenames {
		if err := c.Evict(ctx, name); err != nil {
			return fmt.Errorf("evict %s: %w", name, err)
		}
		fmt.Printf("[%s] evicted\n", name)
	}
	return nil
}
