package cli

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"mediavault/internal/client"

	"golang.org/x/term"
)

type PullFlags struct {
	Out   string
	Range string
}

// Pull downloads filename. With no --out it writes to stdout when stdout is
// redirected, and to ./<filename> when stdout is a terminal. "-" forces stdout.
func Pull(ctx context.Context, c *client.Client, flags PullFlags, filename string) error {
	out := flags.Out
	if out == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			out = filepath.Base(filename)
		} else {
			out = "-"
		}
	}

	var w io.Writer = os.Stdout
	var tmp *os.File
	if out != "-" {
		f, err := os.CreateTemp(filepath.Dir(out), ".mediavault-pull-*")
		if err != nil {
			return err
		}
		defer os.Remove(f.Name()) // ensure cleanup
		defer f.Close()
		tmp, w = f, f
	}

	log.Print("Pulling...")
	res, err := c.Pull(ctx, filename, flags.Range, w)
	if err != nil {
		return err
	}

	if tmp != nil {
		if err := tmp.Close(); err != nil {
			return err
		}
		if err := os.Rename(tmp.Name(), out); err != nil {
			return err
		}
		log.Printf("File downloaded: %s", out)
	}
	if res.ContentRange != "" {
		log.Printf("Received %d bytes (%s, %s)", res.Bytes, res.ContentRange, res.ContentType)
	} else {
		log.Printf("Received %d bytes (%s)", res.Bytes, res.ContentType)
	}
	return nil
}
