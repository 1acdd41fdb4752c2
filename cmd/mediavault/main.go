package main

import (
	"context"
	"os"
	"os/signal"

	"mediavault/internal/commands/evict"
	"mediavault/internal/commands/list"
	"mediavault/internal/commands/pull"
	"mediavault/internal/commands/push"
	"mediavault/internal/commands/serve"

	"github.com/spf13/cobra"
)

var server string

var rootCmd = &cobra.Command{
	Use:   "mediavault",
	Short: "Mediavault stores and streams video files.",
	Long:  `Mediavault stores and streams video files. It runs the HTTP server and talks to it from the command line.`,
}

var serveCmdFlags serve.Flags
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server.",
	Long:  `Start the server. Configuration is read from the environment and an optional .env file.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		serve.Run(cmd.Context(), serveCmdFlags)
	},
}

var pushCmd = &cobra.Command{
	Use:   "push [file1] [file2] ...",
	Short: "Upload videos.",
	Long:  `Upload videos. Each file is stored under its base name, replacing any video with the same name.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		push.Run(cmd.Context(), push.Flags{Server: server}, args)
	},
}

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored videos.",
	Long:    `List stored videos with their size, content type and modification time.`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		list.Run(cmd.Context(), server)
	},
}

var pullCmdFlags pull.Flags
var pullCmd = &cobra.Command{
	Use:   "pull [filename]",
	Short: "Download a video.",
	Long:  `Download a video, or part of it with --range.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pullCmdFlags.Server = server
		pull.Run(cmd.Context(), pullCmdFlags, args[0])
	},
}

var evictCmd = &cobra.Command{
	Use:   "evict [filename] ...",
	Short: "Drop videos from the server cache.",
	Long:  `Drop videos from the server cache. Stored files are left untouched.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		evict.Run(cmd.Context(), server, args)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, pushCmd, listCmd, pullCmd, evictCmd)

	rootCmd.PersistentFlags().StringVarP(
		&server, "server", "s", "", "Server base URL (default: $MEDIAVAULT_URL, ~/.mediavault/base_url or http://localhost:3001)",
	)

	// ==============
	// serveCmd flags
	// ==============
	serveCmd.Flags().IntVarP(
		&serveCmdFlags.Port, "port", "p", 0, "Port to listen on, overrides PORT",
	)

	// =============
	// pullCmd flags
	// =============
	pullCmd.Flags().StringVarP(
		&pullCmdFlags.Out, "out", "o", "", "Output file, '-' for stdout",
	)
	pullCmd.Flags().StringVarP(
		&pullCmdFlags.Range, "range", "r", "", "Byte range to request, e.g. 'bytes=0-1023'",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd.ExecuteContext(ctx)
}
