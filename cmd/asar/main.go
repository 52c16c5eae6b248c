// Command asar reads and extracts asar archives.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/asar"
)

var (
	verbose     bool
	unpackedDir string
)

func main() {
	root := &cobra.Command{
		Use:          "asar",
		Short:        "Read and extract asar archives",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&unpackedDir, "unpacked-dir", "", "override the sidecar directory for unpacked files")
	root.AddCommand(extractCmd(), listCmd(), catCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger configures process-wide logging once, at command start.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openArchive(path string) (*asar.Archive, error) {
	opts := []asar.Option{asar.WithLogger(newLogger())}
	if unpackedDir != "" {
		opts = append(opts, asar.WithUnpackedDir(unpackedDir))
	}
	return asar.Open(path, opts...)
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive> <destination>",
		Short: "Extract an archive's file tree to a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Extract(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted %d files (%d bytes) in %d directories",
				stats.FileCount, stats.TotalBytes, stats.DirCount)
			if stats.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", skipped %d unpacked files", stats.Skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive>",
		Short: "List the archive's file entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			for entry := range a.Entries() {
				marker := ""
				if entry.Unpacked {
					marker = " (unpacked)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%10d  %s%s\n", entry.Size, entry.Path, marker)
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <archive> <path>",
		Short: "Write one file's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := a.ReadFile(asar.NormalizePath(args[1]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
}
