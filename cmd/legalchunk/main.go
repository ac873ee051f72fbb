// Command legalchunk splits a legal document into article-level chunks and
// writes them as CSV or JSON lines.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/export"
	"github.com/dgallion1/legalchunk/internal/metadata"
	"github.com/dgallion1/legalchunk/internal/parser"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "legalchunk",
		Short: "Chunk legal documents by chapter and article",
		Long: `legalchunk segments statutes and decrees into article-level chunks
sized for retrieval, keeping each chunk traceable to its chapter and
article header.

Supported inputs: DOCX, TXT, MD, HTML, PDF`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(chunkCmd())
	rootCmd.AddCommand(profilesCmd())
	return rootCmd
}

type chunkOptions struct {
	input     string
	meta      string
	out       string
	format    string
	profile   string
	threshold int
	verbose   bool
}

func chunkCmd() *cobra.Command {
	var opts chunkOptions
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Chunk a document and write the rows to a file",
		Long: `Chunk a document and write one row per chunk.

Rows carry content, content_length, chapter and article, followed by the
keys of the optional metadata JSON object.

Example:
  legalchunk chunk --input luat.docx --meta luat.json
  legalchunk chunk -i act.md --profile en --format jsonl -o out/act.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.input == "" {
				return fmt.Errorf("--input flag is required")
			}
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			path, n, err := runChunk(opts, log)
			if err != nil {
				return err
			}
			log.Info("wrote chunks", "count", n, "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input document (.docx, .txt, .md, .html, .pdf)")
	cmd.Flags().StringVarP(&opts.meta, "meta", "m", "", "JSON object whose keys become extra columns")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path (default <input stem>_chunks.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Output format: csv or jsonl")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "vi", "Language profile: vi, en or a YAML profile path")
	cmd.Flags().IntVar(&opts.threshold, "threshold", chunker.Threshold, "Maximum chunk length in characters")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log chapters and articles as they are processed")
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "docx" {
			name = "input"
		}
		return pflag.NormalizedName(name)
	})
	return cmd
}

// runChunk decodes, chunks and exports one document. It returns the output
// path and the number of chunks written.
func runChunk(opts chunkOptions, log *slog.Logger) (string, int, error) {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return "", 0, err
	}
	profile, err := chunker.LookupProfile(opts.profile)
	if err != nil {
		return "", 0, fmt.Errorf("profile: %w", err)
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	paragraphs, err := parser.ParseFile(f, opts.input)
	if err != nil {
		return "", 0, fmt.Errorf("decode %s: %w", opts.input, err)
	}

	meta, err := metadata.Load(opts.meta)
	if err != nil {
		return "", 0, err
	}

	engine := chunker.New(profile,
		chunker.WithThreshold(opts.threshold),
		chunker.WithObserver(chunker.LogObserver{Log: log}),
	)
	chunks, err := engine.Run(paragraphs)
	if err != nil {
		return "", 0, fmt.Errorf("chunk %s: %w", opts.input, err)
	}

	out := opts.out
	if out == "" {
		out = export.DefaultPath(opts.input, format)
	}
	if err := export.WriteFile(out, format, chunks, meta); err != nil {
		return "", 0, err
	}
	return out, len(chunks), nil
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in language profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, p := range chunker.BuiltinProfiles() {
				fmt.Fprintf(w, "%-4s %s / %s  end=%s\n", p.Name, p.ChapterKeyword, p.ArticleKeyword, quoteEmpty(p.EndSentinel))
			}
			return nil
		},
	}
}

func quoteEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return `""`
	}
	return s
}
