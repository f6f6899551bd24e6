package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	errSourceRequired  = errors.New("provide either a URL or --file")
	errSourceAmbiguous = errors.New("a URL and --file cannot be used together")
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Analyze a page's source with AI",
		Long: `Analyze the source of a page with a Gemini model and print the result as
JSON. The source is fetched through the relay chain, or read from a file with
--file (use "-" for stdin).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			switch {
			case len(args) == 0 && file == "":
				return errSourceRequired
			case len(args) == 1 && file != "":
				return errSourceAmbiguous
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			log := commandLogger(cmd)

			analyzer, err := a.newAnalyzer(ctx, log)
			if err != nil {
				return err
			}

			var html string
			if file != "" {
				html, err = readSource(cmd, file)
				if err != nil {
					return err
				}
			} else {
				result := a.newFetcher(log).Fetch(ctx, args[0])
				if !result.Success {
					return errors.New(result.Error)
				}
				html = result.Content
			}

			analysis, err := analyzer.Analyze(ctx, html)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		},
	}

	cmd.Flags().StringP("file", "f", "", `Read HTML from a file instead of fetching ("-" for stdin)`)

	return cmd
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening source file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}
