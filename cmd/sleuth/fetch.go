package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "Print the raw source of a page",
		Long: `Fetch the raw source of a page through the relay chain and print it to
stdout. A URL without a scheme is fetched over https.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			result := a.newFetcher(commandLogger(cmd)).Fetch(ctx, args[0])
			if !result.Success {
				return errors.New(result.Error)
			}

			_, err := fmt.Fprint(cmd.OutOrStdout(), result.Content)
			return err
		},
	}
}
