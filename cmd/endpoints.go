package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/format"
)

func init() {
	endpointsCmd := &cobra.Command{
		Use:     "endpoints [id]",
		Aliases: []string{"ls"},
		Short:   "List the available endpoints or show one in detail",
		Args:    cobra.MaximumNArgs(1),
		Run:     runEndpoints,
	}
	rootCmd.AddCommand(endpointsCmd)
}

func runEndpoints(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		format.PrintEndpoints(endpoints.All())
		return
	}
	format.PrintEndpointDetail(mustEndpoint(args[0]))
}
