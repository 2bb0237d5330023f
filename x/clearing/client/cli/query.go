package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the clearing module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "clearing",
		Short:                      "Querying commands for the clearing module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryLiquidations(),
		CmdQueryResolution(),
		CmdQueryHealth(),
	)

	return cmd
}

// CmdQueryLiquidations returns the command to query recent liquidations
func CmdQueryLiquidations() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidations",
		Short: "Query recent liquidations",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Liquidations query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/clearing/v1/liquidations")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryResolution returns the command to query a market's settlement record
func CmdQueryResolution() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolution [market-id]",
		Short: "Query a resolved market's settlement record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Resolution query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/clearing/v1/resolution/{market_id}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryHealth returns the command to query a position's health factor
func CmdQueryHealth() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health [market-id] [borrower]",
		Short: "Query a position's health factor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Health query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/clearing/v1/health/{market_id}/{borrower}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
