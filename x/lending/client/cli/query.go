package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the lending module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "lending",
		Short:                      "Querying commands for the lending module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryMarket(),
		CmdQueryMarkets(),
		CmdQueryPosition(),
		CmdQueryUserDebt(),
		CmdQueryShareBalance(),
		CmdQueryRate(),
	)

	return cmd
}

// CmdQueryPool returns the command to query the pool ledger
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Query the pool ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pool query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/pool")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryMarket returns the command to query a market
func CmdQueryMarket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market [market-id]",
		Short: "Query a collateral market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Market query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/market/{market_id}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryMarkets returns the command to query all markets
func CmdQueryMarkets() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Query all collateral markets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Markets query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/markets")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPosition returns the command to query a borrower position
func CmdQueryPosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position [market-id] [borrower]",
		Short: "Query a borrower's position in a market",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Position query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/position/{market_id}/{borrower}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUserDebt returns the command to query a borrower's debt breakdown
func CmdQueryUserDebt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debt [market-id] [borrower]",
		Short: "Query a borrower's current debt breakdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Debt query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/debt/{market_id}/{borrower}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryShareBalance returns the command to query a supplier's shares
func CmdQueryShareBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shares [supplier]",
		Short: "Query a supplier's pool share balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Share balance query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/shares/{supplier}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRate returns the command to query the live spread rate
func CmdQueryRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Query the current utilization and spread rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Rate query requires running node connection")
			fmt.Println("Use REST API: GET /creditpool/lending/v1/rate")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
