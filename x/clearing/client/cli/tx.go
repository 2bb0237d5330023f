package cli

import (
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/creditpool/x/clearing/types"
)

// GetTxCmd returns the transaction commands for the clearing module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "clearing",
		Short:                      "Clearing module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdLiquidate(),
		CmdResolveMarket(),
		CmdClaimLPShare(),
		CmdClaimBorrowerShare(),
	)

	return cmd
}

// CmdLiquidate returns the command to liquidate a position
func CmdLiquidate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidate [market-id] [borrower] [amount]",
		Short: "Liquidate an undercollateralized position (amount 0 repays the close-factor maximum)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgLiquidate{
				Liquidator: clientCtx.GetFromAddress().String(),
				MarketID:   args[0],
				Borrower:   args[1],
				Amount:     args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdResolveMarket returns the command to resolve a matured market
func CmdResolveMarket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [market-id] [redeemed-amount]",
		Short: "Resolve a matured market with its redeemed collateral value (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgResolveMarket{
				Authority:      clientCtx.GetFromAddress().String(),
				MarketID:       args[0],
				RedeemedAmount: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClaimLPShare returns the command to claim a supplier's settlement share
func CmdClaimLPShare() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim-lp [market-id]",
		Short: "Claim your LP share of a resolved market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgClaimLPShare{
				Supplier: clientCtx.GetFromAddress().String(),
				MarketID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClaimBorrowerShare returns the command to claim a borrower's settlement share
func CmdClaimBorrowerShare() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim-borrower [market-id]",
		Short: "Claim your borrower share of a resolved market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgClaimBorrowerShare{
				Borrower: clientCtx.GetFromAddress().String(),
				MarketID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
