package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/creditpool/x/lending/types"
)

// GetTxCmd returns the transaction commands for the lending module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "lending",
		Short:                      "Lending module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdSupply(),
		CmdWithdraw(),
		CmdBorrow(),
		CmdRepay(),
		CmdCreateMarket(),
		CmdPostPrice(),
	)

	return cmd
}

// CmdSupply returns the command to supply base asset to the pool
func CmdSupply() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supply [amount]",
		Short: "Supply base asset to the lending pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSupply{
				Supplier: clientCtx.GetFromAddress().String(),
				Amount:   args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to redeem pool shares
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [shares]",
		Short: "Redeem pool shares for base asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdraw{
				Supplier: clientCtx.GetFromAddress().String(),
				Shares:   args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdBorrow returns the command to borrow against collateral
func CmdBorrow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow [market-id] [collateral] [amount]",
		Short: "Pledge collateral and borrow base asset (amount 0 borrows the maximum)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgBorrow{
				Borrower:   clientCtx.GetFromAddress().String(),
				MarketID:   args[0],
				Collateral: args[1],
				Amount:     args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRepay returns the command to repay debt
func CmdRepay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repay [market-id] [amount]",
		Short: "Repay debt and release collateral pro-rata (amount 0 repays in full)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgRepay{
				Borrower: clientCtx.GetFromAddress().String(),
				MarketID: args[0],
				Amount:   args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCreateMarket returns the command to create a market
func CmdCreateMarket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-market [base-denom] [collateral-denom] [base-decimals] [collateral-decimals]",
		Short: "Create a new collateral market (authority only)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			baseDecimals, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid base decimals: %v", err)
			}
			collateralDecimals, err := strconv.ParseUint(args[3], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid collateral decimals: %v", err)
			}

			msg := &types.MsgCreateMarket{
				Authority:          clientCtx.GetFromAddress().String(),
				BaseDenom:          args[0],
				CollateralDenom:    args[1],
				BaseDecimals:       uint32(baseDecimals),
				CollateralDecimals: uint32(collateralDecimals),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdPostPrice returns the command to post a collateral price
func CmdPostPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post-price [market-id] [price]",
		Short: "Post a collateral price in base asset terms (oracle poster only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgPostPrice{
				Poster:   clientCtx.GetFromAddress().String(),
				MarketID: args[0],
				Price:    args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
