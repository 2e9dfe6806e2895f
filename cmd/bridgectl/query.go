package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vouchersCmd = &cobra.Command{
	Use:   "vouchers",
	Short: "List the vouchers issued to a recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, err := addressFlag(cmd, "recipient")
		if err != nil {
			return err
		}
		reader, err := newReader(cmd)
		if err != nil {
			return err
		}
		vouchers, err := reader.GetVouchers(recipient)
		if err != nil {
			return err
		}
		return printJSON(cmd, vouchers)
	},
}

var wrappedCmd = &cobra.Command{
	Use:   "wrapped",
	Short: "Look up the wrapped token of a native token",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := bigFlag(cmd, "chain-id")
		if err != nil {
			return err
		}
		nativeToken, err := addressFlag(cmd, "native-token")
		if err != nil {
			return err
		}
		nativeChainID, err := bigFlag(cmd, "native-chain-id")
		if err != nil {
			return err
		}
		reader, err := newReader(cmd)
		if err != nil {
			return err
		}
		wrapped, err := reader.GetWrapped(chainID, nativeToken, nativeChainID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), wrapped.Hex())
		return nil
	},
}

var nativeCmd = &cobra.Command{
	Use:   "native",
	Short: "Look up the native token behind a wrapped token",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := bigFlag(cmd, "chain-id")
		if err != nil {
			return err
		}
		wrapped, err := addressFlag(cmd, "wrapped-token")
		if err != nil {
			return err
		}
		reader, err := newReader(cmd)
		if err != nil {
			return err
		}
		token, nativeChainID, err := reader.GetNative(chainID, wrapped)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{
			"native_token":    token.Hex(),
			"native_chain_id": nativeChainID.String(),
		})
	},
}

func init() {
	vouchersCmd.Flags().String("recipient", "", "recipient address")

	wrappedCmd.Flags().String("chain-id", "", "chain id of the bridge holding the wrapped token")
	wrappedCmd.Flags().String("native-token", "", "native token address")
	wrappedCmd.Flags().String("native-chain-id", "", "chain id of the native token")

	nativeCmd.Flags().String("chain-id", "", "chain id of the bridge holding the wrapped token")
	nativeCmd.Flags().String("wrapped-token", "", "wrapped token address")
}
