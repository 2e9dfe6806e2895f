package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/validator"
)

var mintHashCmd = &cobra.Command{
	Use:   "mint-hash",
	Short: "Compute the digest of a mint claim",
	Long:  `Compute the digest a mint claim on --chain-id is signed over, without contacting a server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := bigFlag(cmd, "chain-id")
		if err != nil {
			return err
		}
		recipient, err := addressFlag(cmd, "recipient")
		if err != nil {
			return err
		}
		amount, err := bigFlag(cmd, "amount")
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
		txRef, err := hashFlag(cmd, "tx-ref")
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		symbol, _ := cmd.Flags().GetString("symbol")

		digest := bridge.MintClaimHash(chainID, recipient, amount, nativeToken, nativeChainID, name, symbol, txRef)
		fmt.Fprintln(cmd.OutOrStdout(), digest.Hex())
		return nil
	},
}

var unlockHashCmd = &cobra.Command{
	Use:   "unlock-hash",
	Short: "Compute the digest of an unlock claim",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, err := bigFlag(cmd, "chain-id")
		if err != nil {
			return err
		}
		recipient, err := addressFlag(cmd, "recipient")
		if err != nil {
			return err
		}
		amount, err := bigFlag(cmd, "amount")
		if err != nil {
			return err
		}
		nativeToken, err := addressFlag(cmd, "native-token")
		if err != nil {
			return err
		}
		txRef, err := hashFlag(cmd, "tx-ref")
		if err != nil {
			return err
		}

		digest := bridge.UnlockClaimHash(chainID, recipient, amount, nativeToken, txRef)
		fmt.Fprintln(cmd.OutOrStdout(), digest.Hex())
		return nil
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a claim digest as the attestor",
	Long: `Sign a claim digest with the attestor key. The signature covers the
digest with the Ethereum signed message prefix, as the bridge verifies it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scheme, _ := cmd.Flags().GetString("scheme")
		key, _ := cmd.Flags().GetString("key")
		digest, err := hashFlag(cmd, "digest")
		if err != nil {
			return err
		}

		signer, err := validator.NewSigner(scheme, common.HexStrToByteSlice(key))
		if err != nil {
			return err
		}
		sig, err := signer.Sign(digest)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), common.Prepend0xPrefix(common.ByteSliceToPureHexStr(sig)))
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an attestor key",
	RunE: func(cmd *cobra.Command, args []string) error {
		scheme, _ := cmd.Flags().GetString("scheme")
		key := common.RandBytes(32)
		signer, err := validator.NewSigner(scheme, key)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{
			"scheme":      signer.Scheme(),
			"private_key": common.ByteSliceToPureHexStr(key),
			"public_key":  common.ByteSliceToPureHexStr(signer.PublicKey()),
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{mintHashCmd, unlockHashCmd} {
		c.Flags().String("chain-id", "", "chain id of the bridge processing the claim")
		c.Flags().String("recipient", "", "recipient address")
		c.Flags().String("amount", "", "amount in base units")
		c.Flags().String("native-token", "", "native token address")
		c.Flags().String("tx-ref", "", "reference of the originating lock or burn")
	}
	mintHashCmd.Flags().String("native-chain-id", "", "chain id of the native token")
	mintHashCmd.Flags().String("name", "", "native token name")
	mintHashCmd.Flags().String("symbol", "", "native token symbol")

	signCmd.Flags().String("scheme", bridge.SchemeECDSA, "ecdsa or schnorr")
	signCmd.Flags().String("key", "", "hex private key")
	signCmd.Flags().String("digest", "", "claim digest")
	_ = signCmd.MarkFlagRequired("key")
	_ = signCmd.MarkFlagRequired("digest")

	keygenCmd.Flags().String("scheme", bridge.SchemeECDSA, "ecdsa or schnorr")
}
