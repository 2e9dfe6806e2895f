// bridgectl is the operator tool of the bridge: it computes claim digests,
// signs them as the attestor and queries a running bridge server.
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"os"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/logconfig"
	"github.com/TEENet-io/erc20-bridge-go/reporter"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Operator tool for the erc20 bridge",
	Long: `bridgectl computes mint and unlock claim digests, signs them with an
attestor key and reads bridge state and vouchers from a bridge server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logconfig.ConfigLoggerByLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "127.0.0.1:8080", "bridge server http address")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info or production")

	rootCmd.AddCommand(mintHashCmd)
	rootCmd.AddCommand(unlockHashCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(vouchersCmd)
	rootCmd.AddCommand(wrappedCmd)
	rootCmd.AddCommand(nativeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newReader(cmd *cobra.Command) (*reporter.HttpReader, error) {
	server, _ := cmd.Flags().GetString("server")
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		return nil, fmt.Errorf("invalid --server %q: %w", server, err)
	}
	return reporter.NewHttpReader(host, port), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// flag parsers, all flags are strings so errors name the flag

func addressFlag(cmd *cobra.Command, name string) (ethcommon.Address, error) {
	s, _ := cmd.Flags().GetString(name)
	if !ethcommon.IsHexAddress(s) {
		return ethcommon.Address{}, fmt.Errorf("invalid --%s %q", name, s)
	}
	return ethcommon.HexToAddress(s), nil
}

func bigFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	s, _ := cmd.Flags().GetString(name)
	v := common.DecStrToBigInt(s)
	if !common.IsUint256(v) {
		return nil, fmt.Errorf("invalid --%s %q", name, s)
	}
	return v, nil
}

func hashFlag(cmd *cobra.Command, name string) (ethcommon.Hash, error) {
	s, _ := cmd.Flags().GetString(name)
	b := common.HexStrToByteSlice(s)
	if len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("invalid --%s %q", name, s)
	}
	return ethcommon.BytesToHash(b), nil
}
