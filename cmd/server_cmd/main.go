package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/erc20-bridge-go/cmd"
	"github.com/TEENet-io/erc20-bridge-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Bridge server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Bridge server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	logconfig.ConfigLoggerByLevel(viper.GetString("LOG_LEVEL"))

	// Make the configuration
	bsc := PrepareBridgeServerConfig()

	fmt.Println("Starting bridge server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartBridgeServerAndWait(bsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareBridgeServerConfig reads configuration variables and returns a BridgeServerConfig.
// Environment variables override the file.
func PrepareBridgeServerConfig() *cmd.BridgeServerConfig {
	viper.SetDefault("ATTESTATION_SCHEME", "ecdsa")
	viper.SetDefault("RELAY_FREQUENCY", "2s")
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("HTTP_PORT", "8080")

	return &cmd.BridgeServerConfig{
		// state side
		DbDir: viper.GetString("DB_DIR"),
		// chains
		NativeChainID: viper.GetString("NATIVE_CHAIN_ID"),
		RemoteChainID: viper.GetString("REMOTE_CHAIN_ID"),
		NativeRpcUrl:  viper.GetString("NATIVE_RPC_URL"),
		EscrowPriv:    viper.GetString("ESCROW_PRIV"),
		// admin & attestation
		OwnerPriv:         viper.GetString("OWNER_PRIV"),
		ValidatorPriv:     viper.GetString("VALIDATOR_PRIV"),
		AttestationScheme: viper.GetString("ATTESTATION_SCHEME"),
		RelayFrequency:    viper.GetDuration("RELAY_FREQUENCY"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
