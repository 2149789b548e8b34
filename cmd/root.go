/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	serial "github.com/svmnotn/native-serial"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serial",
	Short: "Asynchronous serial port tool",
	Long: `A command line tool for working with serial devices.

Ports are opened with exclusive access and serviced by background
workers: writes are queued and flushed in order, incoming data is
delivered through observers. Subcommands cover listing and inspecting
ports, listening, sending, interactive sessions, capturing to file and
USB-level device resets.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serial.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".serial" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serial")
	}

	viper.SetEnvPrefix("serial")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// baudFromFlags resolves the baud rate for a command: an explicit flag
// wins, otherwise a "baud" value from the config file or environment
// overrides the built-in default.
func baudFromFlags(cmd *cobra.Command) int {
	if !cmd.Flags().Changed("baud") && viper.IsSet("baud") {
		return viper.GetInt("baud")
	}
	baud, _ := cmd.Flags().GetInt("baud")
	return baud
}

func parseFlowControl(name string) (serial.FlowControl, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return serial.FlowControlNone, nil
	case "software", "xonxoff":
		return serial.FlowControlSoftware, nil
	case "hardware", "rtscts":
		return serial.FlowControlHardware, nil
	default:
		return serial.FlowControlNone, fmt.Errorf("unknown flow control %q (use none, software or hardware)", name)
	}
}
