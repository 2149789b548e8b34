/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	serial "github.com/svmnotn/native-serial"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port with configurable options.

This command sends data to the specified serial port. Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serial send /dev/ttyUSB0
- Interactive mode: serial send /dev/ttyUSB0 (prompts for input)

Writes are queued on the device worker and flushed in order before the
port is released, so the command returns once everything has been
handed to the device.

Example usage:
  serial send "Hello World" /dev/ttyUSB0
  serial send "AT+GMR" /dev/ttyUSB0 --newline
  echo "test" | serial send /dev/ttyUSB0
  serial send /dev/ttyUSB0  # Interactive mode`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		// Parse arguments: either "send data port" or "send port"
		if len(args) == 1 {
			portPath = args[0]
			// Check if we have stdin data
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				// No pipe input, use interactive mode
				data = promptForData()
			} else {
				// Read from stdin
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			portPath = args[1]
		}

		// Get flags
		flowControl, _ := cmd.Flags().GetString("flow-control")
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		fc, err := parseFlowControl(flowControl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := []serial.Option{
			serial.WithBaudRate(baudFromFlags(cmd)),
			serial.WithFlowControl(fc),
		}

		// Process data based on flags
		if hexMode {
			processedData, err := parseHexString(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			data = processedData
		}

		if addNewline && !hexMode {
			data += "\n"
		}

		// Send the data
		if err := sendData(portPath, data, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().IntP("baud", "b", 115200, "Baud rate (default: 115200)")
	sendCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, software, hardware (default: none)")
	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

func promptForData() string {
	// Styled prompt
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func parseHexString(hexStr string) (string, error) {
	// Remove common hex prefixes and whitespace
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return "", fmt.Errorf("hex string must have even length")
	}

	var result strings.Builder
	for i := 0; i < len(hexStr); i += 2 {
		hexByte := hexStr[i : i+2]
		var b byte
		if _, err := fmt.Sscanf(hexByte, "%x", &b); err != nil {
			return "", fmt.Errorf("invalid hex byte '%s': %v", hexByte, err)
		}
		result.WriteByte(b)
	}

	return result.String(), nil
}

func sendData(portPath, data string, opts ...serial.Option) error {
	// Styled output
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	// Show connection attempt
	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), portPath)

	// Open serial port
	dev, err := serial.Open(portPath, opts...)
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Connected successfully\n", successStyle.Render("✓"))

	// Surface write failures reported by the worker
	writeErr := make(chan error, 1)
	dev.OnError(func(err error) {
		select {
		case writeErr <- err:
		default:
		}
	})

	// Queue the data
	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	if err := dev.Write([]byte(data)); err != nil {
		dev.Close()
		return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
	}

	// Close flushes the queue before releasing the port
	if err := dev.Close(); err != nil {
		return fmt.Errorf("%s failed to close port: %v", errorStyle.Render("✗"), err)
	}

	select {
	case err := <-writeErr:
		return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
	default:
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), len(data))

	// Show data preview (first 50 chars)
	preview := data
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	// Replace non-printable characters for display
	preview = strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, preview)

	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), preview)

	return nil
}
