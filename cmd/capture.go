/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	serial "github.com/svmnotn/native-serial"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Incoming data is delivered through the device's data observer and
appended directly to the output file. Runs continuously until
interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serial capture /dev/ttyUSB0 data.log
  serial capture /dev/ttyUSB0 output.txt --baud 9600
  serial capture /dev/ttyUSB0 capture.log --console`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		outputPath := args[1]

		flowControl, _ := cmd.Flags().GetString("flow-control")
		showConsole, _ := cmd.Flags().GetBool("console")

		fc, err := parseFlowControl(flowControl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := []serial.Option{
			serial.WithBaudRate(baudFromFlags(cmd)),
			serial.WithFlowControl(fc),
		}

		if err := runCapture(portPath, outputPath, showConsole, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	captureCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, software, hardware")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(portPath, outputPath string, showConsole bool, opts ...serial.Option) error {
	// Open serial port
	dev, err := serial.Open(portPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer dev.Close()

	// Open output file in append mode
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	var bytesWritten atomic.Int64
	failed := make(chan error, 1)

	// The data observer runs on the device worker's dispatcher, so the
	// file write happens off the main goroutine. Blocking delivery means
	// the next chunk is not handed over until this one is on disk.
	dev.OnData(func(data []byte) {
		written, err := file.Write(data)
		if err != nil {
			select {
			case failed <- fmt.Errorf("write error: %w", err):
			default:
			}
			return
		}
		bytesWritten.Add(int64(written))

		if showConsole {
			os.Stdout.Write(data)
		}
	})

	dev.OnError(func(err error) {
		select {
		case failed <- fmt.Errorf("device error: %w", err):
		default:
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", portPath, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()

	select {
	case <-sigChan:
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
	case err := <-failed:
		return err
	}

	// Detach the observer before the deferred Close so the byte count
	// is final
	dev.OnData(nil)

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n",
		bytesWritten.Load(), duration.Round(time.Millisecond))
	return nil
}
