/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	serial "github.com/svmnotn/native-serial"
	"github.com/svmnotn/native-serial/internal/tui/components"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- Bluetooth serial ports (rfcomm*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filterKind, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filtered := filterPorts(ports, filterKind)

		if len(filtered) == 0 {
			if filterKind != "" && filterKind != "all" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterKind)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(filtered)
		} else {
			renderSimple(filtered)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by attachment kind: usb, bluetooth, pci, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts narrows the port list to the requested attachment kind
func filterPorts(ports []string, filterKind string) []string {
	if filterKind == "" || strings.EqualFold(filterKind, "all") {
		return ports
	}

	var want serial.PortKind
	switch strings.ToLower(filterKind) {
	case "usb":
		want = serial.PortKindUSB
	case "bluetooth":
		want = serial.PortKindBluetooth
	case "pci":
		want = serial.PortKindPCI
	default:
		want = serial.PortKindUnknown
	}

	var filtered []string
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			continue
		}
		if info.Kind == want {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

// renderTable renders the port list with full metadata in a styled table
func renderTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	infos := make([]*serial.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			info = &serial.PortInfo{
				Path:        port,
				Description: fmt.Sprintf("Error: %v", err),
			}
		}
		infos = append(infos, info)
	}

	fmt.Println(components.RenderPortsTable(infos))
}

// renderSimple renders the port list in plain text, one path per line
func renderSimple(ports []string) {
	for _, port := range ports {
		fmt.Println(port)
	}
}
