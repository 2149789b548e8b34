/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	serial "github.com/svmnotn/native-serial"
	"github.com/svmnotn/native-serial/internal/tui/components"
	"github.com/svmnotn/native-serial/internal/tui/keys"
	"github.com/svmnotn/native-serial/internal/tui/models"
	"github.com/svmnotn/native-serial/internal/tui/styles"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Listen for data on a serial port with real-time display",
	Long: `Listen for incoming data on a serial port with a real-time TUI display.

This command opens the specified serial port and displays incoming data in
real-time using a terminal user interface. Data arrives through the device's
data observer, so no polling loop runs in the UI. Features include:
- Real-time data streaming with timestamps
- ASCII and hex display modes
- Connection status indicators
- Configurable baud rate and flow control
- Clean, responsive interface

Example usage:
  serial listen /dev/ttyUSB0
  serial listen /dev/ttyUSB0 --baud 9600
  serial listen /dev/ttyUSB0 --flow-control hardware`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		flowControl, _ := cmd.Flags().GetString("flow-control")
		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")

		fc, err := parseFlowControl(flowControl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := []serial.Option{
			serial.WithBaudRate(baudFromFlags(cmd)),
			serial.WithFlowControl(fc),
		}

		if err := runListenTUI(portPath, noTimestamps, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().IntP("baud", "b", 115200, "Baud rate (default: 115200)")
	listenCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, software, hardware (default: none)")
	listenCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
}

// listenModel represents the Bubble Tea model for the listen command
type listenModel struct {
	*models.DeviceModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.TerminalKeys
}

func runListenTUI(portPath string, noTimestamps bool, opts ...serial.Option) error {
	// Resolve the configuration the same way Open does, to show it in
	// the status bar
	config := serial.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return err
		}
	}

	connInfo := &components.ConnectionInfo{
		BaudRate:    config.BaudRate,
		DataBits:    config.DataBits,
		StopBits:    config.StopBits,
		Parity:      config.Parity,
		FlowControl: config.FlowControl,
	}

	terminal := components.NewTerminal(80, 20)
	terminal.SetShowTimestamps(!noTimestamps)

	m := listenModel{
		DeviceModel: models.NewDeviceModel(portPath),
		terminal:    terminal,
		statusBar:   components.NewStatusBar("Serial Listen", portPath),
		help:        help.New(),
		keys:        keys.NewTerminalKeys(),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(connInfo)

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Connect to the serial port in the background; data and errors
	// flow in via observers
	go func() {
		dev, err := serial.Open(portPath, opts...)
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			return
		}

		dev.OnData(func(data []byte) {
			buf := make([]byte, len(data))
			copy(buf, data)
			p.Send(components.DataReceivedMsg{
				Timestamp: time.Now(),
				Data:      buf,
			})
		})
		dev.OnError(func(err error) {
			p.Send(models.DeviceErrorMsg{Err: err})
		})

		m.SetDevice(dev)
		p.Send(models.ConnectionStatusMsg{Connected: true, Error: nil})
	}()

	_, err := p.Run()

	m.Cleanup()
	return err
}

func (m *listenModel) Init() tea.Cmd {
	return nil
}

func (m *listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is a single line
		statusBarHeight := 1
		m.terminal.SetSize(msg.Width, msg.Height-statusBarHeight)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
		} else {
			m.statusBar.SetConnected()
		}

	case models.DeviceErrorMsg:
		m.SetConnected(false)
		m.SetError(msg.Err)
		m.statusBar.SetDisconnected(msg.Err)

	case components.DataReceivedMsg:
		// Window size may not have arrived yet, fall back to defaults
		if !m.IsReady() {
			m.terminal.SetSize(80, 20)
			m.SetReady(true)
		}

		m.AddRawData(msg)
		m.terminal.AddMessage(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Clear):
			m.ClearData()
			m.terminal.Clear()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
			m.terminal.RefreshDisplayWithRawData(m.GetRawData())

		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
			m.terminal.RefreshDisplayWithRawData(m.GetRawData())

		case key.Matches(msg, m.keys.ToggleTimestamps):
			m.terminal.ToggleTimestamps()
			m.terminal.RefreshDisplayWithRawData(m.GetRawData())
		}
	}

	// Update terminal viewport for window resize messages
	var cmd tea.Cmd
	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *listenModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	// Listen mode is always NORMAL with no sending mode
	timestamp := time.Now().Format("15:04:05")

	terminalWidth := 80
	if m.IsReady() {
		terminalWidth = m.terminal.GetViewport().Width
	}
	m.statusBar.SetWidth(terminalWidth)

	statusBar := m.statusBar.ComprehensiveStatusBar("LISTEN", "", m.IsConnected(), timestamp)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

	// Show help if requested
	if m.help.ShowAll {
		helpStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Margin(1, 0)
		helpView := helpStyle.Render(m.help.View(m.keys))

		return lipgloss.JoinVertical(
			lipgloss.Left,
			contentWithBorder,
			helpView,
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		statusBar,
	)
}
