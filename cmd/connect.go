/*
Copyright © 2025 svmnotn
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
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

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <port>",
	Short: "Connect to a serial port with bidirectional communication",
	Long: `Connect to a serial port with a bidirectional terminal interface.

This command opens the specified serial port and provides an interactive
terminal with real-time bidirectional communication. Outgoing messages are
queued on the device worker and written in order; incoming data arrives
through the data observer. Features include:
- Real-time data streaming with timestamps
- Input field for sending data, with history
- ASCII and hex display and sending modes
- Connection status indicators
- Configurable baud rate and flow control
- Clean, responsive interface

Example usage:
  serial connect /dev/ttyUSB0
  serial connect /dev/ttyUSB0 --baud 9600
  serial connect /dev/ttyUSB0 --flow-control hardware`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		flowControl, _ := cmd.Flags().GetString("flow-control")

		fc, err := parseFlowControl(flowControl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := []serial.Option{
			serial.WithBaudRate(baudFromFlags(cmd)),
			serial.WithFlowControl(fc),
		}

		if err := runConnectTUI(portPath, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().IntP("baud", "b", 115200, "Baud rate (default: 115200)")
	connectCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, software, hardware (default: none)")
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.DeviceModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys
}

func runConnectTUI(portPath string, opts ...serial.Option) error {
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

	m := connectModel{
		DeviceModel: models.NewDeviceModel(portPath),
		terminal:    components.NewTerminal(0, 0), // Sized by WindowSizeMsg
		statusBar:   components.NewStatusBar("Serial Connect", portPath),
		input:       components.NewInput("Type message and press Enter to send..."),
		help:        help.New(),
		keys:        keys.NewConnectKeys(),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(connInfo)

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Connect to the serial port in the background
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

func (m *connectModel) Init() tea.Cmd {
	return nil
}

// parseHexInput converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F"
// - Continuous: "48656C6C6F"
func parseHexInput(hexStr string) ([]byte, error) {
	cleanHex := strings.ReplaceAll(strings.TrimSpace(hexStr), " ", "")
	if len(cleanHex) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	for _, char := range cleanHex {
		if !((char >= '0' && char <= '9') || (char >= 'A' && char <= 'F') || (char >= 'a' && char <= 'f')) {
			return nil, fmt.Errorf("invalid hex character '%c'", char)
		}
	}

	// Must be an even number of hex digits to form complete bytes
	if len(cleanHex)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(cleanHex))
	}

	bytes := make([]byte, 0, len(cleanHex)/2)
	for i := 0; i < len(cleanHex); i += 2 {
		hexByte := cleanHex[i : i+2]
		b, err := strconv.ParseUint(hexByte, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s': %v", hexByte, err)
		}
		bytes = append(bytes, byte(b))
	}
	return bytes, nil
}

// sendCurrentInput queues the input field's content on the device
// worker and echoes it to the terminal
func (m *connectModel) sendCurrentInput() {
	dev := m.GetDevice()
	inputStr := m.input.Value()
	if inputStr == "" || dev == nil {
		return
	}

	var dataToSend []byte
	var displayData []byte

	switch m.input.GetSendingMode() {
	case components.SendingModeASCII:
		dataToSend = []byte(inputStr + "\n")
		displayData = []byte(inputStr)
	case components.SendingModeHex:
		parsed, err := parseHexInput(inputStr)
		if err != nil {
			// Show the error in the terminal, send nothing
			m.terminal.AddMessage(components.DataReceivedMsg{
				Timestamp: time.Now(),
				Data:      []byte(fmt.Sprintf("Invalid hex input: %v", err)),
			})
			return
		}
		dataToSend = parsed
		displayData = parsed
	}

	// Write enqueues without blocking; the worker flushes in order
	status := "QUEUED"
	if err := dev.Write(dataToSend); err != nil {
		status = "ERROR"
	}

	txData := components.DataReceivedMsg{
		Timestamp: time.Now(),
		Data:      displayData,
		IsTX:      true,
		Status:    status,
	}
	m.AddRawData(txData)
	m.terminal.AddMessage(txData)

	m.input.AddToHistory(inputStr)
	m.input.SetValue("")
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area is three lines with its border, status bar one
		inputHeight := 3
		statusBarHeight := 1
		verticalMarginHeight := inputHeight + statusBarHeight

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
		} else {
			m.statusBar.SetConnected()
			m.input.Focus()
		}

	case models.DeviceErrorMsg:
		m.SetConnected(false)
		m.SetError(msg.Err)
		m.statusBar.SetDisconnected(msg.Err)
		m.terminal.AddMessage(components.DataReceivedMsg{
			Timestamp: time.Now(),
			Data:      []byte(fmt.Sprintf("Device error: %v", msg.Err)),
		})

	case components.DataReceivedMsg:
		if !m.IsReady() {
			m.terminal.SetSize(80, 20)
			m.SetReady(true)
		}

		m.AddRawData(msg)
		m.terminal.AddMessage(msg)

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			// Insert mode handles input, sending and escape
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Enter):
				m.sendCurrentInput()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, tea.Batch(cmds...)
			}
		} else {
			// Normal mode handles navigation and mode switching
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Cleanup()
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, tea.Batch(cmds...)

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

			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
			}
		}
	}

	// Only update the input component while in insert mode
	var cmd tea.Cmd
	if m.IsInInsertMode() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update terminal viewport for window resize messages
	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *connectModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	inputMode := m.GetInputMode().String()
	input := m.input.ViewWithMode(inputMode, m.IsInInsertMode())

	sendingMode := m.input.GetSendingMode().String()
	timestamp := time.Now().Format("15:04:05")

	terminalWidth := 80
	if m.IsReady() {
		terminalWidth = m.terminal.GetViewport().Width
	}
	m.statusBar.SetWidth(terminalWidth)

	statusBar := m.statusBar.ComprehensiveStatusBar(inputMode, sendingMode, m.IsConnected(), timestamp)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

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
			input,
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		input,
		statusBar,
	)
}
