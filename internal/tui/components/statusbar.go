package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	serial "github.com/svmnotn/native-serial"
	"github.com/svmnotn/native-serial/internal/tui/colors"
	"github.com/svmnotn/native-serial/internal/tui/styles"
)

type ConnectionInfo struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      serial.Parity
	FlowControl serial.FlowControl
}

type StatusBar struct {
	title          string
	portPath       string
	status         string
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(title, portPath string) *StatusBar {
	return &StatusBar{
		title:    title,
		portPath: portPath,
		status:   "Initializing...",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetConnecting() {
	sb.status = "Connecting..."
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = "Connected - listening for data..."
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	if err != nil {
		sb.status = fmt.Sprintf("Connection failed: %v", err)
		sb.err = err
	} else {
		sb.status = "Disconnected"
		sb.err = nil
	}
}

func flowControlToString(fc serial.FlowControl) string {
	switch fc {
	case serial.FlowControlNone:
		return "None"
	case serial.FlowControlSoftware:
		return "XON/XOFF"
	case serial.FlowControlHardware:
		return "RTS/CTS"
	default:
		return "Unknown"
	}
}

func parityToString(p serial.Parity) string {
	switch p {
	case serial.ParityNone:
		return "N"
	case serial.ParityEven:
		return "E"
	case serial.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

func (sb *StatusBar) ViewAsHeader() string {
	title := styles.TitleStyle.Render(sb.portPath)

	var connectionInfo string
	if sb.connectionInfo != nil {
		connectionInfo = fmt.Sprintf(" | %d baud, %d%s%d, flow: %s",
			sb.connectionInfo.BaudRate,
			sb.connectionInfo.DataBits,
			parityToString(sb.connectionInfo.Parity),
			sb.connectionInfo.StopBits,
			flowControlToString(sb.connectionInfo.FlowControl))
	}

	connInfoStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Faint(true)

	return lipgloss.JoinHorizontal(lipgloss.Left, title, connInfoStyle.Render(connectionInfo))
}

// ComprehensiveStatusBar renders a full-width status bar with mode,
// port, connection state and settings
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode string, connected bool, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Mode indicator (like NORMAL in nvim)
	var modeStyle lipgloss.Style
	var modeText string
	if inputMode == "INSERT" {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Green).
			Bold(true).
			Padding(0, 1)
		modeText = "INSERT"
	} else {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Blue).
			Bold(true).
			Padding(0, 1)
		modeText = inputMode
	}
	mode := modeStyle.Render(modeText)

	// Port path
	portStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	port := portStyle.Render(sb.portPath)

	// Single character connection indicator
	var connIndicator string
	var connStyle lipgloss.Style

	if sb.err != nil {
		connStyle = lipgloss.NewStyle().Foreground(colors.Red)
		connIndicator = "✗"
	} else if connected {
		connStyle = lipgloss.NewStyle().Foreground(colors.Green)
		connIndicator = "●"
	} else if sb.status == "Connecting..." {
		connStyle = lipgloss.NewStyle().Foreground(colors.Yellow)
		connIndicator = "○"
	} else {
		connStyle = lipgloss.NewStyle().Foreground(colors.Red)
		connIndicator = "○"
	}
	connectionIndicator := connStyle.Render(connIndicator)

	// Connection settings
	var connInfo string
	if sb.connectionInfo != nil {
		connInfo = fmt.Sprintf("⚡ %d baud %d%s%d %s",
			sb.connectionInfo.BaudRate,
			sb.connectionInfo.DataBits,
			parityToString(sb.connectionInfo.Parity),
			sb.connectionInfo.StopBits,
			flowControlToString(sb.connectionInfo.FlowControl))
	} else {
		connInfo = "⚡ serial"
	}
	connInfoStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	connectionDetails := connInfoStyle.Render(connInfo)

	// Timestamp
	timeStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1)
	timeView := timeStyle.Render(timestamp)

	dividerStyle := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1)
	divider := dividerStyle.Render("│")

	// Sending mode with Tab hint, only shown in INSERT mode
	var sendingModeInfo string
	if inputMode == "INSERT" {
		sendingModeStyle := lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1)
		sendingModeInfo = sendingModeStyle.Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode))
	}

	var leftSide string
	if sendingModeInfo != "" {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, port, connectionIndicator, sendingModeInfo, divider)
	} else {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, port, connectionIndicator, divider)
	}

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, connectionDetails, divider, timeView)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	statusBarStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide)
	return statusBarStyle.Render(content)
}
