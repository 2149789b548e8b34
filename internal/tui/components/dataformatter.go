package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/svmnotn/native-serial/internal/tui/colors"
)

type DataReceivedMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
	Status    string // For TX messages: "QUEUED", "ERROR", empty for RX
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	ShowTimestamps bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:        showHex,
			ShowASCII:      showASCII,
			ShowTimestamps: true,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatMessage(msg DataReceivedMsg) string {
	// Styled TX/RX indicators with arrows and status
	var indicator string
	if msg.IsTX {
		var txColor lipgloss.Color
		var statusText string

		switch msg.Status {
		case "QUEUED":
			txColor = colors.Yellow
			statusText = "TX ○"
		case "ERROR":
			txColor = colors.Red
			statusText = "TX ✗"
		default:
			txColor = colors.Peach
			statusText = "TX"
		}

		indicator = lipgloss.NewStyle().
			Foreground(txColor).
			Bold(true).
			Render("↗ " + statusText)
	} else {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	}

	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}

	if df.mode.ShowASCII {
		asciiStr := ""
		for _, b := range msg.Data {
			if b >= 32 && b <= 126 {
				asciiStr += string(b)
			} else {
				// Non-printable bytes become dots so control sequences
				// never reach the terminal
				asciiStr += "."
			}
		}
		parts = append(parts, fmt.Sprintf("ASCII: %s", asciiStr))
	}

	// If both are disabled, show raw byte count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	line := fmt.Sprintf("%s: %s", indicator, strings.Join(parts, "  "))

	if df.mode.ShowTimestamps {
		timestampStyled := lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))
		line = fmt.Sprintf("%s %s", timestampStyled, line)
	}

	return line
}

func (df *DataFormatter) FormatMessages(messages []DataReceivedMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) ToggleTimestamps() {
	df.mode.ShowTimestamps = !df.mode.ShowTimestamps
}

func (df *DataFormatter) SetShowTimestamps(show bool) {
	df.mode.ShowTimestamps = show
}
