package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	serial "github.com/svmnotn/native-serial"
	"github.com/svmnotn/native-serial/internal/tui/colors"
)

const (
	columnKeyPort        = "port"
	columnKeyKind        = "kind"
	columnKeyDescription = "description"
	columnKeyVIDPID      = "vidpid"
	columnKeySerial      = "serial"
)

// RenderPortsTable renders port details as a static styled table
func RenderPortsTable(infos []*serial.PortInfo) string {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 16),
		table.NewColumn(columnKeyKind, "Kind", 10),
		table.NewColumn(columnKeyDescription, "Description", 26),
		table.NewColumn(columnKeyVIDPID, "VID:PID", 10),
		table.NewColumn(columnKeySerial, "Serial", 16),
	}

	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		vidpid := ""
		if info.VendorID != "" || info.ProductID != "" {
			vidpid = info.VendorID + ":" + info.ProductID
		}

		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort:        info.Path,
			columnKeyKind:        info.Kind.String(),
			columnKeyDescription: info.Description,
			columnKeyVIDPID:      vidpid,
			columnKeySerial:      info.SerialNumber,
		}))
	}

	t := table.New(columns).
		WithRows(rows).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface2).
			Align(lipgloss.Left))

	return t.View()
}
