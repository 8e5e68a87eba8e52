package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/normalize"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.meta == nil {
		return "Loading..."
	}

	var b strings.Builder
	headerLines := 0

	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
		headerLines++
	}

	writeLine(titleStyle.Render("sdficon - Icon Manifest Browser"))

	buildInfo := fmt.Sprintf("Build: %s | Icons: %s | Output: %s | Overflow: %s",
		m.meta.StartTime.Format("2006-01-02 15:04"),
		FormatCount(m.meta.IconCount),
		FormatSize(m.meta.TotalBytes),
		FormatCount(m.meta.OverflowCount),
	)
	if m.meta.Status == entry.StatusFailed {
		buildInfo += " | " + failedStyle.Render("FAILED")
	}
	writeLine(statsStyle.Render(buildInfo))

	dirs := fmt.Sprintf("%s -> %s", m.meta.SourceDir, m.meta.DestDir)
	writeLine(dirsStyle.Render(truncateMiddle(dirs, max(10, m.width-2))))

	status := fmt.Sprintf("Icons: %s", FormatCount(int64(len(m.icons))))
	if m.filter != "" {
		status += fmt.Sprintf(" | Filter: %q", m.filter)
	}
	if m.overflowOnly {
		status += " | overflow only"
	}
	writeLine(statusStyle.Render(status))

	if m.filterActive {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s_", m.filter)))
	} else if m.filter != "" {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s", m.filter)))
	}

	scaleLabel := headerLabel("SCALE", m.sort == SortByScale, "v")
	bytesLabel := headerLabel("BYTES", m.sort == SortByBytes, "v")
	sizeLabel := sizeHeaderLabel(m.sort)
	nameLabel := headerLabel("NAME", m.sort == SortByName, "^")

	footerLines := 3
	visibleRows := m.height - headerLines - footerLines
	if visibleRows < 5 {
		visibleRows = 5
	}

	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(len(m.icons), startIdx+visibleRows)

	widths := calcColumnWidths(m.icons, startIdx, endIdx, scaleLabel, bytesLabel, sizeLabel)
	nameWidth := calcNameWidth(m.width, widths)
	gap := strings.Repeat(" ", colGap)

	nameLabel = truncateRight(nameLabel, nameWidth)
	namePad := max(nameWidth-len(nameLabel), 0)
	header := fmt.Sprintf("%*s%s%*s%s%*s%s%s%s%s%*s",
		widths.scale, scaleLabel,
		gap,
		widths.bytes, bytesLabel,
		gap,
		widths.size, sizeLabel,
		gap,
		nameLabel,
		strings.Repeat(" ", namePad),
		gap,
		barColWidth, "COVER%",
	)
	writeLine(headerStyle.Render(header))

	for i := startIdx; i < endIdx; i++ {
		b.WriteString(m.formatIcon(m.icons[i], i == m.cursor, widths, nameWidth))
		b.WriteString("\n")
	}

	displayedRows := min(len(m.icons)-startIdx, visibleRows)
	for i := displayedRows; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.detail != nil {
		b.WriteString(detailStyle.Render(formatDetail(*m.detail)))
		b.WriteString("\n")
	}
	help := m.helpLine()
	if len(m.icons) > 0 {
		help = fmt.Sprintf("%s [%d/%d]", help, m.cursor+1, len(m.icons))
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

type columnWidths struct {
	scale int
	bytes int
	size  int
}

const (
	colGap        = 2
	minNameWidth  = 10
	barBlockWidth = 10                                        // number of block characters
	barPctWidth   = 4                                         // " 78%" or "100%"
	barGapWidth   = 2                                         // space between blocks and pct
	barColWidth   = barBlockWidth + barGapWidth + barPctWidth // 16
)

func formatScale(s float64) string {
	return fmt.Sprintf("%.4f", s)
}

func formatDims(i entry.Icon) string {
	return fmt.Sprintf("%gx%g", i.SourceWidth, i.SourceHeight)
}

func calcColumnWidths(icons []entry.Icon, startIdx, endIdx int, scaleLabel, bytesLabel, sizeLabel string) columnWidths {
	w := columnWidths{
		scale: len(scaleLabel),
		bytes: len(bytesLabel),
		size:  len(sizeLabel),
	}

	for i := startIdx; i < endIdx; i++ {
		w.scale = max(w.scale, len(formatScale(icons[i].Scale)))
		w.bytes = max(w.bytes, len(FormatSize(icons[i].Bytes)))
		w.size = max(w.size, len(formatDims(icons[i])))
	}

	return w
}

func calcNameWidth(totalWidth int, w columnWidths) int {
	// three data columns, a gap after each, a gap before the bar
	used := w.scale + w.bytes + w.size + (colGap * 4) + barColWidth
	return max(totalWidth-used, minNameWidth)
}

func truncateRight(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func (m *Model) formatIcon(i entry.Icon, selected bool, widths columnWidths, nameWidth int) string {
	rawName := i.Name
	if i.Overflow {
		rawName += "!"
	}
	rawName = truncateRight(rawName, nameWidth)

	styledName := nameStyle.Render(rawName)
	if i.Overflow {
		styledName = overflowStyle.Render(rawName)
	}
	paddedName := styledName + strings.Repeat(" ", max(nameWidth-len(rawName), 0))

	bar := formatBar(i.Coverage(normalize.ContentSize))

	gap := strings.Repeat(" ", colGap)
	line := fmt.Sprintf("%*s%s%*s%s%*s%s%s%s%s",
		widths.scale, formatScale(i.Scale),
		gap,
		widths.bytes, FormatSize(i.Bytes),
		gap,
		widths.size, formatDims(i),
		gap,
		paddedName,
		gap,
		bar,
	)

	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

// formatDetail summarizes the placement of one icon for the footer.
func formatDetail(i entry.Icon) string {
	p := normalize.Placement{Scale: i.Scale, OffsetX: i.OffsetX, OffsetY: i.OffsetY}
	s := fmt.Sprintf("%s: %s", i.Name, p.Transform())
	if i.XLink {
		s += " | xlink"
	}
	if i.Checked {
		s += fmt.Sprintf(" | ink (%.1f,%.1f)-(%.1f,%.1f)", i.InkX0, i.InkY0, i.InkX1, i.InkY1)
		if i.Overflow {
			s += " OVERFLOW"
		}
		if i.Empty {
			s += " | nothing rendered"
		}
	}
	return s
}

func sizeHeaderLabel(sort SortColumn) string {
	switch sort {
	case SortByWidth:
		return "W<xH"
	case SortByHeight:
		return "WxH<"
	default:
		return "WxH"
	}
}

// formatBar renders a fraction in [0,1] as blocks plus a percentage.
func formatBar(frac float64) string {
	if frac <= 0 || math.IsNaN(frac) {
		empty := strings.Repeat("░", barBlockWidth)
		return barEmptyStyle.Render(empty) + fmt.Sprintf("  %3d%%", 0)
	}

	pct := math.Min(frac*100, 100)
	filled := int(math.Round(pct / 100 * float64(barBlockWidth)))
	filled = min(max(filled, 1), barBlockWidth)

	filledStr := barFilledStyle.Render(strings.Repeat("█", filled))
	emptyStr := barEmptyStyle.Render(strings.Repeat("░", barBlockWidth-filled))
	return filledStr + emptyStr + fmt.Sprintf("  %3d%%", int(math.Round(pct)))
}

func headerLabel(label string, active bool, dir string) string {
	if active {
		return label + dir
	}
	return label
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}
