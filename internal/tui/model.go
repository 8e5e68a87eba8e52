package tui

import (
	"database/sql"
	"strings"

	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/michaelscutari/sdficon/internal/entry"

	tea "github.com/charmbracelet/bubbletea"
)

// SortColumn represents the current sort field.
type SortColumn int

const (
	SortByName SortColumn = iota
	SortByScale
	SortByBytes
	SortByWidth
	SortByHeight
)

func (s SortColumn) String() string {
	switch s {
	case SortByScale:
		return "scale"
	case SortByBytes:
		return "bytes"
	case SortByWidth:
		return "width"
	case SortByHeight:
		return "height"
	default:
		return "name"
	}
}

// Model holds the TUI state.
type Model struct {
	db           *sql.DB
	allIcons     []entry.Icon
	icons        []entry.Icon
	cursor       int
	sort         SortColumn
	width        int
	height       int
	meta         *entry.BuildMeta
	detail       *entry.Icon
	filter       string
	filterActive bool
	overflowOnly bool
	err          error
}

// NewModel creates a new TUI model.
func NewModel(database *sql.DB) *Model {
	return &Model{
		db:   database,
		sort: SortByName,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadInitialData
}

type dataLoadedMsg struct {
	meta  *entry.BuildMeta
	icons []entry.Icon
	err   error
}

func (m *Model) loadInitialData() tea.Msg {
	meta, err := db.GetBuildMeta(m.db)
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	icons, err := db.LoadIcons(m.db, m.sort.String(), 0)
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	return dataLoadedMsg{meta: meta, icons: icons}
}

type iconsLoadedMsg struct {
	icons []entry.Icon
	err   error
}

func (m *Model) loadIcons() tea.Cmd {
	sortBy := m.sort.String()
	return func() tea.Msg {
		icons, err := db.LoadIcons(m.db, sortBy, 0)
		return iconsLoadedMsg{icons: icons, err: err}
	}
}

type detailLoadedMsg struct {
	icon *entry.Icon
	err  error
}

// loadDetail refetches the selected row so the detail pane always shows
// what the manifest holds.
func (m *Model) loadDetail() tea.Cmd {
	sel := m.selected()
	if sel == nil {
		m.detail = nil
		return nil
	}
	name := sel.Name
	return func() tea.Msg {
		icon, err := db.GetIcon(m.db, name)
		return detailLoadedMsg{icon: icon, err: err}
	}
}

func (m *Model) selected() *entry.Icon {
	if m.cursor < 0 || m.cursor >= len(m.icons) {
		return nil
	}
	return &m.icons[m.cursor]
}

func (m *Model) helpLine() string {
	if m.filterActive {
		return "Type to filter | Enter: apply | Esc: clear | ctrl+c: quit"
	}
	return "↑/↓ move | n/s/b/w/t: sort | o: overflow only | /: filter | q: quit"
}

func (m *Model) setIcons(icons []entry.Icon) {
	m.allIcons = icons
	m.applyFilter()
}

func (m *Model) applyFilter() {
	if m.filter == "" && !m.overflowOnly {
		m.icons = m.allIcons
	} else {
		filtered := make([]entry.Icon, 0, len(m.allIcons))
		needle := strings.ToLower(m.filter)
		for _, i := range m.allIcons {
			if m.overflowOnly && !i.Overflow {
				continue
			}
			if strings.Contains(strings.ToLower(i.Name), needle) {
				filtered = append(filtered, i)
			}
		}
		m.icons = filtered
	}
	m.cursor = 0
}
