package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.meta = msg.meta
		m.filter = ""
		m.filterActive = false
		m.setIcons(msg.icons)
		return m, m.loadDetail()

	case iconsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.setIcons(msg.icons)
		return m, m.loadDetail()

	case detailLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.detail = msg.icon
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		switch msg.String() {
		case "enter":
			m.filterActive = false
			return m, nil

		case "esc":
			m.filterActive = false
			m.filter = ""
			m.applyFilter()
			return m, m.loadDetail()

		case "backspace":
			if len(m.filter) > 0 {
				runes := []rune(m.filter)
				m.filter = string(runes[:len(runes)-1])
				m.applyFilter()
				return m, m.loadDetail()
			}
			return m, nil

		case "ctrl+c":
			return m, tea.Quit
		}

		if msg.Type == tea.KeyRunes {
			m.filter += msg.String()
			m.applyFilter()
			return m, m.loadDetail()
		}

		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		return m, m.moveCursor(m.cursor - 1)

	case "down", "j":
		return m, m.moveCursor(m.cursor + 1)

	case "home", "g":
		return m, m.moveCursor(0)

	case "end", "G":
		return m, m.moveCursor(len(m.icons) - 1)

	case "pgup":
		return m, m.moveCursor(m.cursor - 10)

	case "pgdown":
		return m, m.moveCursor(m.cursor + 10)

	case "n":
		m.sort = SortByName
		return m, m.loadIcons()

	case "s":
		m.sort = SortByScale
		return m, m.loadIcons()

	case "b":
		m.sort = SortByBytes
		return m, m.loadIcons()

	case "w":
		m.sort = SortByWidth
		return m, m.loadIcons()

	case "t":
		m.sort = SortByHeight
		return m, m.loadIcons()

	case "o":
		m.overflowOnly = !m.overflowOnly
		m.applyFilter()
		return m, m.loadDetail()

	case "/":
		m.filterActive = true
		return m, nil
	}

	return m, nil
}

// moveCursor clamps the cursor into range and reloads the detail pane when
// the selection changed.
func (m *Model) moveCursor(to int) tea.Cmd {
	if to >= len(m.icons) {
		to = len(m.icons) - 1
	}
	if to < 0 {
		to = 0
	}
	if to == m.cursor && m.detail != nil {
		return nil
	}
	m.cursor = to
	return m.loadDetail()
}
