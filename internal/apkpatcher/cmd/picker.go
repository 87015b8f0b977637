package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"

	"github.com/charmbracelet/bubbles/v2/list"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/viper"

	"github.com/deathmemory/apkpatcher/internal/gadget"
	"github.com/deathmemory/apkpatcher/internal/tools"
)

// pickCachedGadget resolves a gadget when none was given on the command
// line: first by asking the connected device for its ABI, then by letting
// the user choose from the cache interactively.
func pickCachedGadget(logger *log.Logger) (string, error) {
	version, err := tools.FridaVersion(logger)
	if err != nil {
		return "", err
	}
	cacheDir, err := gadgetCacheDir()
	if err != nil {
		return "", err
	}

	abi, abiErr := tools.DeviceABI(logger)
	if abiErr == nil {
		path, err := gadget.Recommended(cacheDir, version, abi, logger)
		if err == nil {
			logger.Info("Using gadget matching connected device", "abi", abi, "gadget", path)
			return path, nil
		}
		logger.Warn("No cached gadget for device ABI", "abi", abi, "error", err)
	} else {
		logger.Warn("Could not query device ABI", "error", abiErr)
	}

	if !term.IsTerminal(os.Stdout.Fd()) {
		return "", fmt.Errorf("no gadget selected: pass one with --gadget")
	}

	candidates, err := gadget.Cached(cacheDir, version)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no gadgets cached for frida %s: run `apkpatcher update` first", version)
	}
	return runPicker(candidates)
}

func gadgetCacheDir() (string, error) {
	if dir := viper.GetString("gadgets-dir"); dir != "" {
		return dir, nil
	}
	return gadget.DefaultCacheDir()
}

type gadgetItem string

func (i gadgetItem) Title() string       { return pathpkg.Base(string(i)) }
func (i gadgetItem) FilterValue() string { return pathpkg.Base(string(i)) }

type gadgetDelegate struct{}

func (d gadgetDelegate) Height() int                               { return 1 }
func (d gadgetDelegate) Spacing() int                              { return 0 }
func (d gadgetDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d gadgetDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(gadgetItem)
	if !ok {
		return
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	indicator := " "
	if index == m.Index() {
		indicator = ">"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}
	fmt.Fprintf(w, " %s  %s", indicator, style.Render(i.Title()))
}

type pickerModel struct {
	list   list.Model
	chosen string
}

func newPickerModel(candidates []string) pickerModel {
	items := make([]list.Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, gadgetItem(c))
	}
	l := list.New(items, gadgetDelegate{}, 80, 24)
	l.Title = "Pick a gadget"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(gadgetItem); ok {
				m.chosen = string(item)
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string { return m.list.View() }

func runPicker(candidates []string) (string, error) {
	program := tea.NewProgram(newPickerModel(candidates), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("gadget picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.chosen == "" {
		return "", fmt.Errorf("no gadget selected: pass one with --gadget")
	}
	return m.chosen, nil
}
