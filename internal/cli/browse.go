package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/kinforge/kinchart/pkg/kin"
	"github.com/kinforge/kinchart/pkg/kin/transform"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for interactive dataset exploration.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "browse <url-or-file>",
		Short: "Interactively explore the people in a dataset",
		Long: `Interactively explore the people in a dataset.

The browse command loads a dataset and opens a scrollable list of
people with their computed generations. Press / to fuzzy-search by
name, enter to open a detail view with relatives, and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], noCache, refresh)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch even if cached")

	return cmd
}

// runBrowse loads the dataset and runs the browser TUI.
func (c *CLI) runBrowse(ctx context.Context, source string, noCache, refresh bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := datasetOptions(source, refresh)
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	s, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	prog.done(fmt.Sprintf("Loaded %d people", s.Len()))
	if s.Len() == 0 {
		printWarning("Dataset contains no people")
		return nil
	}

	gens := transform.AssignGenerations(s)
	transform.PropagateSpouseGenerations(s, gens)

	model := newBrowseModel(s, gens)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// =============================================================================
// browseModel - Interactive person browser
// =============================================================================

// browseModel is the bubbletea model for browsing people. It has two
// screens: the list (optionally narrowed by a fuzzy query) and a detail
// view for one person.
type browseModel struct {
	store *kin.Store
	gens  map[string]int

	people []*kin.Person // visible rows, search applied
	cursor int
	offset int
	height int
	query  string
	typing bool        // search input has focus
	detail *kin.Person // non-nil while the detail view is open
}

func newBrowseModel(s *kin.Store, gens map[string]int) browseModel {
	m := browseModel{
		store:  s,
		gens:   gens,
		height: 15,
	}
	m.applyQuery()
	return m
}

// applyQuery recomputes the visible rows. An empty query shows everyone
// in insertion order; otherwise rows are ranked by fuzzy match quality.
func (m *browseModel) applyQuery() {
	if m.query == "" {
		m.people = m.store.People()
	} else {
		all := m.store.People()
		names := make([]string, len(all))
		for i, p := range all {
			names[i] = p.DisplayName()
		}
		ranks := fuzzy.RankFindNormalizedFold(m.query, names)
		sort.Stable(ranks)
		m.people = make([]*kin.Person, 0, len(ranks))
		for _, r := range ranks {
			m.people = append(m.people, all[r.OriginalIndex])
		}
	}
	if m.cursor >= len(m.people) {
		m.cursor = 0
	}
	m.offset = 0
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		if m.typing {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "/":
		m.typing = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.people)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "enter":
		if m.cursor < len(m.people) {
			m.detail = m.people[m.cursor]
		}
	}
	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.typing = false
		m.query = ""
		m.applyQuery()
	case "enter":
		m.typing = false
	case "backspace":
		if m.query != "" {
			m.query = m.query[:len(m.query)-1]
			m.applyQuery()
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
			m.applyQuery()
		}
	}
	return m, nil
}

func (m browseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "enter", "backspace":
		m.detail = nil
	}
	return m, nil
}

func (m browseModel) View() string {
	if m.detail != nil {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse People"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  / search  q quit"))
	b.WriteString("\n")

	if m.typing || m.query != "" {
		prompt := "/" + m.query
		if m.typing {
			prompt += "▌"
		}
		b.WriteString(StyleHighlight.Render(prompt))
	}
	b.WriteString("\n\n")

	if len(m.people) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		return b.String()
	}

	end := m.offset + m.height
	if end > len(m.people) {
		end = len(m.people)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		p := m.people[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		gen := "—"
		if g, ok := m.gens[p.ID]; ok {
			gen = fmt.Sprintf("%d", g)
		}

		spouses := fmt.Sprintf("%d", len(p.Spouses))
		children := fmt.Sprintf("%d", len(p.Children))

		rows = append(rows, []string{cursor, p.DisplayName(), string(p.Gender), gen, spouses, children})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Gender", "Gen", "Spouses", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.people))))

	return b.String()
}

func (m browseModel) viewDetail() string {
	p := m.detail
	var b strings.Builder

	b.WriteString(StyleTitle.Render(p.DisplayName()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q close"))
	b.WriteString("\n\n")

	writeField := func(label, value string) {
		if value == "" {
			value = "—"
		}
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %-12s", label)))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}

	writeField("ID", p.ID)
	writeField("Gender", string(p.Gender))
	if g, ok := m.gens[p.ID]; ok {
		writeField("Generation", fmt.Sprintf("%d", g))
	}
	writeField("Parents", m.relativeNames(p.Parents))
	writeField("Spouses", m.relativeNames(p.Spouses))
	writeField("Children", m.relativeNames(p.Children))

	if len(p.Attrs) > 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  Attributes"))
		b.WriteString("\n")
		for _, k := range sortedKeys(p.Attrs) {
			writeField(k, fmt.Sprintf("%v", p.Attrs[k]))
		}
	}

	return b.String()
}

// relativeNames resolves IDs to display names, keeping unresolvable IDs
// as-is.
func (m browseModel) relativeNames(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		if p, ok := m.store.Person(id); ok {
			names[i] = p.DisplayName()
		} else {
			names[i] = id
		}
	}
	return strings.Join(names, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
