package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

var platformsPlain bool

var platformsCmd = &cobra.Command{
	Use:   "platforms [group]",
	Short: "Pick a platform from a group",
	Long: `Browse the configured platforms of a group (chat, translation, quickask),
most recently used first. The selected platform id is printed to stdout,
which makes the command usable from launcher scripts:

  chatdock platforms --plain chat | fuzzel --dmenu`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlatforms,
}

func init() {
	platformsCmd.Flags().BoolVar(&platformsPlain, "plain", false, "print ids without the interactive picker")
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(_ *cobra.Command, args []string) error {
	group := entity.GroupChat
	if len(args) > 0 {
		group = entity.GroupID(args[0])
	}

	var enabled []entity.PlatformDescriptor
	for _, desc := range app.Config.Descriptors() {
		if desc.Enabled && desc.Group == group {
			enabled = append(enabled, desc)
		}
	}
	if len(enabled) == 0 {
		return fmt.Errorf("no enabled platforms in group %q", group)
	}

	ctx := app.Context()
	recent, err := app.Store.RecentPlatforms(ctx, group, len(enabled))
	if err != nil {
		app.Logger.Warn().Err(err).Msg("failed to load platform recency")
	}
	ordered := recentFirst(enabled, recent)

	if platformsPlain {
		for _, desc := range ordered {
			fmt.Println(desc.ID)
		}
		return nil
	}

	active, err := app.Store.LoadActive(ctx, group)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("failed to load active platform")
	}

	return runPicker(group, ordered, active)
}

// recentFirst reorders descriptors so recently used platforms come first, in
// recency order; the rest keep their configured rank order.
func recentFirst(descs []entity.PlatformDescriptor, recent []entity.PlatformID) []entity.PlatformDescriptor {
	byID := make(map[entity.PlatformID]entity.PlatformDescriptor, len(descs))
	for _, d := range descs {
		byID[d.ID] = d
	}

	out := make([]entity.PlatformDescriptor, 0, len(descs))
	seen := make(map[entity.PlatformID]bool, len(recent))
	for _, id := range recent {
		if d, ok := byID[id]; ok && !seen[id] {
			out = append(out, d)
			seen[id] = true
		}
	}
	for _, d := range descs {
		if !seen[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

type platformItem struct {
	desc   entity.PlatformDescriptor
	active bool
}

func (i platformItem) Title() string {
	if i.active {
		return i.desc.Name + " ●"
	}
	return i.desc.Name
}

func (i platformItem) Description() string { return i.desc.URL }

func (i platformItem) FilterValue() string { return i.desc.Name + " " + string(i.desc.ID) }

type pickerModel struct {
	list   list.Model
	choice *entity.PlatformDescriptor
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Don't intercept keys while the filter input is active.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(platformItem); ok {
				choice := item.desc
				m.choice = &choice
			}
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string { return m.list.View() }

func runPicker(group entity.GroupID, descs []entity.PlatformDescriptor, active entity.PlatformID) error {
	items := make([]list.Item, 0, len(descs))
	for _, d := range descs {
		items = append(items, platformItem{desc: d, active: d.ID == active})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(app.Theme.Accent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(app.Theme.Muted)

	l := list.New(items, delegate, 0, 0)
	l.Title = fmt.Sprintf("%s platforms", group)
	l.Styles.Title = app.Theme.Badge

	p := tea.NewProgram(pickerModel{list: l}, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}

	if m, ok := final.(pickerModel); ok && m.choice != nil {
		fmt.Println(m.choice.ID)
	}
	return nil
}
