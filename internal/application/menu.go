package application

import (
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	items := []MenuItem{{Label: "Browse ->", Submenu: loadBrowse(m)}}
	if m.tasks != nil {
		items = append(items, MenuItem{Label: "Tickets DB ->", Submenu: loadAdmin(m)})
	}
	items = append(items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	root := &Menu{Title: "gridview", Items: items}
	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

// loadBrowse lists one entry per source, in registration order.
func loadBrowse(m *Model) *Menu {
	items := make([]MenuItem, 0, len(m.sources)+1)
	for _, src := range m.sources {
		items = append(items, MenuItem{
			Label:  src.Def.Info.Label + " (" + string(src.Def.Info.Source) + ")",
			Action: m.openAction(src),
		})
	}
	if len(m.sources) == 0 {
		items = append(items, MenuItem{Label: "No views configured"})
	}
	items = append(items, MenuItem{Label: "Back"})

	return &Menu{Title: "Browse", Items: items}
}

func loadAdmin(m *Model) *Menu {
	return &Menu{
		Title: "Tickets DB",
		Items: []MenuItem{
			{Label: "Run Migrations", Action: m.tasks.MigrateCmd},
			{Label: "Seed Sample Tickets", Action: m.tasks.SeedCmd},
			{Label: "Reset All", Action: m.tasks.ResetCmd},
			{Label: "Back"},
		},
	}
}
