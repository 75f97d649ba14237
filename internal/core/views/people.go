package views

import "github.com/JonMunkholm/gridview/internal/core"

func init() {
	registerPeople()
}

// PeopleColumns is the column contract of the remote people directory.
// Age is numeric and sortable only.
var PeopleColumns = core.Columns{
	{ID: "UserName", Caption: "User Name", Filterable: true, Sortable: true},
	{ID: "FirstName", Caption: "First Name", Filterable: true, Sortable: true},
	{ID: "LastName", Caption: "Last Name", Filterable: true, Sortable: true},
	{ID: "Gender", Caption: "Gender", Filterable: true, Sortable: true, Width: 100, Align: core.AlignCenter},
	{ID: "Age", Caption: "Age", Kind: core.KindNumber, Sortable: true, Width: 80, Align: core.AlignCenter},
}

func registerPeople() {
	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:          PeopleKey,
			Group:        "Directory",
			Label:        "People",
			Source:       core.SourceRemote,
			EmptyMessage: "No data found.",
		},
		Columns: PeopleColumns,
	})
}
