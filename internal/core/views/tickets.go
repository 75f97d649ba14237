package views

import "github.com/JonMunkholm/gridview/internal/core"

func init() {
	registerTickets()
}

// TicketColumns is the column contract of the tickets view.
var TicketColumns = core.Columns{
	{ID: "id", Caption: "Ticket ID", Kind: core.KindNumber, Filterable: true, Sortable: true, Width: 100, Align: core.AlignCenter},
	{ID: "ticketSubject", Caption: "Ticket Subject", Filterable: true, Sortable: true, Width: 300},
	{ID: "ticketStatus", Caption: "Ticket Status", Filterable: true, Sortable: true, Width: 120, Align: core.AlignCenter},
	{ID: "source", Caption: "Source", Filterable: true, Sortable: true, Width: 120, Align: core.AlignCenter},
	{ID: "dateRequested", Caption: "Date Requested", Kind: core.KindDate, Filterable: true, Sortable: true, Width: 160, Align: core.AlignCenter},
	{ID: "mainCategory", Caption: "Main Category", Filterable: true, Sortable: true, Hidden: true},
	{ID: "subCategory", Caption: "Sub Category", Filterable: true, Sortable: true, Hidden: true},
}

func registerTickets() {
	core.Register(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:          TicketsKey,
			Group:        "Support",
			Label:        "Tickets",
			Source:       core.SourceLocal,
			EmptyMessage: "No tickets found.",
		},
		Columns: TicketColumns,
	})
}
