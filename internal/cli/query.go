package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/bootstrap"
	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/odata"
	"github.com/JonMunkholm/gridview/internal/urlstate"
)

// defaultWait bounds a query when no remote timeouts are configured.
const defaultWait = 30 * time.Second

// QueryOptions holds options for the query command.
type QueryOptions struct {
	RuleFlags
	Status   string
	Output   string
	Location bool
}

func addRuleFlags(cmd *cobra.Command, f *RuleFlags) {
	cmd.Flags().StringArrayVarP(&f.Filters, "filter", "f", nil, "Filter rule column:relation:value (repeatable)")
	cmd.Flags().StringArrayVarP(&f.Sorters, "sort", "s", nil, "Sort rule column[:asc|desc] (repeatable, first is primary)")
	cmd.Flags().IntVarP(&f.Page, "page", "p", 1, "Page number (clamped to the last page)")
}

func completeViews(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, def := range core.All() {
		keys = append(keys, def.Info.Key)
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

// newQueryCommand creates the query command.
func newQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <view>",
		Short: "Run filter, sort and paging rules against a view",
		Long: `Run rules against a registered view and print one page.

Local views are evaluated in process; remote views are compiled to an OData
request and fetched. Rules naming unknown or non-filterable columns are
dropped with a warning, exactly as the web pages drop them.`,
		Example: `  # Open tickets about the loan module
  gridctl query tickets --status open --filter ticketSubject:contains:loan

  # Oldest people first, second page, as JSON
  gridctl query people --sort Age:desc --page 2 -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeViews,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	addRuleFlags(cmd, &opts.RuleFlags)
	cmd.Flags().StringVar(&opts.Status, "status", "", "Ticket status preset (all, open, in-progress, resolved, closed, dropped, on-hold)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json, csv, md")
	cmd.Flags().BoolVar(&opts.Location, "location", false, "Also print the page location query string")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, key string, opts *QueryOptions) error {
	if err := validFormat(opts.Output); err != nil {
		return err
	}
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	stack, err := bootstrap.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer stack.Close()

	exec, def, err := stack.Executor(key, opts.Status, httpClient(cfg))
	if err != nil {
		return err
	}

	st, dropped, err := opts.State(def.Columns)
	if err != nil {
		return err
	}
	for _, d := range dropped {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring %s\n", d)
	}

	ctl := controller.New(controller.Options{
		Key:          def.Info.Key,
		Source:       def.Info.Source,
		Executor:     exec,
		Columns:      def.Columns,
		PageSize:     cfg.Table.RowsPerPage,
		Initial:      st,
		FetchTimeout: cfg.Remote.FetchTimeout,
	})
	defer ctl.Close()

	wait := cfg.Remote.FetchTimeout + cfg.Remote.RenderWait
	if wait <= 0 {
		wait = defaultWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := ctl.Await(waitCtx); err != nil {
		return fmt.Errorf("waiting for %s: %w", key, err)
	}

	v := ctl.View()
	if v.Err != "" {
		return fmt.Errorf("%s: %s", key, v.Err)
	}
	if v.State.Page != st.Page {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: page %d is out of range, showing page %d\n", st.Page, v.State.Page)
	}

	if err := renderPage(cmd.OutOrStdout(), def.Columns, v, def.Info.EmptyMessage, opts.Output); err != nil {
		return err
	}
	if opts.Location {
		printf(cmd, "?%s\n", urlstate.Encode(v.State).Encode())
	}
	return nil
}

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	RuleFlags
	PageSize int
	Base     string
	JSON     bool
}

// newCompileCommand creates the compile command.
func newCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <view>",
		Short: "Print the OData query for a set of rules",
		Long: `Compile rules into the $filter, $orderby, $top, $skip and $count
parameters a remote view sends. No request is made.`,
		Example: `  gridctl compile people --filter "LastName:equals:O'Brien" --sort Age:desc
  gridctl compile people --filter Age:equals:30 --base https://example.com/People`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeViews,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts)
		},
	}

	addRuleFlags(cmd, &opts.RuleFlags)
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page (default TABLE_ROWS_PER_PAGE)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "Collection URL to prefix the query with")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the parameters as JSON")

	return cmd
}

func runCompile(cmd *cobra.Command, key string, opts *CompileOptions) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	def, err := core.Lookup(key)
	if err != nil {
		return err
	}

	st, dropped, err := opts.State(def.Columns)
	if err != nil {
		return err
	}
	for _, d := range dropped {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring %s\n", d)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = cfg.Table.RowsPerPage
	}
	req := odata.Compile(st, def.Columns, pageSize)

	if opts.JSON {
		params := map[string]string{}
		for k, v := range req.Values() {
			params[k] = strings.Join(v, ",")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(params)
	}
	if opts.Base != "" {
		u, err := req.URL(opts.Base)
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", u)
		return nil
	}
	printf(cmd, "%s\n", req.Query())
	return nil
}

// newViewsCommand creates the views command.
func newViewsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List registered views and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"View", "Group", "Source", "Filterable", "Sortable"})
			for _, def := range core.All() {
				t.AppendRow(table.Row{
					def.Info.Key,
					def.Info.Group,
					string(def.Info.Source),
					columnIDs(def.Columns.Filterable()),
					columnIDs(def.Columns.Sortable()),
				})
			}
			t.Render()
			return nil
		},
	}
}

func columnIDs(cols core.Columns) string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return strings.Join(ids, ", ")
}
