package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/mutation"
)

type runtimeFunc func() *runtime

// filterFlags binds the list facets to flags.
type filterFlags struct {
	status     []string
	priority   []string
	typ        string
	assignedTo string
	search     string
	dateRange  string
	sortBy     string
	sortOrder  string
	page       int
	pageSize   int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVar(&f.status, "status", nil, "status facet, repeatable (pending, contacted, ...)")
	fl.StringSliceVar(&f.priority, "priority", nil, "priority facet; only the first value is sent")
	fl.StringVar(&f.typ, "type", "", "inquiry type")
	fl.StringVar(&f.assignedTo, "assigned-to", "", `agent id or "unassigned"`)
	fl.StringVar(&f.search, "search", "", "free text search")
	fl.StringVar(&f.dateRange, "range", string(domain.DateRangeAll), "today, week, month or all")
	fl.StringVar(&f.sortBy, "sort", filter.DefaultSortBy, "sort field")
	fl.StringVar(&f.sortOrder, "order", string(domain.SortDesc), "asc or desc")
	fl.IntVar(&f.page, "page", 1, "page number")
	fl.IntVar(&f.pageSize, "page-size", filter.DefaultPageSize, "rows per page")
}

func (f *filterFlags) state() filter.State {
	s := filter.Default()
	for _, v := range f.status {
		s.Status = append(s.Status, domain.Status(v))
	}
	for _, v := range f.priority {
		s.Priority = append(s.Priority, domain.Priority(v))
	}
	s.InquiryType = f.typ
	s.AssignedTo = f.assignedTo
	s.Search = f.search
	s.DateRange = domain.DateRange(f.dateRange)
	s.SortBy = f.sortBy
	s.SortOrder = domain.SortOrder(f.sortOrder)
	s.Page = f.page
	s.PageSize = f.pageSize
	return s
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid inquiry id %q", raw)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func listCmd(rt runtimeFunc) *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inquiries matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := rt()
			if err := r.list.SetFilters(cmd.Context(), flags.state()); err != nil {
				return err
			}
			view := r.list.View()
			if r.asJSON {
				return r.printJSON(view)
			}
			r.printer.List(view)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func statsCmd(rt runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := rt()
			if err := r.list.RefreshStats(cmd.Context()); err != nil {
				return err
			}
			stats := r.list.View().Stats
			if r.asJSON {
				return r.printJSON(stats)
			}
			r.printer.Stats(*stats)
			return nil
		},
	}
}

func showCmd(rt runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one inquiry with its activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := rt()
			view, err := r.detail.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if view.NotFound {
				return fmt.Errorf("inquiry %s not found", args[0])
			}
			if r.asJSON {
				return r.printJSON(view)
			}
			r.printer.Detail(view)
			return nil
		},
	}
}

func statusCmd(rt runtimeFunc) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change an inquiry's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			if err := rt().coordinator.UpdateStatus(cmd.Context(), id, domain.Status(args[1]), notesPtr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d is now %s\n", id, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "response notes")
	return cmd
}

func assignCmd(rt runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign an inquiry to yourself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt().coordinator.AssignToCurrentUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d assigned to you\n", id)
			return nil
		},
	}
}

func scheduleCmd(rt runtimeFunc) *cobra.Command {
	var req mutation.ViewingRequest
	cmd := &cobra.Command{
		Use:   "schedule <id>",
		Short: "Schedule a property viewing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt().coordinator.ScheduleViewing(cmd.Context(), id, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "viewing for #%d scheduled at %s\n", id, req.ViewingTime)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ViewingTime, "at", "", "viewing time, e.g. 2026-03-20T10:00")
	cmd.Flags().StringVar(&req.Address, "address", "", "meeting address")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "notes for the submitter")
	return cmd
}

func bulkAssignCmd(rt runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-assign <id>...",
		Short: "Assign several inquiries to yourself, one request each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			res := rt().coordinator.BulkAssignToCurrentUser(cmd.Context(), ids)
			out := cmd.OutOrStdout()
			for _, id := range res.Succeeded {
				fmt.Fprintf(out, "#%d assigned\n", id)
			}
			for _, item := range res.Failed {
				fmt.Fprintf(out, "#%d failed: %v\n", item.ID, item.Err)
			}
			return res.Err()
		},
	}
}

func bulkUpdateCmd(rt runtimeFunc) *cobra.Command {
	var status, priority string
	cmd := &cobra.Command{
		Use:   "bulk-update <id>...",
		Short: "Set status or priority on several inquiries in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			patch := map[string]any{}
			if status != "" {
				patch["status"] = status
			}
			if priority != "" {
				patch["priority"] = priority
			}
			if err := rt().coordinator.BulkUpdate(cmd.Context(), ids, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d inquiries updated\n", len(ids))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	return cmd
}

func exportCmd(rt runtimeFunc) *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Start an export of the inquiries matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := rt()
			if err := r.list.SetFilters(cmd.Context(), flags.state()); err != nil {
				return err
			}
			job, err := r.list.Export(cmd.Context())
			if err != nil {
				return err
			}
			if r.asJSON {
				return r.printJSON(job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export %s %s\n", job.JobID, job.Status)
			if job.DownloadURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), job.DownloadURL)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
