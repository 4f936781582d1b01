package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/internal/infrastructure/database/sqlite"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/planfile"
)

// NewHistoryCmd builds `fieldplan history`.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously generated plans",
		Long:  "Lists and shows plans from the local run history. Requires history.enabled.",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()
			comps, err := cliCtx.Components(ctx)
			if err != nil {
				return err
			}
			records, err := comps.Service.List(ctx, limit)
			if err != nil {
				return err
			}
			if records == nil {
				records = []sqlite.Record{}
			}
			return PrintResult(cmd, historyList(records))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of plans to list")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()
			comps, err := cliCtx.Components(ctx)
			if err != nil {
				return err
			}
			p, err := comps.Service.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, planView{Plan: p})
		},
	}
}

type historyList []sqlite.Record

func (h historyList) Text(s Styles) string {
	if len(h) == 0 {
		return s.Muted.Render("no plans recorded") + "\n"
	}
	var b strings.Builder
	for _, r := range h {
		b.WriteString(s.Value.Render(r.ID) + "  " +
			s.Muted.Render(r.CreatedAt.Local().Format("2006-01-02 15:04:05")) + "  " +
			s.Label.Render(strconv.Itoa(r.Fields)+" fields") + ", " +
			strconv.Itoa(r.TotalAP) + " AP, " + planfile.Distance(r.TotalMeters) + "\n")
	}
	return b.String()
}

func (h historyList) TableHeaders() []string {
	return []string{"ID", "CREATED", "PORTALS", "LINKS", "FIELDS", "AGENTS", "AP", "WALK"}
}

func (h historyList) TableRows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, r := range h {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.Itoa(r.Portals),
			strconv.Itoa(r.Links),
			strconv.Itoa(r.Fields),
			strconv.Itoa(r.Agents),
			strconv.Itoa(r.TotalAP),
			planfile.Distance(r.TotalMeters),
		})
	}
	return rows
}

//Personal.AI order the ending
