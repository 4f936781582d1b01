package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/internal/application/planning"
	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/internal/infrastructure/portalio"
	"github.com/turtacn/fieldplan/internal/infrastructure/storage/planfile"
	core "github.com/turtacn/fieldplan/internal/planning"
	"github.com/turtacn/fieldplan/pkg/client"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

type planFlags struct {
	agents      int
	seed        int64
	timeBudget  time.Duration
	maxRestarts int
	workers     int
	format      string
	export      string
	compress    bool
	upload      bool
	verify      bool
	start       string
	noCache     bool
	server      string
}

// NewPlanCmd builds `fieldplan plan <file>`.
func NewPlanCmd() *cobra.Command {
	f := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Generate a link and field plan from a portal list",
		Long: "Reads portals from a text, CSV, JSON, YAML or IITC export file and prints\n" +
			"the build order that maximizes AP. Use - to read from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.agents, "agents", "k", 1, "number of agents to split the plan across")
	fl.Int64Var(&f.seed, "seed", 0, "random seed (default: configured seed)")
	fl.DurationVar(&f.timeBudget, "time-budget", 0, "search time budget (default: configured, 10s)")
	fl.IntVar(&f.maxRestarts, "max-restarts", 0, "maximum search restarts (default: configured, 64)")
	fl.IntVar(&f.workers, "workers", 0, "parallel search workers (default: GOMAXPROCS)")
	fl.StringVarP(&f.format, "format", "f", "auto", "input format (auto, txt, csv, json, yaml, iitc)")
	fl.StringVar(&f.export, "export", "", "write the plan file into this directory")
	fl.BoolVar(&f.compress, "compress", false, "zstd-compress the exported plan")
	fl.BoolVar(&f.upload, "upload", false, "upload the plan to object storage")
	fl.BoolVar(&f.verify, "verify", false, "check the plan against its structural invariants")
	fl.StringVar(&f.start, "start", "", "name of the portal to start the build at")
	fl.BoolVar(&f.noCache, "no-cache", false, "bypass the plan cache")
	fl.StringVar(&f.server, "server", "", "plan on a running fieldplan server at this URL instead of locally")
	return cmd
}

func runPlan(cmd *cobra.Command, path string, f *planFlags) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if f.agents < 1 {
		return errors.Newf(errors.ErrCodeInvalidAgentCount, "agent count must be at least 1, got %d", f.agents)
	}

	portals, err := loadPortals(cmd, cliCtx, path, f.format)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd, cliCtx)
	defer cancel()

	var (
		p       *plan.Plan
		planErr error
	)
	if f.server != "" {
		p, err = planRemote(ctx, cmd, cliCtx, f, portals)
		if err != nil {
			return err
		}
	} else {
		p, planErr = planLocal(ctx, cmd, cliCtx, f, portals)
		if p == nil {
			return planErr
		}
	}

	if f.verify && planErr == nil {
		if err := core.Validate(p); err != nil {
			return err
		}
		PrintSuccess(cmd, cliCtx.Styles, "plan satisfies all invariants")
	}

	if f.export != "" || f.upload {
		comps, err := cliCtx.Components(ctx)
		if err != nil {
			return err
		}
		res, err := comps.Service.Export(ctx, p, planning.ExportOptions{
			Dir:      f.export,
			Compress: f.compress,
			Upload:   f.upload,
		})
		if err != nil {
			return err
		}
		if res.Path != "" {
			PrintSuccess(cmd, cliCtx.Styles, "plan written to "+res.Path)
		}
		if res.ObjectKey != "" {
			PrintSuccess(cmd, cliCtx.Styles, "plan uploaded as "+res.ObjectKey)
		}
	}

	if err := PrintResult(cmd, planView{Plan: p}); err != nil {
		return err
	}
	return planErr
}

func planLocal(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, f *planFlags, portals []plan.Portal) (*plan.Plan, error) {
	comps, err := cliCtx.Components(ctx)
	if err != nil {
		return nil, err
	}
	req := &planning.PlanRequest{
		Portals:     portals,
		Agents:      f.agents,
		TimeBudget:  f.timeBudget,
		MaxRestarts: f.maxRestarts,
		Workers:     f.workers,
		StartPortal: f.start,
		NoCache:     f.noCache,
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &f.seed
	}

	resp, planErr := comps.Service.Plan(ctx, req)
	if resp == nil || resp.Plan == nil {
		return nil, planErr
	}
	cliCtx.Logger.Debug("plan ready",
		logging.String("id", resp.Plan.ID),
		logging.Bool("cached", resp.Cached),
		logging.Int("restarts", resp.Plan.Stats.Restarts))
	return resp.Plan, planErr
}

// planRemote sends the portals to a fieldplan server. A plan the server
// could only build in part comes back with its warnings and no error.
func planRemote(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, f *planFlags, portals []plan.Portal) (*plan.Plan, error) {
	c, err := client.NewClient(f.server)
	if err != nil {
		return nil, err
	}
	req := &client.CreatePlanRequest{
		Portals:      portals,
		Agents:       f.agents,
		TimeBudgetMS: f.timeBudget.Milliseconds(),
		MaxRestarts:  f.maxRestarts,
		Workers:      f.workers,
		Start:        f.start,
		NoCache:      f.noCache,
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &f.seed
	}

	res, err := c.Plans().Create(ctx, req)
	if err != nil {
		var apiErr *client.APIError
		if stderrors.As(err, &apiErr) {
			return nil, apiErr.AppError()
		}
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "plan server unreachable").WithDetail(f.server)
	}
	cliCtx.Logger.Debug("remote plan ready",
		logging.String("id", res.Plan.ID),
		logging.String("server", f.server),
		logging.Bool("cached", res.Cached))
	return res.Plan, nil
}

// loadPortals reads path ("-" for stdin), reports skipped records and
// duplicates, and returns the unique portals.
func loadPortals(cmd *cobra.Command, cliCtx *CLIContext, path, format string) ([]plan.Portal, error) {
	res, err := readPortals(cmd, path, format)
	if err != nil {
		return nil, err
	}

	for _, issue := range res.Issues {
		if cliCtx.Verbose {
			PrintWarning(cmd, cliCtx.Styles, issue.String())
		}
	}
	if n := len(res.Issues); n > 0 && !cliCtx.Verbose {
		PrintWarning(cmd, cliCtx.Styles, fmt.Sprintf("%d record%s skipped (use --verbose for details)", n, plural(n)))
	}

	portals, dups := portalio.Dedup(res.Records)
	for _, d := range dups {
		w := d.Warning(portals[d.Kept])
		PrintWarning(cmd, cliCtx.Styles, w.Message)
	}
	return portals, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// planView renders a plan for every output format. JSON output is the plan
// itself.
type planView struct {
	*plan.Plan
}

func (v planView) Text(s Styles) string {
	p := v.Plan
	sum := p.Summarize()
	var b strings.Builder

	b.WriteString(s.Title.Render("Plan "+p.ID) + "\n")
	stat := func(label, value string) string {
		return s.Label.Render(label+":") + " " + s.Value.Render(value)
	}
	b.WriteString(strings.Join([]string{
		stat("Portals", strconv.Itoa(sum.Portals)),
		stat("Links", strconv.Itoa(sum.Links)),
		stat("Fields", strconv.Itoa(sum.Fields)),
		stat("AP", strconv.Itoa(sum.TotalAP)),
		stat("Walk", planfile.Distance(sum.TotalMeters)),
	}, "  ") + "\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("seed %d, %d restarts, %s",
		p.Stats.Seed, p.Stats.Restarts, p.Stats.Elapsed.Truncate(time.Millisecond))) + "\n\n")

	writeSteps := func(actions []plan.Action) {
		for i, a := range actions {
			b.WriteString(planfile.StepLine(p, i+1, a) + "\n")
		}
	}
	if len(p.Agents) == 0 {
		writeSteps(p.Actions)
	}
	for _, ag := range p.Agents {
		b.WriteString(s.Title.Render(fmt.Sprintf("Agent %d", ag.Agent+1)) + " " +
			s.Muted.Render(fmt.Sprintf("%d links, %d fields, %d AP, walk %s",
				len(ag.Links), len(ag.Fields), ag.TotalAP, planfile.Distance(ag.TotalMeters))) + "\n")
		writeSteps(ag.Actions)
		b.WriteString("\n")
	}

	for _, w := range p.Warnings {
		b.WriteString(s.Warning.Render(fmt.Sprintf("[%s] %s", w.Code, w.Message)) + "\n")
	}
	return b.String()
}

func (v planView) TableHeaders() []string {
	return []string{"STEP", "AGENT", "ACTION", "FROM", "TO", "AP", "FIELDS", "TOTAL AP", "WALK"}
}

func (v planView) TableRows() [][]string {
	p := v.Plan
	var rows [][]string
	add := func(agent string, actions []plan.Action) {
		for i, a := range actions {
			to := ""
			if a.Kind == plan.ActionLink {
				to = p.PortalName(a.Dest)
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				agent,
				string(a.Kind),
				p.PortalName(a.Origin),
				to,
				strconv.Itoa(a.LinkAP + a.FieldAP),
				strconv.Itoa(len(a.FieldsCompleted)),
				strconv.Itoa(a.CumulativeAP),
				planfile.Distance(a.CumulativeMeters),
			})
		}
	}
	if len(p.Agents) == 0 {
		add("1", p.Actions)
	}
	for _, ag := range p.Agents {
		add(strconv.Itoa(ag.Agent+1), ag.Actions)
	}
	return rows
}

//Personal.AI order the ending
