package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/internal/infrastructure/portalio"
	core "github.com/turtacn/fieldplan/internal/planning"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// ValidationReport is the result of `fieldplan validate`.
type ValidationReport struct {
	File       string         `json:"file"`
	Format     string         `json:"format"`
	Records    int            `json:"records"`
	Usable     int            `json:"usable"`
	Issues     []string       `json:"issues,omitempty"`
	Duplicates []plan.Warning `json:"duplicates,omitempty"`
	Dropped    []plan.Warning `json:"dropped,omitempty"`
}

// NewValidateCmd builds `fieldplan validate <file>`.
func NewValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a portal file without planning",
		Long:  "Parses and normalizes a portal file, then reports skipped records and duplicates.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			report, err := validateFile(cmd, args[0], format)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, report); err != nil {
				return err
			}
			if report.Usable < 3 {
				return errors.Newf(errors.ErrCodeInsufficientPoints, "need at least 3 distinct portals, got %d", report.Usable)
			}
			cliCtx.Logger.Debug("portal file valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "input format (auto, txt, csv, json, yaml, iitc)")
	return cmd
}

func validateFile(cmd *cobra.Command, path, format string) (*ValidationReport, error) {
	res, err := readPortals(cmd, path, format)
	if err != nil {
		return nil, err
	}

	portals, dups := portalio.Dedup(res.Records)
	norm, dropped, err := core.Normalize(portals)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{
		File:    path,
		Format:  string(res.Format),
		Records: len(res.Records) + len(res.Issues),
		Usable:  len(norm),
		Dropped: dropped,
	}
	for _, issue := range res.Issues {
		report.Issues = append(report.Issues, issue.String())
	}
	for _, d := range dups {
		report.Duplicates = append(report.Duplicates, d.Warning(portals[d.Kept]))
	}
	return report, nil
}

func (r *ValidationReport) Text(s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(r.File) + " " + s.Muted.Render("("+r.Format+")") + "\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %s\n",
		s.Label.Render("Records:"), s.Value.Render(strconv.Itoa(r.Records)),
		s.Label.Render("Usable portals:"), s.Value.Render(strconv.Itoa(r.Usable))))
	for _, issue := range r.Issues {
		b.WriteString(s.Warning.Render("skipped  "+issue) + "\n")
	}
	for _, d := range r.Duplicates {
		b.WriteString(s.Warning.Render("duplicate  "+d.Message) + "\n")
	}
	for _, d := range r.Dropped {
		b.WriteString(s.Warning.Render("dropped  "+d.Message) + "\n")
	}
	if len(r.Issues)+len(r.Duplicates)+len(r.Dropped) == 0 {
		b.WriteString(s.Success.Render("no problems found") + "\n")
	}
	return b.String()
}

func (r *ValidationReport) TableHeaders() []string {
	return []string{"KIND", "DETAIL"}
}

func (r *ValidationReport) TableRows() [][]string {
	var rows [][]string
	for _, issue := range r.Issues {
		rows = append(rows, []string{"skipped", issue})
	}
	for _, d := range r.Duplicates {
		rows = append(rows, []string{"duplicate", d.Message})
	}
	for _, d := range r.Dropped {
		rows = append(rows, []string{"dropped", d.Message})
	}
	return rows
}

//Personal.AI order the ending
