package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is printed by `fieldplan version`.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (v VersionInfo) Text(s Styles) string {
	return fmt.Sprintf("%s %s\n%s %s\n%s %s\n%s %s\n",
		s.Label.Render("fieldplan"), s.Value.Render(v.Version),
		s.Label.Render("commit:   "), v.GitCommit,
		s.Label.Render("built:    "), v.BuildDate,
		s.Label.Render("go:       "), v.GoVersion+" "+v.Platform)
}

// NewVersionCmd builds `fieldplan version`.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, VersionInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
}

//Personal.AI order the ending
