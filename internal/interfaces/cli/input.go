package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/internal/infrastructure/portalio"
	"github.com/turtacn/fieldplan/pkg/errors"
)

// readPortals parses path, or stdin when path is "-". An "auto" format is
// taken from the file extension and then the content.
func readPortals(cmd *cobra.Command, path, format string) (*portalio.Result, error) {
	f, err := portalio.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch {
	case path == "-":
		return portalio.Parse(cmd.InOrStdin(), f)
	case f == portalio.FormatAuto:
		return portalio.Load(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInputUnreadable, "cannot read portal file").WithDetail(path)
	}
	return portalio.ParseBytes(data, f)
}

//Personal.AI order the ending
