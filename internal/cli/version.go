package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is the version command's output shape.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion()
		},
	}
}

func (c *CLI) runVersion() error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if c.jsonOutput {
		return c.outputJSON(info)
	}
	c.printf("stridecheck %s\n", info.Version)
	c.printf("  commit:  %s\n", info.GitCommit)
	c.printf("  built:   %s\n", info.BuildDate)
	c.printf("  go:      %s (%s/%s)\n", info.GoVersion, info.OS, info.Arch)
	return nil
}
