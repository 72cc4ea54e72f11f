package commands

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// VersionInfo describes the build.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Built   string `json:"built"   yaml:"built"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the libadmin CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			versionInfo := &VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			renderer := OutputRenderer[*VersionInfo]{
				RenderJSON: StandardJSONRenderer[*VersionInfo],
				RenderYAML: StandardYAMLRenderer[*VersionInfo],
				RenderTable: func(w io.Writer, info *VersionInfo) error {
					return renderProperties(w, [][2]string{
						{"Version", info.Version},
						{"Commit", info.Commit},
						{"Built", info.Built},
					})
				},
			}

			return renderer.Render(cmd.OutOrStdout(), versionInfo, viper.GetString(keyOutput))
		},
	}
}
