package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// AccountInfo is the rendered view of the signed in account.
type AccountInfo struct {
	libadmin.AdminInfo `yaml:",inline"`

	Capabilities []libadmin.Capability `json:"capabilities" yaml:"capabilities"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the signed in account",
		Long:  "Display the account behind the stored session together with what its role allows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				info, err := client.Admin().Info(ctx)
				if err != nil {
					return err
				}

				account := &AccountInfo{
					AdminInfo:    *info,
					Capabilities: info.Role.Capabilities(),
				}

				renderer := OutputRenderer[*AccountInfo]{
					RenderJSON:  StandardJSONRenderer[*AccountInfo],
					RenderYAML:  StandardYAMLRenderer[*AccountInfo],
					RenderTable: renderAccountTable,
				}

				return renderer.Render(cmd.OutOrStdout(), account, viper.GetString(keyOutput))
			})
		},
	}
}

func renderAccountTable(w io.Writer, account *AccountInfo) error {
	caps := make([]string, 0, len(account.Capabilities))
	for _, c := range account.Capabilities {
		caps = append(caps, string(c))
	}

	return renderProperties(w, [][2]string{
		{"Username", account.Username},
		{"Full Name", account.FullName},
		{"Email", account.Email},
		{"Role", string(account.Role)},
		{"Capabilities", strings.Join(caps, ", ")},
	})
}
