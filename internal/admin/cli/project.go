package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/spf13/cobra"
)

func (a *app) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd.Context(), func(b *Backend) error {
				list, err := b.Projects.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(a.out, "No projects found.")
					return nil
				}

				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tOWNER\tDATES\tDURATION\tTECHNOLOGIES")
				for _, p := range list {
					owner := p.UserID
					if p.Owner != nil {
						owner = p.Owner.Email
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s..%s\t%s\t%s\n",
						p.ID, p.Title, owner,
						p.StartDate.Format(common.DateLayout), p.EndDate.Format(common.DateLayout),
						p.Duration, strings.Join(p.Technologies, ","))
				}
				return w.Flush()
			})
		},
	})

	return cmd
}
