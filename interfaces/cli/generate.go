package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/services"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/render"
)

func generateCmd(app *App) *cobra.Command {
	var (
		level int
		save  string
	)
	cmd := &cobra.Command{
		Use:   "generate TEXT...",
		Short: "Generate a mind map from free text",
		Example: `  mindmap generate "weekend: hike, read and cook"
  mindmap generate --detail 5 --save trip plan a trip to Lisbon`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			session := c.NewSession(render.NewSurface(graph.Position{}))
			defer session.Close()

			text := strings.Join(args, " ")
			if err := session.Controller.Generate(cmd.Context(), text, level); err != nil {
				return fmt.Errorf("generation failed: %s", services.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			printGraph(out, session.Store.Snapshot())
			if save != "" {
				saved, err := session.Library.Save(cmd.Context(), save)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s Saved as %q\n", StatusIcon(true), saved.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&level, "detail", "d", 0, "detail level 1-5 (default from configuration)")
	cmd.Flags().StringVarP(&save, "save", "s", "", "save the generated map under this name")
	return cmd
}
