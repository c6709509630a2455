package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/savedmaps"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
)

func mapsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maps",
		Aliases: []string{"map"},
		Short:   "Manage saved mind maps",
	}
	cmd.AddCommand(
		mapsListCmd(app),
		mapsShowCmd(app),
		mapsRenameCmd(app),
		mapsDeleteCmd(app),
		mapsCleanupCmd(app),
		mapsExportCmd(app),
		mapsImportCmd(app),
	)
	return cmd
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func mapsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved maps, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			maps, err := c.Repository.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(maps) == 0 {
				Subtle.Fprintln(out, "No saved maps")
				return nil
			}
			rows := make([][]string, 0, len(maps))
			for _, m := range maps {
				rows = append(rows, []string{
					m.Name,
					fmt.Sprint(len(m.Nodes)),
					fmt.Sprint(len(m.Edges)),
					formatTime(m.CreatedAt),
					formatTime(m.UpdatedAt),
				})
			}
			Table(out, []string{"NAME", "NODES", "EDGES", "CREATED", "UPDATED"}, rows)
			return nil
		},
	}
}

func mapsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print the nodes and edges of a saved map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			m, found, err := c.Repository.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("map %q not found", args[0])
			}
			Brand.Fprintln(cmd.OutOrStdout(), m.Name)
			printGraph(cmd.OutOrStdout(), m.Snapshot())
			return nil
		},
	}
}

func mapsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a saved map, replacing any map called NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			moved, err := c.Repository.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("map %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Renamed %q to %q\n", StatusIcon(true), args[0], args[1])
			return nil
		},
	}
}

func mapsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a saved map",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Repository.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %q\n", StatusIcon(true), args[0])
			return nil
		},
	}
}

func mapsCleanupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove saved maps that can no longer be read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := c.Repository.CleanupInvalid(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintf(out, "%s Nothing to clean up\n", StatusIcon(true))
				return nil
			}
			for _, name := range removed {
				fmt.Fprintf(out, "%s Removed %q\n", Warn.Sprint("!"), name)
			}
			return nil
		},
	}
}

func mapsExportCmd(app *App) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a saved map as JSON or XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			if format == "" && output != "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			f, err := savedmaps.ParseFormat(format)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			return c.Repository.Export(cmd.Context(), args[0], w, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or xml (default from --output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func mapsImportCmd(app *App) *cobra.Command {
	var format, name string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a map exported as JSON or XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[0]), ".")
			}
			f, err := savedmaps.ParseFormat(format)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			saved, err := c.Repository.Import(cmd.Context(), file, f, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %q (%d nodes, %d edges)\n",
				StatusIcon(true), saved.Name, len(saved.Nodes), len(saved.Edges))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or xml (default from the file extension)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "store under this name instead of the one in the file")
	return cmd
}

// printGraph lists nodes and edges, marking provisional ones.
func printGraph(w io.Writer, snap graph.Snapshot) {
	if len(snap.Nodes) == 0 {
		Subtle.Fprintln(w, "  (empty)")
		return
	}

	labels := make(map[string]string, len(snap.Nodes))
	rows := make([][]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		labels[n.ID] = n.Label
		mark := ""
		if n.Provisional {
			mark = "suggested"
		}
		rows = append(rows, []string{n.ID, n.Label, mark})
	}
	Table(w, []string{"ID", "LABEL", ""}, rows)

	if len(snap.Edges) == 0 {
		return
	}
	fmt.Fprintln(w)
	rows = rows[:0]
	for _, e := range snap.Edges {
		mark := ""
		switch {
		case e.Provisional:
			mark = "suggested"
		case e.Circular():
			mark = "self"
		}
		rows = append(rows, []string{labels[e.Source], "→", labels[e.Target], mark})
	}
	Table(w, []string{"FROM", "", "TO", ""}, rows)
}
