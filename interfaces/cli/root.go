package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the mindmap command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "mindmap",
		Short: "Build, explore and store mind maps",
		Long: Brand.Sprint("mindmap") + " turns free text into mind maps and keeps a local library of them\n" +
			Subtle.Sprint("Run `mindmap shell` for the interactive editor"),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "configuration file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&app.Remote, "remote", "", "use the map-my-mind API at this URL for generation")
	root.PersistentFlags().StringVar(&app.Storage, "storage", "", "storage driver: sqlite, postgres or memory")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		mapsCmd(app),
		generateCmd(app),
		shellCmd(app),
	)
	return root
}
