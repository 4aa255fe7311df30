package cmd

import "github.com/spf13/cobra"

// skipWiringAnnotation marks commands that run without config or services.
const skipWiringAnnotation = "taskgate/skip-wiring"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "taskgate",
		Short:         "taskgate: session-gated task management",
		Long:          "taskgate authenticates a single session against configured credentials and lets the logged-in user create, list, update and delete the tasks they own.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := cmd.Annotations[skipWiringAnnotation]; ok {
				return nil
			}
			return app.wire(opts, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.taskgate/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newDemoCmd(app),
		newShellCmd(app),
		newTaskCmd(app),
	)

	return rootCmd
}
