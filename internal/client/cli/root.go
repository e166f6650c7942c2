package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the snipbin command tree.
func NewRootCommand() (*cobra.Command, *App) {
	a := &App{}

	root := &cobra.Command{
		Use:               "snipbin",
		Short:             "Command-line client for the snipbin paste service",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVarP(&a.serverURL, "server", "s", "", "base URL of the snipbin API")
	pf.StringVar(&a.sessionDB, "session", "", "session database file")

	root.AddCommand(a.loginCommand(), a.logoutCommand(), a.postsCommand())
	return root, a
}

// Execute runs the CLI with args and releases the session database.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root, app := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := app.close(); err == nil {
		err = cerr
	}
	return err
}
