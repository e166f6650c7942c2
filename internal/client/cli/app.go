package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/snipbin/internal/client/client"
	"github.com/dmitrijs2005/snipbin/internal/client/config"
	"github.com/dmitrijs2005/snipbin/internal/client/repositories/metadata"
	"github.com/spf13/cobra"
)

// App is the state shared by the commands of one invocation.
type App struct {
	configPath string
	serverURL  string
	sessionDB  string

	config *config.Config
	repos  *client.Repositories
	api    *client.HTTPClient
	in     *bufio.Reader
}

// setup loads the config, opens the session database and restores the
// stored credential when it was issued by the configured server.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerURL = a.serverURL
	}
	if cmd.Flags().Changed("session") {
		cfg.SessionDB = a.sessionDB
	}
	a.config = cfg

	ctx := cmd.Context()
	repos, err := client.InitDatabase(ctx, cfg.SessionDB)
	if err != nil {
		return err
	}
	a.repos = repos
	a.api = client.New(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout})
	a.in = bufio.NewReader(cmd.InOrStdin())

	server, err := repos.Metadata.Get(ctx, metadata.KeyServerURL)
	if err != nil {
		return err
	}
	if string(server) != cfg.ServerURL {
		return nil
	}
	token, err := repos.Metadata.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return err
	}
	a.api.SetToken(string(token))
	return nil
}

func (a *App) close() error {
	if a.repos == nil {
		return nil
	}
	err := a.repos.Close()
	a.repos = nil
	return err
}

func (a *App) saveSession(ctx context.Context, token string) error {
	if err := a.repos.Metadata.Set(ctx, metadata.KeyServerURL, []byte(a.config.ServerURL)); err != nil {
		return err
	}
	return a.repos.Metadata.Set(ctx, metadata.KeyAccessToken, []byte(token))
}

func (a *App) clearSession(ctx context.Context) error {
	return a.repos.Metadata.Delete(ctx, metadata.KeyAccessToken)
}

// explain turns the common API failures into actionable messages.
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return errors.New("not logged in, run `snipbin login` first")
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w: the stored credential was rejected, run `snipbin login` again", err)
	}
	return err
}
