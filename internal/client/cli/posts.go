package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/client/client"
	"github.com/dmitrijs2005/snipbin/internal/client/models"
	"github.com/spf13/cobra"
)

func (a *App) postsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and create posts",
	}
	cmd.AddCommand(a.listCommand(), a.getCommand(), a.createCommand())
	return cmd
}

func (a *App) listCommand() *cobra.Command {
	var (
		q   client.ListQuery
		all bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if all {
				posts, err := a.api.ListAllPosts(ctx, q)
				if err != nil {
					return explain(err)
				}
				return printPosts(out, posts)
			}

			page, err := a.api.ListPosts(ctx, q)
			if err != nil {
				return explain(err)
			}
			if err := printPosts(out, page.Data); err != nil {
				return err
			}
			if len(page.Data) > 0 && page.Token != nil {
				fmt.Fprintf(out, "next page: --token %s\n", *page.Token)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "follow continuation tokens until the last page")
	f.StringVar(&q.Sort, "sort", "", "sort as key:direction, e.g. createdAt:desc")
	f.IntVar(&q.Count, "count", 0, "page size")
	f.StringVar(&q.Token, "token", "", "continuation token of the previous page")
	f.StringVar(&q.OwnerID, "owner", "", "only posts of this account id")
	f.StringVar(&q.Language, "language", "", "only posts in this language")
	return cmd
}

func printPosts(w io.Writer, posts []*models.Post) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tUPDATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, orDash(p.Name), orDash(p.Language), p.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func (a *App) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a post's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.GetPost(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), p.Content)
			return err
		},
	}
}

func (a *App) createCommand() *cobra.Command {
	var name, language, file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post from --file or standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				content []byte
				err     error
			)
			if file != "" {
				content, err = os.ReadFile(file)
			} else {
				content, err = io.ReadAll(a.in)
			}
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}

			in := models.NewPost{Content: string(content)}
			if name != "" {
				in.Name = &name
			}
			if language != "" {
				in.Language = &language
			}

			p, err := a.api.CreatePost(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s/posts/%s/raw\n", p.ID, strings.TrimRight(a.config.ServerURL, "/"), p.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "post name")
	f.StringVar(&language, "language", "", "language of the content")
	f.StringVar(&file, "file", "", "read content from this file")
	return cmd
}
