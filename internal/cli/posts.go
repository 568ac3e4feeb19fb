package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-blog-admin/blogs"
	"github.com/jrsteele09/go-blog-admin/guard"
	"github.com/jrsteele09/go-blog-admin/internal/utils"
)

func (a *App) postsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"blogs"},
		Short:   "List and edit blog posts",
	}
	cmd.AddCommand(
		a.postsListCommand(),
		a.postsGetCommand(),
		a.postsCreateCommand(),
		a.postsEditCommand(),
		a.postsToggleCommand(),
	)
	return cmd
}

func (a *App) postsListCommand() *cobra.Command {
	var (
		page, limit int
		q           blogs.Query
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: a.guarded(guard.RouteProtected, func(cmd *cobra.Command, _ []string) error {
			q.Page, q.Limit = utils.Ptr(page), utils.Ptr(limit)
			result, err := a.api.ListBlogs(cmd.Context(), q)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(result)
			}
			if len(result.Blogs) == 0 {
				a.mutedf("No posts found.")
				return nil
			}

			rows := make([][]string, 0, len(result.Blogs))
			for _, b := range result.Blogs {
				rows = append(rows, []string{b.ID, b.Title, utils.Capitalize(string(b.Status)), b.Category, utils.FormatDate(b.CreatedAt)})
			}
			if err := a.printTable([]string{"ID", "TITLE", "STATUS", "CATEGORY", "CREATED"}, rows); err != nil {
				return err
			}
			if result.CurrentPage != nil && result.TotalPages != nil {
				a.mutedf("Page %d of %d (%d posts)", utils.Value(result.CurrentPage), utils.Value(result.TotalPages), utils.ValueOr(result.TotalBlogs, len(result.Blogs)))
			}
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.IntVar(&page, "page", 1, "Page number")
	flags.IntVar(&limit, "limit", 10, "Posts per page")
	flags.StringVar(&q.Status, "status", "", "Only posts with this status (published or draft)")
	flags.StringVar(&q.Category, "category", "", "Only posts in this category")
	flags.StringVar(&q.Title, "title", "", "Only posts whose title contains this text")
	return cmd
}

func (a *App) postsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(guard.RouteProtected, func(cmd *cobra.Command, args []string) error {
			b, err := a.api.GetBlog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(b)
			}
			if err := a.printFields([][2]string{
				{"ID", b.ID},
				{"Title", b.Title},
				{"Status", utils.Capitalize(string(b.Status))},
				{"Category", b.Category},
				{"Image", b.Image},
				{"Created", utils.FormatDateTime(b.CreatedAt)},
				{"Updated", utils.FormatDateTime(b.UpdatedAt)},
			}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "\n%s\n", b.Content)
			return err
		}),
	}
}

// postFlags are shared by create and edit.
type postFlags struct {
	title, content, contentFile, category, status, image string
}

func (p *postFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&p.title, "title", "", "Post title")
	flags.StringVar(&p.content, "content", "", "Post body")
	flags.StringVar(&p.contentFile, "content-file", "", "Read the post body from a file")
	flags.StringVar(&p.category, "category", "", "Post category")
	flags.StringVar(&p.status, "status", "", "published or draft")
	flags.StringVar(&p.image, "image", "", "Path of a cover image to upload")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

// apply overlays the flags that were set onto in. The returned func closes the image file.
func (p *postFlags) apply(cmd *cobra.Command, in *blogs.Input) (func(), error) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title = p.title
	}
	if flags.Changed("content") {
		in.Content = p.content
	}
	if p.contentFile != "" {
		data, err := os.ReadFile(p.contentFile)
		if err != nil {
			return func() {}, errors.Wrap(err, "[posts] read content file")
		}
		in.Content = string(data)
	}
	if flags.Changed("category") {
		in.Category = p.category
	}
	if flags.Changed("status") {
		in.Status = blogs.Status(p.status)
	}
	if p.image == "" {
		return func() {}, nil
	}
	f, err := os.Open(p.image)
	if err != nil {
		return func() {}, errors.Wrap(err, "[posts] open image")
	}
	in.Image = &blogs.File{Name: filepath.Base(p.image), Reader: f}
	return func() { f.Close() }, nil
}

func (a *App) postsCreateCommand() *cobra.Command {
	var p postFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: a.guarded(guard.RouteProtected, func(cmd *cobra.Command, _ []string) error {
			var in blogs.Input
			closeImage, err := p.apply(cmd, &in)
			defer closeImage()
			if err != nil {
				return err
			}
			b, err := a.api.CreateBlog(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printBlogResult(b, "Created post %s.")
		}),
	}
	p.register(cmd)
	return cmd
}

func (a *App) postsEditCommand() *cobra.Command {
	var p postFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a post. Fields without a flag keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(guard.RouteProtected, func(cmd *cobra.Command, args []string) error {
			current, err := a.api.GetBlog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := blogs.Input{
				Title:    current.Title,
				Content:  current.Content,
				Category: current.Category,
				Status:   current.Status,
			}
			closeImage, err := p.apply(cmd, &in)
			defer closeImage()
			if err != nil {
				return err
			}
			b, err := a.api.EditBlog(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.printBlogResult(b, "Updated post %s.")
		}),
	}
	p.register(cmd)
	return cmd
}

func (a *App) postsToggleCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a post between published and draft",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(guard.RouteProtected, func(cmd *cobra.Command, args []string) error {
			b, err := a.api.ToggleBlogStatus(cmd.Context(), args[0], blogs.Status(status))
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(b)
			}
			a.successf("Post %s is now %s.", strconv.Quote(b.Title), b.Status)
			return nil
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "Set this status instead of flipping the current one")
	return cmd
}

func (a *App) printBlogResult(b *blogs.Blog, format string) error {
	if a.jsonOutput {
		return a.printJSON(b)
	}
	a.successf(format, b.ID)
	return nil
}
