package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/authgate/pkg/api"
)

func newPostsCommand(run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write posts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all posts",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runPostsList(ctx)
		}),
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your posts",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runPostsMine(ctx)
		}),
	}

	byUser := &cobra.Command{
		Use:   "user <user-id>",
		Short: "List posts of a user",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runPostsByUser(ctx, args[0])
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runPostsGet(ctx, args[0])
		}),
	}

	var title, body string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runPostsCreate(ctx, title, body)
		}),
	}
	create.Flags().StringVar(&title, "title", "", "Post title")
	create.Flags().StringVar(&body, "body", "", "Post body")

	var newTitle, newBody string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a post you own",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runPostsUpdate(ctx, args[0], newTitle, newBody)
		}),
	}
	update.Flags().StringVar(&newTitle, "title", "", "New title")
	update.Flags().StringVar(&newBody, "body", "", "New body")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post you own",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runPostsDelete(ctx, args[0])
		}),
	}

	cmd.AddCommand(list, mine, byUser, get, create, update, del)
	return cmd
}

func (c *Cli) runPostsList(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	posts, err := c.apiClient.ListPosts(ctx)
	if err != nil {
		return err
	}
	return c.printPosts("All Posts", posts)
}

func (c *Cli) runPostsMine(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	posts, err := c.apiClient.MyPosts(ctx)
	if err != nil {
		return err
	}
	return c.printPosts("My Posts", posts)
}

func (c *Cli) runPostsByUser(ctx context.Context, userID string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	posts, err := c.apiClient.UserPosts(ctx, userID)
	if err != nil {
		return err
	}
	return c.printPosts("Posts by "+userID, posts)
}

func (c *Cli) runPostsGet(ctx context.Context, id string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	post, err := c.apiClient.GetPost(ctx, id)
	if err != nil {
		return err
	}
	return c.printPost(post)
}

func (c *Cli) runPostsCreate(ctx context.Context, title, body string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	title, err := c.inputOr(title, "Title: ")
	if err != nil {
		return err
	}
	body, err = c.inputOr(body, "Body: ")
	if err != nil {
		return err
	}
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	post, err := c.apiClient.CreatePost(ctx, api.PostRequest{Title: title, Body: body})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Post created: %s\n", post.ID)
	return nil
}

func (c *Cli) runPostsUpdate(ctx context.Context, id, title, body string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if title == "" && body == "" {
		return fmt.Errorf("nothing to update: use --title and/or --body")
	}

	current, err := c.apiClient.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if title == "" {
		title = current.Title
	}
	if body == "" {
		body = current.Body
	}

	post, err := c.apiClient.UpdatePost(ctx, id, api.PostRequest{Title: title, Body: body})
	if err != nil {
		return err
	}

	c.io.Println("✓ Post updated")
	return c.printPost(post)
}

func (c *Cli) runPostsDelete(ctx context.Context, id string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if err := c.apiClient.DeletePost(ctx, id); err != nil {
		return err
	}
	c.io.Printf("✓ Post %s deleted\n", id)
	return nil
}
