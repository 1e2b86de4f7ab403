package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/pm-tracker/internal/client"
	"github.com/sakif/pm-tracker/internal/model"
)

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"p"},
		Short:   "Manage your projects",
	}
	cmd.AddCommand(
		a.projectsListCmd(),
		a.projectsGetCmd(),
		a.projectsCreateCmd(),
		a.projectsUpdateCmd(),
		a.projectsDeleteCmd(),
	)
	return cmd
}

func (a *app) projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your projects, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			projects, err := c.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				printf(cmd, "No projects yet.\n")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCREATED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.Status, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func (a *app) projectsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			p, err := c.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			printProject(cmd, p)
			return nil
		},
	}
}

func (a *app) projectsCreateCmd() *cobra.Command {
	var title, description, status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			in := client.NewProject{Title: title}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("status") {
				s := model.Status(status)
				in.Status = &s
			}

			p, err := c.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			printf(cmd, "Created project %d\n", p.ID)
			printProject(cmd, p)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "project title")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	cmd.Flags().StringVar(&status, "status", "", "one of "+statusChoices()+` (default "Pending")`)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) projectsUpdateCmd() *cobra.Command {
	var title, description, status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			var patch model.ProjectPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				s := model.Status(status)
				patch.Status = &s
			}

			p, err := c.UpdateProject(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			printProject(cmd, p)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "one of "+statusChoices())
	return cmd
}

func (a *app) projectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Deleted project %d\n", id)
			return nil
		},
	}
}

func statusChoices() string {
	quoted := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		quoted[i] = strconv.Quote(string(s))
	}
	return strings.Join(quoted, ", ")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func printProject(cmd *cobra.Command, p *model.Project) {
	description := "-"
	if p.Description != nil && *p.Description != "" {
		description = *p.Description
	}
	printf(cmd, "ID:          %d\n", p.ID)
	printf(cmd, "Title:       %s\n", p.Title)
	printf(cmd, "Description: %s\n", description)
	printf(cmd, "Status:      %s\n", p.Status)
	printf(cmd, "Created:     %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
}
