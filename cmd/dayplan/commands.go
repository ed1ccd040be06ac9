package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/version"
	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:8080"
	requestTimeout = 15 * time.Second
)

// app holds the global flags and output settings shared by all commands.
type app struct {
	out    io.Writer
	isTTY  func() bool
	server string
	token  string
	asJSON bool
	// httpClient overrides the client used for requests; tests inject one.
	httpClient *http.Client
}

func (a *app) client(timeout time.Duration) *Client {
	hc := a.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{BaseURL: a.server, Token: a.token, HTTPClient: hc}
}

// jsonOutput reports whether results are printed as JSON rather than tables.
func (a *app) jsonOutput() bool {
	return a.asJSON || a.isTTY == nil || !a.isTTY()
}

// fetch performs a request and returns the raw JSON body.
func (a *app) fetch(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := a.client(requestTimeout).do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// show prints raw as JSON, or decodes it into v and prints render(v).
func (a *app) show(raw json.RawMessage, v any, render func() string) error {
	if a.jsonOutput() {
		return writeJSONTo(a.out, raw)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	printf(a.out, "%s", render())
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dayplan",
		Short:         "Tasks, day plans and an assistant, from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.server, "server", envOr("DAYPLAN_SERVER", defaultServer), "server URL (or $DAYPLAN_SERVER)")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("DAYPLAN_TOKEN"), "session token (or $DAYPLAN_TOKEN)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON even on a terminal")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newTasksCmd(a),
		newTaskCmd(a),
		newPlansCmd(a),
		newPlanCmd(a),
		newChatCmd(a),
		newStatusCmd(a),
		newVersionCmd(a),
	)
	return root
}

// --- auth ---

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password is required: use --password or $DAYPLAN_PASSWORD")
			}
			raw, err := a.fetch(cmd.Context(), http.MethodPost, "/api/auth/login", map[string]string{
				"email": args[0], "password": password,
			})
			if err != nil {
				return err
			}
			var res struct {
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expiresAt"`
			}
			return a.show(raw, &res, func() string {
				return fmt.Sprintf("Logged in as %s until %s.\nexport DAYPLAN_TOKEN=%s\n",
					args[0], formatTime(&res.ExpiresAt), res.Token)
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", os.Getenv("DAYPLAN_PASSWORD"), "account password (or $DAYPLAN_PASSWORD)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client(requestTimeout).do(cmd.Context(), http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
				return err
			}
			printf(a.out, "Logged out.\n")
			return nil
		},
	}
}

// --- tasks ---

type taskRow struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	Status   string     `json:"status"`
	DueDate  *time.Time `json:"dueDate"`
	Deleted  bool       `json:"isDeleted"`
}

func newTasksCmd(a *app) *cobra.Command {
	var all bool
	var status string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if all {
				q.Set("includeDeleted", "true")
			}
			if status != "" {
				q.Set("status", status)
			}
			path := "/api/tasks"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			raw, err := a.fetch(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			var tasks []taskRow
			return a.show(raw, &tasks, func() string {
				if len(tasks) == 0 {
					return "no tasks\n"
				}
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					st := styleStatus(t.Status)
					if t.Deleted {
						st = styleDim.Render("deleted")
					}
					rows = append(rows, []string{t.ID, truncate(t.Title, 40), stylePriority(t.Priority), st, formatTime(t.DueDate)})
				}
				return renderTable([]string{"ID", "TITLE", "PRIORITY", "STATUS", "DUE"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deleted tasks")
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	return cmd
}

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, complete or delete a task",
	}

	var priority, due string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"title": strings.Join(args, " ")}
			if priority != "" {
				body["priority"] = priority
			}
			if due != "" {
				body["dueDate"] = due
			}
			raw, err := a.fetch(cmd.Context(), http.MethodPost, "/api/tasks", body)
			if err != nil {
				return err
			}
			var t taskRow
			return a.show(raw, &t, func() string {
				return fmt.Sprintf("Created task %s (%s).\n", t.ID, t.Title)
			})
		},
	}
	add.Flags().StringVar(&priority, "priority", "", "low, medium, high or urgent")
	add.Flags().StringVar(&due, "due", "", "due date, RFC 3339")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.fetch(cmd.Context(), http.MethodPatch, "/api/tasks/"+url.PathEscape(args[0]), map[string]string{"status": "completed"})
			if err != nil {
				return err
			}
			var t taskRow
			return a.show(raw, &t, func() string {
				return fmt.Sprintf("Completed %s.\n", t.Title)
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.remove(cmd.Context(), "/api/tasks/"+url.PathEscape(args[0]), "task")
		},
	}

	cmd.AddCommand(add, done, rm)
	return cmd
}

func (a *app) remove(ctx context.Context, path, entity string) error {
	raw, err := a.fetch(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	var res struct {
		ID string `json:"id"`
	}
	return a.show(raw, &res, func() string {
		return fmt.Sprintf("Deleted %s %s.\n", entity, res.ID)
	})
}

// --- plans ---

type planRow struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	IsTemplate bool      `json:"isTemplate"`
	CreatedAt  time.Time `json:"createdAt"`
}

type blockRow struct {
	ID        string    `json:"id"`
	TaskID    *string   `json:"taskId"`
	Title     string    `json:"title"`
	StartTS   time.Time `json:"startTs"`
	EndTS     time.Time `json:"endTs"`
	Completed bool      `json:"completed"`
}

func newPlansCmd(a *app) *cobra.Command {
	var templates bool
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/plans"
			if cmd.Flags().Changed("templates") {
				path += fmt.Sprintf("?isTemplate=%t", templates)
			}
			raw, err := a.fetch(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			var plans []planRow
			return a.show(raw, &plans, func() string {
				if len(plans) == 0 {
					return "no plans\n"
				}
				rows := make([][]string, 0, len(plans))
				for _, p := range plans {
					tmpl := ""
					if p.IsTemplate {
						tmpl = "yes"
					}
					rows = append(rows, []string{p.ID, truncate(p.Title, 40), tmpl, formatTime(&p.CreatedAt)})
				}
				return renderTable([]string{"ID", "TITLE", "TEMPLATE", "CREATED"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&templates, "templates", false, "only templates (or only non-templates with --templates=false)")
	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show or delete a plan",
	}
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a plan and its blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.fetch(cmd.Context(), http.MethodGet, "/api/plans/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			var p struct {
				planRow
				Blocks []blockRow `json:"blocks"`
			}
			return a.show(raw, &p, func() string {
				rows := make([][]string, 0, len(p.Blocks))
				for _, b := range p.Blocks {
					task := "-"
					if b.TaskID != nil {
						task = *b.TaskID
					}
					title := b.Title
					if b.Completed {
						title = styleDone.Render(title)
					}
					rows = append(rows, []string{b.StartTS.Local().Format("15:04"), b.EndTS.Local().Format("15:04"), title, task})
				}
				return styleHeader.Render(p.Title) + "\n\n" + renderTable([]string{"START", "END", "BLOCK", "TASK"}, rows)
			})
		},
	}
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a plan and its blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.remove(cmd.Context(), "/api/plans/"+url.PathEscape(args[0]), "plan")
		},
	}
	cmd.AddCommand(show, rm)
	return cmd
}

// --- assistant ---

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Streams run as long as the assistant does; the server bounds them.
			c := a.client(0)
			wrote := false
			err := c.chat(cmd.Context(), strings.Join(args, " "), func(ev streamEvent) {
				switch ev.Type {
				case "text":
					printf(a.out, "%s", ev.Text)
					wrote = true
				case "tool_call":
					if !a.jsonOutput() {
						printf(a.out, "%s\n", styleDim.Render("→ "+ev.Tool))
					}
				case "tool_result":
					if ev.IsError && !a.jsonOutput() {
						printf(a.out, "%s\n", styleDim.Render("✗ "+ev.Tool+": "+ev.Error))
					}
				}
			})
			if wrote {
				printf(a.out, "\n")
			}
			return err
		},
	}
}

// --- status / version ---

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.fetch(cmd.Context(), http.MethodGet, "/api/status", nil)
			if err != nil {
				return err
			}
			var st map[string]string
			return a.show(raw, &st, func() string {
				return fmt.Sprintf("status:   %s\nversion:  %s\nprovider: %s\nuptime:   %s\n",
					st["status"], st["version"], st["provider"], st["uptime"])
			})
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			printf(a.out, "dayplan %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildDate)
		},
	}
}
