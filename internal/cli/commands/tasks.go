package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/ctxpack/internal/cli/output"
	"github.com/leapstack-labs/ctxpack/internal/state"
	"github.com/spf13/cobra"
)

// NewTasksCommand creates the tasks command group.
func NewTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect the task store",
		Long: `Inspect analysis tasks recorded by "ctxpack serve" and "ctxpack analyze --store".`,
	}
	addStoreFlags(cmd.PersistentFlags())
	cmd.AddCommand(newTasksListCommand())
	cmd.AddCommand(newTasksShowCommand())
	return cmd
}

func newTasksListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tasks",
		Example: `  # Show the 20 most recent tasks
  ctxpack tasks list

  # As JSON
  ctxpack tasks list --limit 100 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tasks, err := store.ListTasks(ctx, limit)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				if tasks == nil {
					tasks = []*state.Task{}
				}
				return r.JSON(tasks)
			}

			r.Header(1, fmt.Sprintf("Tasks (%d)", len(tasks)))
			rows := make([]table.Row, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, table.Row{t.ID, t.Status, t.PayloadHash, formatTime(t.CreatedAt), t.Error})
			}
			r.Table(table.Row{"ID", "Status", "Payload hash", "Created", "Error"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of tasks to list")
	return cmd
}

func newTasksShowCommand() *cobra.Command {
	var result bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Example: `  # Show task details
  ctxpack tasks show 0b7a1c1e-0000-4000-8000-000000000001

  # Print the context pack of a completed task
  ctxpack tasks show --result 0b7a1c1e-0000-4000-8000-000000000001 > pack.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := uuid.Parse(args[0]); err != nil {
				return fmt.Errorf("invalid task id %q: %w", args[0], err)
			}
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			task, err := store.GetTask(ctx, args[0])
			if errors.Is(err, state.ErrTaskNotFound) {
				return fmt.Errorf("task %s not found", args[0])
			}
			if err != nil {
				return err
			}

			r := cc.Renderer
			if result {
				if task.Status != state.TaskComplete {
					return fmt.Errorf("task %s is %s, not %s", task.ID, task.Status, state.TaskComplete)
				}
				_, err := r.Out().Write(append(task.Result, '\n'))
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(task)
			}

			r.Header(1, "Task "+task.ID)
			r.KeyValue("Status", task.Status)
			r.KeyValue("Payload hash", task.PayloadHash)
			r.KeyValue("Created", formatTime(task.CreatedAt))
			r.KeyValue("Updated", formatTime(task.UpdatedAt))
			if task.Error != "" {
				r.KeyValue("Error", task.Error)
			}
			if len(task.Result) > 0 {
				r.KeyValue("Result", fmt.Sprintf("%d bytes (use --result to print)", len(task.Result)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&result, "result", false, "Print the context pack of a completed task")
	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
