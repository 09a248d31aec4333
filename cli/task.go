package cli

import (
	"context"
	"time"

	"github.com/hotelbey/bey/engine"
	"github.com/spf13/cobra"
)

func newTaskCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "task",
		Short:       "Manage and query external tasks",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newTaskBpmnErrorCmd(cli))
	c.AddCommand(newTaskCompleteCmd(cli))
	c.AddCommand(newTaskCreateCmd(cli))
	c.AddCommand(newTaskExtendLockCmd(cli))
	c.AddCommand(newTaskFailCmd(cli))
	c.AddCommand(newTaskFetchAndLockCmd(cli))
	c.AddCommand(newTaskQueryCmd(cli))
	c.AddCommand(newTaskShowCmd(cli))
	c.AddCommand(newTaskUnlockCmd(cli))

	return &c
}

func newTaskBpmnErrorCmd(cli *Cli) *cobra.Command {
	var (
		variables variablesValue

		cmd engine.BpmnErrorCmd
	)

	c := cobra.Command{
		Use:   "bpmn-error",
		Short: "Report a business error for a locked task",
		RunE: func(c *cobra.Command, _ []string) error {
			v, err := mapVariables(variables)
			if err != nil {
				return err
			}

			cmd.Variables = v
			cmd.WorkerId = cli.workerId

			return cli.e.HandleBpmnError(context.Background(), cmd)
		},
	}

	flagTaskId(&c, &cmd.Id)

	c.Flags().StringVar(&cmd.ErrorCode, "error-code", "", "Code of the business error")
	c.Flags().StringVar(&cmd.ErrorMessage, "error-message", "", "Human-readable error message")
	c.Flags().Var(&variables, "variable", "Variable to set, when the error is caught")

	c.MarkFlagRequired("error-code")

	return &c
}

func newTaskCompleteCmd(cli *Cli) *cobra.Command {
	var (
		localVariables variablesValue
		variables      variablesValue

		cmd engine.CompleteCmd
	)

	c := cobra.Command{
		Use:   "complete",
		Short: "Complete a locked task",
		RunE: func(c *cobra.Command, _ []string) error {
			v, err := mapVariables(variables)
			if err != nil {
				return err
			}

			lv, err := mapVariables(localVariables)
			if err != nil {
				return err
			}

			cmd.LocalVariables = lv
			cmd.Variables = v
			cmd.WorkerId = cli.workerId

			return cli.e.Complete(context.Background(), cmd)
		},
	}

	flagTaskId(&c, &cmd.Id)

	c.Flags().Var(&localVariables, "local-variable", "Variable to set at execution scope")
	c.Flags().Var(&variables, "variable", "Variable to set at process instance scope")

	return &c
}

func newTaskCreateCmd(cli *Cli) *cobra.Command {
	var (
		retries   int
		variables variablesValue

		cmd engine.CreateTaskCmd
	)

	c := cobra.Command{
		Use:   "create",
		Short: "Create a task, which is not bound to a process instance",
		RunE: func(c *cobra.Command, _ []string) error {
			if c.Flags().Changed("retries") {
				cmd.Retries = &retries
			}

			cmd.Variables = variables

			task, err := cli.e.CreateTask(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Println(task.Id)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.TopicName, "topic-name", "", "Topic of the task")

	c.Flags().StringVar(&cmd.BusinessKey, "business-key", "", "Optional business key")
	c.Flags().Int64Var(&cmd.Priority, "priority", 0, "Task priority")
	c.Flags().IntVar(&retries, "retries", 0, "Initial number of retries")
	c.Flags().Var(&variables, "variable", "Variable of the task - the value is parsed as JSON, if possible")

	c.MarkFlagRequired("topic-name")

	return &c
}

func newTaskExtendLockCmd(cli *Cli) *cobra.Command {
	var (
		newDuration millisValue

		cmd engine.ExtendLockCmd
	)

	c := cobra.Command{
		Use:   "extend-lock",
		Short: "Extend the lock of a locked task",
		RunE: func(c *cobra.Command, _ []string) error {
			cmd.NewDuration = newDuration.millis()
			cmd.WorkerId = cli.workerId

			return cli.e.ExtendLock(context.Background(), cmd)
		},
	}

	flagTaskId(&c, &cmd.Id)

	c.Flags().Var(&newDuration, "new-duration", "New lock duration, starting from now")

	c.MarkFlagRequired("new-duration")

	return &c
}

func newTaskFailCmd(cli *Cli) *cobra.Command {
	var (
		retryTimeout millisValue

		cmd engine.FailureCmd
	)

	c := cobra.Command{
		Use:   "fail",
		Short: "Report a technical failure for a locked task",
		RunE: func(c *cobra.Command, _ []string) error {
			cmd.RetryTimeout = retryTimeout.millis()
			cmd.WorkerId = cli.workerId

			return cli.e.HandleFailure(context.Background(), cmd)
		},
	}

	flagTaskId(&c, &cmd.Id)

	c.Flags().StringVar(&cmd.ErrorMessage, "error-message", "", "Human-readable error message")
	c.Flags().StringVar(&cmd.ErrorDetails, "error-details", "", "Detailed error information")
	c.Flags().IntVar(&cmd.Retries, "retries", 0, "Number of retries left - if 0, an incident is created")
	c.Flags().Var(&retryTimeout, "retry-timeout", "Timeout, before the task can be fetched again")

	return &c
}

func newTaskFetchAndLockCmd(cli *Cli) *cobra.Command {
	var (
		topicNames           []string
		variableNames        []string
		lockDuration         = millisValue(time.Minute)
		asyncResponseTimeout millisValue

		cmd engine.FetchAndLockCmd
	)

	c := cobra.Command{
		Use:   "fetch-and-lock",
		Short: "Fetch and lock tasks",
		RunE: func(c *cobra.Command, _ []string) error {
			topics := make([]engine.TopicCmd, len(topicNames))
			for i, topicName := range topicNames {
				topics[i] = engine.TopicCmd{
					LockDuration: lockDuration.millis(),
					TopicName:    topicName,
					Variables:    variableNames,
				}
			}

			cmd.AsyncResponseTimeout = asyncResponseTimeout.millis()
			cmd.Topics = topics
			cmd.WorkerId = cli.workerId

			tasks, err := cli.e.FetchAndLock(context.Background(), cmd)
			if err != nil {
				return err
			}

			table := newTaskTable(tasks)
			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringSliceVar(&topicNames, "topic-name", nil, "Topic to fetch tasks for")

	c.Flags().Var(&asyncResponseTimeout, "async-response-timeout", "Time to wait for tasks, when none are available")
	c.Flags().Var(&lockDuration, "lock-duration", "Duration of the lock")
	c.Flags().IntVar(&cmd.MaxTasks, "max-tasks", engine.DefaultMaxTasks, "Maximum number of tasks to fetch and lock")
	c.Flags().BoolVar(&cmd.UsePriority, "use-priority", false, "Fetch tasks with a higher priority first")
	c.Flags().StringSliceVar(&variableNames, "variable-name", nil, "Name of a variable to fetch - all if not set")

	c.MarkFlagRequired("topic-name")

	return &c
}

func newTaskQueryCmd(cli *Cli) *cobra.Command {
	var criteria engine.TaskCriteria

	c := cobra.Command{
		Use:   "query",
		Short: "Query tasks",
		RunE: func(c *cobra.Command, _ []string) error {
			tasks, err := cli.e.QueryTasks(context.Background(), criteria)
			if err != nil {
				return err
			}

			table := newTaskTable(tasks)
			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringVar(&criteria.Id, "id", "", "Task ID")

	c.Flags().BoolVar(&criteria.Locked, "locked", false, "Only tasks, which are locked")
	c.Flags().BoolVar(&criteria.NotLocked, "not-locked", false, "Only tasks, which are not locked")
	c.Flags().StringVar(&criteria.TopicName, "topic-name", "", "Topic of the tasks")
	c.Flags().BoolVar(&criteria.WithRetries, "with-retries", false, "Only tasks with retries left")
	c.Flags().StringVar(&criteria.WorkerId, "locked-by", "", "ID of the worker that locked the tasks")

	c.MarkFlagsMutuallyExclusive("locked", "not-locked")

	return &c
}

func newTaskShowCmd(cli *Cli) *cobra.Command {
	var id string

	c := cobra.Command{
		Use:   "show",
		Short: "Show a task, including its variables",
		RunE: func(c *cobra.Command, _ []string) error {
			task, err := getTask(context.Background(), cli.e, id)
			if err != nil {
				return err
			}

			return printJson(c, task)
		},
	}

	flagTaskId(&c, &id)

	return &c
}

func newTaskUnlockCmd(cli *Cli) *cobra.Command {
	var cmd engine.UnlockCmd

	c := cobra.Command{
		Use:   "unlock",
		Short: "Unlock a locked task",
		RunE: func(c *cobra.Command, _ []string) error {
			return cli.e.Unlock(context.Background(), cmd)
		},
	}

	flagTaskId(&c, &cmd.Id)

	return &c
}
