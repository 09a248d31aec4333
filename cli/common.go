package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hotelbey/bey/engine"
	"github.com/spf13/cobra"
)

func flagTaskId(c *cobra.Command, id *string) {
	c.Flags().StringVar(id, "id", "", "Task ID")
	c.MarkFlagRequired("id")
}

// getTask queries a single task by ID.
func getTask(ctx context.Context, e engine.TaskQuery, id string) (engine.Task, error) {
	tasks, err := e.QueryTasks(ctx, engine.TaskCriteria{Id: id})
	if err != nil {
		return engine.Task{}, err
	}
	if len(tasks) == 0 {
		return engine.Task{}, fmt.Errorf("task %s could not be found", id)
	}
	return tasks[0], nil
}

// mapVariables wraps plain values into typed variables of the engine API.
func mapVariables(values variablesValue) (map[string]engine.Variable, error) {
	return engine.NewVariables(values)
}

func printJson(c *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}

	c.Println(string(b))
	return nil
}
