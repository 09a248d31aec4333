package cli

import (
	"bytes"
	"testing"

	"github.com/hotelbey/bey/engine/mem"
)

func mustCreateEngine(t *testing.T) *mem.Engine {
	e, err := mem.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

// mustExecute executes a command against the given engine and returns the output.
func mustExecute(t *testing.T, e engineClient, args []string) string {
	rootCmd := newRootCmd(&Cli{e: e, workerId: program})
	rootCmd.PersistentPostRun = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("failed to execute %v: %v", args, err)
	}

	return out.String()
}

func execute(e engineClient, args []string) error {
	rootCmd := newRootCmd(&Cli{e: e, workerId: program})
	rootCmd.PersistentPostRun = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}
