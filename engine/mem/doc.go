// Package mem implements an in-memory engine, which leases external tasks to workers.
/*
mem implements the [engine.Engine], [engine.TaskCreator] and [engine.TaskQuery] interfaces. It is
used for testing and as a stand-in for a workflow engine, when running the hotel workers locally.

Tasks are not part of a process. They are created explicitly and their outcome (completion, BPMN
error or incident) is recorded:

	e, err := mem.New()
	if err != nil {
		log.Fatalf("failed to create mem engine: %v", err)
	}

	defer e.Shutdown()

	task, err := e.CreateTask(context.Background(), engine.CreateTaskCmd{
		TopicName: "validate-input",
		Variables: map[string]any{"email": "jane@example.org"},
	})

A task, whose lock expired, can be fetched and locked again by any worker. A failure with 0
retries creates an incident: the task remains, but is not fetched anymore.
*/
package mem
