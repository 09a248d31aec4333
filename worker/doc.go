// Package worker dispatches external tasks of an engine to registered handlers.
/*
A worker fetches and locks tasks of the registered task types, decodes their variables according to a schema, calls the handler and reports the outcome to the engine.

Register Handlers

A handler is registered for a task type, together with a schema, which declares the variables the handler requires.

	r := worker.NewRegistry()
	r.MustRegister("process-payment", worker.Schema{
		worker.Required("booking_id", worker.KindString),
		worker.Required("total_amount", worker.KindNumber),
		worker.Default("payment_method", worker.KindString, "credit_card"),
	}, func(ctx context.Context, values worker.Values) (worker.Result, error) {
		if values.Float("total_amount") <= 0 {
			return nil, worker.NewBusinessRuleError("total amount must be greater than 0")
		}
		// ...
		return worker.Result{"payment_status": "completed"}, nil
	})

Missing required variables and variables, which cannot be converted to the declared kind, are reported as [ValidationError] without calling the handler.

Report Outcomes

  - a result completes the task
  - a [ValidationError] or [BusinessRuleError] is reported as BPMN error with code [ErrorCode]
  - any other error, e.g. an [InfrastructureError], is reported as failure, so that the engine retries the task

Run a Worker

A worker requires an engine, e.g. the HTTP client of a Camunda engine or the in-memory engine for testing.

	w, err := worker.New(e, r, func(o *worker.Options) {
		o.Mode = worker.ModeSubscribe
		o.Concurrency = 4
	})
	if err != nil {
		log.Fatalf("failed to create worker: %v", err)
	}

	if err := w.Start(); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}

	defer w.Stop()

In poll mode, the worker fetches and locks tasks of each topic in a fixed interval and handles all of them, before it sleeps again.
In subscribe mode, each topic is long polled and tasks are handed over to a bounded pool of goroutines.
*/
package worker
