// Package hotel implements the handlers of the hotel reservation and complaint handling processes.
/*
hotel registers a handler for each task type of the processes at a [worker.Registry]. The handlers call the backend services via a [Backend], which is implemented by the backend client.

Register Handlers

	c, err := client.New("http://localhost:5000/api")
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	r := worker.NewRegistry()
	if err := hotel.Register(r, c, func(o *hotel.Options) {
		o.Branch = "TUNIS"
		o.HQ = syncer
	}); err != nil {
		log.Fatalf("failed to register handlers: %v", err)
	}

Reservation

validate-input, search-client, create-client, check-room-availability, check-reservation-type, check-meal-plan, block-room, create-booking, process-payment, generate-confirmation, generate-accounting and sync-to-hq.

A payment with a non-positive amount and a room block without room ID are rejected as [worker.BusinessRuleError]. If the restaurant service fails, check-meal-plan falls back to a valid meal plan at no cost. The push of a finance transaction to the head office and the synchronization of a guest profile never fail a task.

Queries

get-booking, get-client-bookings and get-restaurant-orders. An unknown booking results in an empty result instead of an error.

Complaints

receive-log-complaint, classify-redirect, assess-severity, redirect-service, update-defective-status, execute-repair, check-relocation-availability, initiate-relocation, assign-new-room, propose-compensation and issue-closed.

Complaints are classified by keywords of their description: technical complaints are redirected to the room service and rated with high severity, billing complaints to the payment service and all others to the client service.
*/
package hotel
