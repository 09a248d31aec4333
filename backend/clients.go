package backend

import (
	"context"
	"fmt"
)

func (s *Services) CloseComplaint(ctx context.Context, id string) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	complaint, err := get[Complaint](ctx, s.store, CollectionComplaints, id, "complaint")
	if err != nil {
		return StatusRes{}, err
	}
	if complaint.Status == ComplaintClosed {
		return StatusRes{}, Error{
			Type:   ErrorConflict,
			Title:  "failed to close complaint",
			Detail: fmt.Sprintf("complaint %s is already closed", complaint.Id),
		}
	}

	closedAt := s.time()
	complaint.Status = ComplaintClosed
	complaint.ClosedAt = &closedAt

	if err := putEntity(ctx, s.store, CollectionComplaints, complaint.Id, complaint); err != nil {
		return StatusRes{}, err
	}
	return StatusRes{Status: ComplaintClosed}, nil
}

func (s *Services) CreateClient(ctx context.Context, req CreateClientReq) (CreateClientRes, error) {
	preferences := req.Preferences
	if preferences == nil {
		preferences = make(map[string]any)
	}

	client := Client{
		Id:          newId(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Preferences: preferences,
	}

	if err := putEntity(ctx, s.store, CollectionClients, client.Id, client); err != nil {
		return CreateClientRes{}, err
	}
	return CreateClientRes{ClientId: client.Id, Status: "created"}, nil
}

func (s *Services) GetClient(ctx context.Context, id string) (Client, error) {
	return get[Client](ctx, s.store, CollectionClients, id, "client")
}

func (s *Services) GetComplaint(ctx context.Context, id string) (Complaint, error) {
	return get[Complaint](ctx, s.store, CollectionComplaints, id, "complaint")
}

func (s *Services) LogComplaint(ctx context.Context, req LogComplaintReq) (LogComplaintRes, error) {
	status := req.Status
	if status == "" {
		status = ComplaintReceived
	}

	complaint := Complaint{
		Id:          newId(),
		ClientId:    req.ClientId,
		BookingId:   req.BookingId,
		RoomId:      req.RoomId,
		Description: req.Description,
		Status:      status,
		CreatedAt:   s.time(),
	}

	if err := putEntity(ctx, s.store, CollectionComplaints, complaint.Id, complaint); err != nil {
		return LogComplaintRes{}, err
	}

	s.logger.Info().Str("complaint_id", complaint.Id).Str("client_id", complaint.ClientId).Msg("complaint logged")
	return LogComplaintRes{ComplaintId: complaint.Id, Status: "logged"}, nil
}

// SearchClients returns the clients with the given email. An empty email matches no client.
func (s *Services) SearchClients(ctx context.Context, email string) ([]Client, error) {
	if email == "" {
		return []Client{}, nil
	}
	return listEntities(ctx, s.store, CollectionClients, func(client Client) bool {
		return client.Email == email
	})
}

func (s *Services) UpdateLoyalty(ctx context.Context, id string, req UpdateLoyaltyReq) (LoyaltyRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	client, err := get[Client](ctx, s.store, CollectionClients, id, "client")
	if err != nil {
		return LoyaltyRes{}, err
	}

	client.LoyaltyPoints += req.Points

	if err := putEntity(ctx, s.store, CollectionClients, client.Id, client); err != nil {
		return LoyaltyRes{}, err
	}
	return LoyaltyRes{LoyaltyPoints: client.LoyaltyPoints}, nil
}
