package backend

import (
	"context"
	"fmt"
)

// AvailableRooms lists all available rooms, optionally restricted to a room type.
// Check-in and check-out dates are accepted, but not evaluated.
func (s *Services) AvailableRooms(ctx context.Context, checkIn string, checkOut string, roomType string) ([]Room, error) {
	return listEntities(ctx, s.store, CollectionRooms, func(room Room) bool {
		return room.Status == RoomAvailable && (roomType == "" || room.Type == roomType)
	})
}

func (s *Services) AssignRoom(ctx context.Context, req AssignRoomReq) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, err := get[Room](ctx, s.store, CollectionRooms, req.RoomId, "room")
	if err != nil {
		return StatusRes{}, err
	}
	if room.Status != RoomAvailable {
		return StatusRes{}, Error{
			Type:   ErrorConflict,
			Title:  "failed to assign room",
			Detail: fmt.Sprintf("room %s is %s", room.Id, room.Status),
		}
	}

	room.Status = RoomOccupied
	room.AssignedTo = req.ClientId
	room.StatusReason = ""

	if err := putEntity(ctx, s.store, CollectionRooms, room.Id, room); err != nil {
		return StatusRes{}, err
	}

	s.logger.Info().Str("room_id", room.Id).Str("client_id", req.ClientId).Msg("room assigned")
	return StatusRes{Status: "room_assigned", RoomId: room.Id}, nil
}

func (s *Services) BlockRoom(ctx context.Context, id string, req BlockRoomReq) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, err := get[Room](ctx, s.store, CollectionRooms, id, "room")
	if err != nil {
		return StatusRes{}, err
	}
	if room.Status != RoomAvailable {
		return StatusRes{}, Error{
			Type:   ErrorConflict,
			Title:  "failed to block room",
			Detail: fmt.Sprintf("room %s is not available", room.Id),
		}
	}

	room.Status = RoomBlocked
	room.BlockedBy = req.BookingId

	if err := putEntity(ctx, s.store, CollectionRooms, room.Id, room); err != nil {
		return StatusRes{}, err
	}
	return StatusRes{Status: "room_blocked", RoomId: room.Id}, nil
}

func (s *Services) GetRoom(ctx context.Context, id string) (Room, error) {
	return get[Room](ctx, s.store, CollectionRooms, id, "room")
}

func (s *Services) ListRooms(ctx context.Context) ([]Room, error) {
	return listEntities[Room](ctx, s.store, CollectionRooms, nil)
}

func (s *Services) ReleaseRoom(ctx context.Context, id string) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, err := get[Room](ctx, s.store, CollectionRooms, id, "room")
	if err != nil {
		return StatusRes{}, err
	}

	room.Status = RoomAvailable
	room.AssignedTo = ""
	room.BlockedBy = ""
	room.StatusReason = ""

	if err := putEntity(ctx, s.store, CollectionRooms, room.Id, room); err != nil {
		return StatusRes{}, err
	}
	return StatusRes{Status: "room_released", RoomId: room.Id}, nil
}

func (s *Services) SetRoomStatus(ctx context.Context, id string, req SetRoomStatusReq) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, err := get[Room](ctx, s.store, CollectionRooms, id, "room")
	if err != nil {
		return StatusRes{}, err
	}

	room.Status = req.Status
	room.StatusReason = req.Reason
	if req.Status == RoomAvailable {
		room.AssignedTo = ""
		room.BlockedBy = ""
	}

	if err := putEntity(ctx, s.store, CollectionRooms, room.Id, room); err != nil {
		return StatusRes{}, err
	}

	s.logger.Info().Str("room_id", room.Id).Str("status", room.Status).Str("reason", req.Reason).Msg("room status changed")
	return StatusRes{Status: room.Status, RoomId: room.Id}, nil
}
