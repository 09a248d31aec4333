package backend

import (
	"context"
	"errors"
	"fmt"
)

func (s *Services) AvailableTables(ctx context.Context) ([]string, error) {
	tables, err := listEntities(ctx, s.store, CollectionTables, func(table Table) bool {
		return table.Status == TableAvailable
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tables))
	for i, table := range tables {
		ids[i] = table.Id
	}
	return ids, nil
}

func (s *Services) BookingOrders(ctx context.Context, bookingId string) ([]Order, error) {
	return listEntities(ctx, s.store, CollectionOrders, func(order Order) bool {
		return order.BookingId == bookingId
	})
}

// CreateOrder creates a pending order. The total amount is the sum of the prices of all ordered menu items.
func (s *Services) CreateOrder(ctx context.Context, req CreateOrderReq) (CreateOrderRes, error) {
	var totalAmount float64
	for _, itemId := range req.Items {
		item, err := getEntity[MenuItem](ctx, s.store, CollectionMenu, itemId)
		if errors.Is(err, ErrNotFound) {
			return CreateOrderRes{}, Error{
				Type:   ErrorValidation,
				Title:  "failed to create order",
				Detail: fmt.Sprintf("menu item %s does not exist", itemId),
			}
		}
		if err != nil {
			return CreateOrderRes{}, err
		}
		totalAmount += item.Price
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = "room_service"
	}

	order := Order{
		Id:          newId(),
		BookingId:   req.BookingId,
		RoomNumber:  req.RoomNumber,
		Items:       req.Items,
		TotalAmount: totalAmount,
		Status:      OrderPending,
		OrderType:   orderType,
		CreatedAt:   s.time(),
	}

	if err := putEntity(ctx, s.store, CollectionOrders, order.Id, order); err != nil {
		return CreateOrderRes{}, err
	}
	return CreateOrderRes{OrderId: order.Id, Status: "created"}, nil
}

func (s *Services) GetOrder(ctx context.Context, id string) (Order, error) {
	return get[Order](ctx, s.store, CollectionOrders, id, "order")
}

// Menu lists the menu items of a category or all menu items, if the category is empty.
func (s *Services) Menu(ctx context.Context, category string) ([]MenuItem, error) {
	return listEntities(ctx, s.store, CollectionMenu, func(item MenuItem) bool {
		return category == "" || item.Category == category
	})
}

func (s *Services) UpdateOrderStatus(ctx context.Context, id string, req UpdateOrderStatusReq) (StatusRes, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	order, err := get[Order](ctx, s.store, CollectionOrders, id, "order")
	if err != nil {
		return StatusRes{}, err
	}

	order.Status = req.Status

	if err := putEntity(ctx, s.store, CollectionOrders, order.Id, order); err != nil {
		return StatusRes{}, err
	}
	return StatusRes{Status: "updated"}, nil
}
