package common

import (
	"net/url"
	"strings"
)

const (
	ContentTypeJson        = "application/json"
	ContentTypeProblemJson = "application/problem+json"
	ContentTypeText        = "text/plain"

	HeaderContentType = "Content-Type"

	// Camunda external task API, relative to the engine base path.
	PathExternalTasks             = "/external-task"
	PathExternalTasksBpmnError    = "/external-task/{id}/bpmnError"
	PathExternalTasksComplete     = "/external-task/{id}/complete"
	PathExternalTasksCreate       = "/external-task/create"
	PathExternalTasksExtendLock   = "/external-task/{id}/extendLock"
	PathExternalTasksFailure      = "/external-task/{id}/failure"
	PathExternalTasksFetchAndLock = "/external-task/fetchAndLock"
	PathExternalTasksUnlock       = "/external-task/{id}/unlock"

	PathProcessDefinitionsStart = "/process-definition/key/{key}/start"

	// backend services API, relative to the API base path
	PathRooms          = "/rooms"
	PathRoomsAssign    = "/rooms/assign"
	PathRoomsAvailable = "/rooms/available"
	PathRoomsBlock     = "/rooms/{id}/block"
	PathRoomsGet       = "/rooms/{id}"
	PathRoomsRelease   = "/rooms/{id}/release"
	PathRoomsStatus    = "/rooms/{id}/status"

	PathClientsCreate  = "/clients/create"
	PathClientsGet     = "/clients/{id}"
	PathClientsLoyalty = "/clients/{id}/loyalty"
	PathClientsSearch  = "/clients/search"

	PathComplaintsClose = "/complaints/{id}/close"
	PathComplaintsLog   = "/complaints/log"

	PathBookingCancel = "/booking/{id}/cancel"
	PathBookingClient = "/booking/client/{id}"
	PathBookingCreate = "/booking/create"
	PathBookingGet    = "/booking/{id}"

	PathPaymentHistory = "/payment/history/{id}"
	PathPaymentProcess = "/payment/process"

	PathAccountingCompensation         = "/accounting/compensation"
	PathAccountingGenerateConfirmation = "/accounting/generate-confirmation"
	PathDocumentsGet                   = "/documents/{id}"
	PathInvoicesCreate                 = "/invoices/create"

	PathRestaurantBookingOrders   = "/restaurant/booking/{id}/orders"
	PathRestaurantMenu            = "/restaurant/menu"
	PathRestaurantOrder           = "/restaurant/order"
	PathRestaurantOrderGet        = "/restaurant/order/{id}"
	PathRestaurantOrderStatus     = "/restaurant/order/{id}/status"
	PathRestaurantTablesAvailable = "/restaurant/tables/available"

	PathMetrics   = "/metrics"
	PathReadiness = "/readiness"

	QueryCategory        = "category"
	QueryCheckIn         = "check_in"
	QueryCheckOut        = "check_out"
	QueryEmail           = "email"
	QueryExternalTaskId  = "externalTaskId"
	QueryLocked          = "locked"
	QueryNotLocked       = "notLocked"
	QueryTopicName       = "topicName"
	QueryType            = "type"
	QueryWithRetriesLeft = "withRetriesLeft"
	QueryWorkerId        = "workerId"
)

// Resolve replaces a path parameter like {id} with a value.
func Resolve(path string, name string, value string) string {
	return strings.Replace(path, "{"+name+"}", url.PathEscape(value), 1)
}
