package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const documentContentType = "text/plain; charset=utf-8"

func (s *Services) CreateCompensation(ctx context.Context, req CreateCompensationReq) (CreateCompensationRes, error) {
	document := Document{
		Id:          newId(),
		Type:        DocumentCompensation,
		ClientId:    req.ClientId,
		ComplaintId: req.ComplaintId,
		Amount:      req.Amount,
		Reason:      req.Reason,
		Status:      "proposed",
	}

	if err := s.saveDocument(ctx, &document); err != nil {
		return CreateCompensationRes{}, err
	}

	s.logger.Info().Str("compensation_id", document.Id).Float64("amount", req.Amount).Msg("compensation proposed")
	return CreateCompensationRes{CompensationId: document.Id, Status: document.Status}, nil
}

func (s *Services) CreateInvoice(ctx context.Context, req CreateInvoiceReq) (CreateInvoiceRes, error) {
	document := Document{
		Id:        newId(),
		Type:      DocumentInvoice,
		BookingId: req.BookingId,
		PaymentId: req.PaymentId,
		Amount:    req.Amount,
		Status:    "generated",
	}

	if err := s.saveDocument(ctx, &document); err != nil {
		return CreateInvoiceRes{}, err
	}

	s.logger.Info().Str("invoice_id", document.Id).Str("booking_id", req.BookingId).Msg("invoice generated")
	return CreateInvoiceRes{InvoiceId: document.Id, Status: document.Status}, nil
}

// DocumentContent returns the rendered content and the content type of a document.
func (s *Services) DocumentContent(ctx context.Context, id string) ([]byte, string, error) {
	content, contentType, err := s.documents.Get(ctx, documentName(id))
	if errors.Is(err, ErrNotFound) {
		return nil, "", notFound("failed to get document content", "document %s not found", id)
	}
	return content, contentType, err
}

func (s *Services) GenerateConfirmation(ctx context.Context, req GenerateConfirmationReq) (GenerateConfirmationRes, error) {
	clientName := strings.TrimSpace(req.ClientData.FirstName + " " + req.ClientData.LastName)

	document := Document{
		Id:         newId(),
		Type:       DocumentBookingConfirmation,
		BookingId:  req.BookingId,
		ClientName: clientName,
		Amount:     req.TotalAmount,
		Status:     "sent",
	}

	if err := s.saveDocument(ctx, &document); err != nil {
		return GenerateConfirmationRes{}, err
	}

	s.logger.Info().Str("document_id", document.Id).Str("email", req.ClientData.Email).Msg("confirmation generated and sent")
	return GenerateConfirmationRes{
		DocumentId:  document.Id,
		Status:      "generated",
		DownloadURL: document.DownloadURL,
	}, nil
}

func (s *Services) GetDocument(ctx context.Context, id string) (Document, error) {
	return get[Document](ctx, s.store, CollectionDocuments, id, "document")
}

// saveDocument renders and saves the content of a document, before its metadata is stored.
func (s *Services) saveDocument(ctx context.Context, document *Document) error {
	document.GeneratedAt = s.time()

	name := documentName(document.Id)
	if err := s.documents.Save(ctx, name, renderDocument(*document), documentContentType); err != nil {
		return fmt.Errorf("failed to save document %s: %v", document.Id, err)
	}

	downloadURL, err := s.documents.GenerateURL(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to generate URL of document %s: %v", document.Id, err)
	}

	document.DownloadURL = downloadURL

	return putEntity(ctx, s.store, CollectionDocuments, document.Id, document)
}

func documentName(id string) string {
	return id + ".txt"
}

func renderDocument(document Document) []byte {
	var sb strings.Builder

	switch document.Type {
	case DocumentBookingConfirmation:
		sb.WriteString("BOOKING CONFIRMATION\n\n")
	case DocumentCompensation:
		sb.WriteString("COMPENSATION\n\n")
	case DocumentInvoice:
		sb.WriteString("INVOICE\n\n")
	}

	line := func(label string, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%-12s %s\n", label+":", value)
		}
	}

	line("Document", document.Id)
	line("Booking", document.BookingId)
	line("Payment", document.PaymentId)
	line("Client", document.ClientName)
	line("Client ID", document.ClientId)
	line("Complaint", document.ComplaintId)
	line("Reason", document.Reason)
	line("Amount", fmt.Sprintf("%.2f", document.Amount))
	line("Generated", document.GeneratedAt.Format("2006-01-02 15:04:05"))

	return []byte(sb.String())
}
