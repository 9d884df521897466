package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	// maxPaymentRetries bounds optimistic-lock retries for payment application
	maxPaymentRetries = 3
	// retryBackoff is the base delay between retry attempts
	retryBackoff = 20 * time.Millisecond
)

// PaymentService provides application-level payment ledger operations
type PaymentService struct {
	invoiceRepo invoicing.InvoiceRepository
	paymentRepo invoicing.PaymentRepository
	txScope     TransactionScope
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	txScope TransactionScope,
) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		txScope:     txScope,
	}
}

// RecordPayment appends a payment to the invoice ledger and updates the
// invoice balance and status atomically. The invoice row is saved with an
// optimistic version check; on conflict the whole read-modify-write is
// retried with a fresh load, bounded by maxPaymentRetries. Two concurrent
// payments against the same invoice therefore both land, never losing an
// update.
func (s *PaymentService) RecordPayment(ctx context.Context, tenantID, userID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	method := invoicing.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	amount := valueobject.NewMoneyUSD(req.Amount)

	var recorded *invoicing.Payment

	for attempt := 0; attempt < maxPaymentRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			inv, err := repos.InvoiceRepo().FindByIDForTenant(ctx, tenantID, invoiceID)
			if err != nil {
				return err
			}
			if inv == nil {
				return shared.NewDomainError("NOT_FOUND", "Invoice not found")
			}

			if err := inv.ApplyPayment(amount); err != nil {
				return err
			}

			payment, err := invoicing.NewPayment(tenantID, inv.ID, amount, method, req.PaymentDate, req.Reference, req.Notes)
			if err != nil {
				return err
			}
			if userID != uuid.Nil {
				payment.CreatedBy = &userID
			}

			if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
				return err
			}
			if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
				return err
			}

			recorded = payment
			return nil
		})
		if err == nil {
			return ToPaymentResponse(recorded), nil
		}
		if !isConcurrencyConflict(err) {
			return nil, err
		}
	}

	return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "Payment could not be applied due to concurrent updates, please retry")
}

// ListInvoicePayments lists all payments for one invoice in chronological order
func (s *PaymentService) ListInvoicePayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	payments, err := s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *ToPaymentResponse(&payments[i])
	}
	return responses, nil
}

// ListPayments lists payments across invoices with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) (*shared.Paginated[PaymentResponse], error) {
	domainFilter := invoicing.PaymentFilter{
		InvoiceID: filter.InvoiceID,
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
	}
	domainFilter.Filter = normalizeFilter(filter.Page, filter.PageSize, filter.Search)

	if filter.Method != "" {
		method := invoicing.PaymentMethod(filter.Method)
		if !method.IsValid() {
			return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
		}
		domainFilter.Method = &method
	}
	if filter.Status != "" {
		status := invoicing.PaymentStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown payment status filter")
		}
		domainFilter.Status = &status
	}

	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *ToPaymentResponse(&payments[i])
	}

	page := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

func isConcurrencyConflict(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == shared.ErrConcurrencyConflict.Code
	}
	return false
}
