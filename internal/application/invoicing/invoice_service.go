package invoicing

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/invoicing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceService provides application-level invoice operations.
// Every mutating operation runs inside a single database transaction.
type InvoiceService struct {
	invoiceRepo invoicing.InvoiceRepository
	txScope     TransactionScope
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoicing.InvoiceRepository, txScope TransactionScope) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
	}
}

// CreateInvoice creates a draft invoice. The invoice number is reserved
// atomically inside the same transaction that persists the invoice, so
// concurrent creations for the same tenant and month never collide.
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var created *invoicing.Invoice

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		period := invoicing.PeriodOf(req.IssueDate)
		seq, err := repos.SequenceRepo().ReserveNextNumber(ctx, tenantID, period)
		if err != nil {
			return err
		}

		inv, err := invoicing.NewInvoice(
			tenantID,
			invoicing.FormatInvoiceNumber(period, seq),
			req.CustomerName,
			toDomainItems(req.Items),
			req.TaxRate,
			req.Discount,
			req.IssueDate,
			req.DueDate,
		)
		if err != nil {
			return err
		}

		inv.CustomerID = req.CustomerID
		inv.CustomerEmail = req.CustomerEmail
		inv.BillingAddress = req.BillingAddress
		inv.ShippingAddress = req.ShippingAddress
		inv.PaymentTerms = req.PaymentTerms
		inv.Notes = req.Notes
		inv.Terms = req.Terms
		inv.OpportunityID = req.OpportunityID
		inv.QuoteID = req.QuoteID
		inv.ProjectID = req.ProjectID
		if req.Currency != "" {
			inv.Currency = req.Currency
		}
		if userID != uuid.Nil {
			inv.CreatedBy = &userID
		}

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}

		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ToInvoiceResponse(created), nil
}

// GetInvoice gets an invoice by ID scoped to the caller's tenant
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.findInvoice(ctx, s.invoiceRepo, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// ListInvoices lists invoices with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	domainFilter := invoicing.InvoiceFilter{
		CustomerID: filter.CustomerID,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
		AmountFrom: filter.AmountFrom,
		AmountTo:   filter.AmountTo,
	}
	domainFilter.Filter = normalizeFilter(filter.Page, filter.PageSize, filter.Search)

	if filter.Status != "" {
		// overdue is derived, translated to a date predicate by the repository
		if filter.Status == invoicing.DisplayStatusOverdue {
			overdue := true
			domainFilter.Overdue = &overdue
		} else {
			status := invoicing.InvoiceStatus(filter.Status)
			if !status.IsValid() {
				return nil, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status filter")
			}
			domainFilter.Status = &status
		}
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *ToInvoiceResponse(&invoices[i])
	}

	page := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// normalizeFilter applies the default page and page size to unset values
func normalizeFilter(page, pageSize int, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page >= 1 {
		f.Page = page
	}
	if pageSize >= 1 {
		f.PageSize = pageSize
	}
	f.Search = search
	return f
}

// UpdateInvoice performs a full update of a draft invoice and recomputes
// its totals. Fails for any non-draft invoice.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	var updated *invoicing.Invoice

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := s.findInvoice(ctx, repos.InvoiceRepo(), tenantID, id)
		if err != nil {
			return err
		}

		if err := inv.UpdateDraft(
			req.CustomerName,
			toDomainItems(req.Items),
			req.TaxRate,
			req.Discount,
			req.IssueDate,
			req.DueDate,
		); err != nil {
			return err
		}

		inv.CustomerID = req.CustomerID
		inv.CustomerEmail = req.CustomerEmail
		inv.BillingAddress = req.BillingAddress
		inv.ShippingAddress = req.ShippingAddress
		inv.PaymentTerms = req.PaymentTerms
		inv.Notes = req.Notes
		inv.Terms = req.Terms

		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}

		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ToInvoiceResponse(updated), nil
}

// DeleteInvoice deletes an invoice. Only draft invoices may be deleted.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := s.findInvoice(ctx, repos.InvoiceRepo(), tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.EnsureDeletable(); err != nil {
			return err
		}
		return repos.InvoiceRepo().DeleteForTenant(ctx, tenantID, id)
	})
}

// SendInvoice transitions a draft invoice to sent
func (s *InvoiceService) SendInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, id, func(inv *invoicing.Invoice) error {
		return inv.Send()
	})
}

// MarkInvoiceViewed records that the customer has opened the invoice
func (s *InvoiceService) MarkInvoiceViewed(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, id, func(inv *invoicing.Invoice) error {
		return inv.MarkViewed()
	})
}

// MarkInvoicePaid settles an invoice out of band, bypassing the payment
// ledger. The full balance is written off so totals still reconcile.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, tenantID, id, func(inv *invoicing.Invoice) error {
		return inv.MarkPaid()
	})
}

// transition loads the invoice, applies a state change, and saves it with
// an optimistic version check inside one transaction
func (s *InvoiceService) transition(ctx context.Context, tenantID, id uuid.UUID, fn func(*invoicing.Invoice) error) (*InvoiceResponse, error) {
	var result *invoicing.Invoice

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := s.findInvoice(ctx, repos.InvoiceRepo(), tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ToInvoiceResponse(result), nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, repo invoicing.InvoiceRepository, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	inv, err := repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return inv, nil
}
