package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/internal/audit"
	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type productCatalog interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// StockAdjuster applies signed stock deltas inside the caller's transaction.
type StockAdjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) (*models.Product, error)
}

// Service registers and maintains sales. Sales never drive stock negative at
// creation time; the sufficiency check happens before any persistence. The
// check and the deduction are not serialized against concurrent sales.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Response, error)
	Get(ctx context.Context, id uuid.UUID) (*Response, error)
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Response, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	users     userDirectory
	products  productCatalog
	inventory StockAdjuster
	audit     audit.Recorder
	logg      *logger.Logger
}

// NewService builds a sales service with the required collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	users userDirectory,
	products productCatalog,
	inventory StockAdjuster,
	auditor audit.Recorder,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		users:     users,
		products:  products,
		inventory: inventory,
		audit:     auditor,
		logg:      logg,
	}, nil
}

type pricedLine struct {
	productID uuid.UUID
	quantity  int
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Response, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	priced, total, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		PaymentMethod: method,
		Total:         total,
		UserID:        input.UserID,
		Lines:         make([]models.SaleLine, 0, len(priced)),
	}
	for _, line := range priced {
		sale.Lines = append(sale.Lines, models.SaleLine{
			ProductID: line.productID,
			Quantity:  line.quantity,
			UnitPrice: line.unitPrice,
			Subtotal:  line.subtotal,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale")
		}
		for _, line := range priced {
			if _, err := s.inventory.Adjust(ctx, tx, line.productID, -line.quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "register sale")
	}

	s.audit.Record(ctx, input.UserID, enums.AuditSaleCreated,
		fmt.Sprintf("sale %s registered", sale.ID))

	return s.reload(ctx, sale.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return toResponse(sale), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	resp := &ListResponse{
		Sales:  make([]Response, 0, len(sales)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i := range sales {
		resp.Sales = append(resp.Sales, *toResponse(&sales[i]))
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Response, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	// A sale update must restate the full line list; without it, an omitted
	// line is indistinguishable from an intended deletion.
	if input.Lines == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lines are required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lines must not be empty")
	}
	if err := rejectDuplicateProducts(input.Lines); err != nil {
		return nil, err
	}

	var method *enums.PaymentMethod
	if input.PaymentMethod != nil {
		parsed, err := enums.ParsePaymentMethod(*input.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
		}
		method = &parsed
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sale, err := repo.FindWithLines(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}

		if method != nil {
			sale.PaymentMethod = *method
		}

		total, err := s.applyLineDiff(ctx, tx, repo, sale, input.Lines)
		if err != nil {
			return err
		}
		sale.Total = total

		if err := repo.SaveHeader(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale")
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "update sale")
	}

	s.audit.Record(ctx, input.ActorID, enums.AuditSaleUpdated,
		fmt.Sprintf("sale %s updated", id))

	return s.reload(ctx, id)
}

// applyLineDiff reconciles the submitted line set against the persisted one.
// The stock delta per product is the inverse of the quantity change: selling
// more takes stock, selling less or dropping a line returns it.
func (s *service) applyLineDiff(ctx context.Context, tx *gorm.DB, repo Repository, sale *models.Sale, submitted []LineInput) (decimal.Decimal, error) {
	existing := make(map[uuid.UUID]*models.SaleLine, len(sale.Lines))
	for i := range sale.Lines {
		existing[sale.Lines[i].ProductID] = &sale.Lines[i]
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(submitted))
	var newLines []models.SaleLine

	for _, in := range submitted {
		product, err := s.products.FindActiveByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s not found", in.ProductID))
			}
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		seen[in.ProductID] = true
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))

		if line, ok := existing[in.ProductID]; ok {
			increase := in.Quantity - line.Quantity
			if increase > 0 && product.Stock < increase {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("insufficient stock for product %s", in.ProductID))
			}
			if increase != 0 {
				if _, err := s.inventory.Adjust(ctx, tx, in.ProductID, -increase); err != nil {
					return decimal.Zero, err
				}
			}
			line.Quantity = in.Quantity
			line.UnitPrice = product.Price
			line.Subtotal = subtotal
			if err := repo.SaveLine(ctx, line); err != nil {
				return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale line")
			}
		} else {
			if product.Stock < in.Quantity {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("insufficient stock for product %s", in.ProductID))
			}
			if _, err := s.inventory.Adjust(ctx, tx, in.ProductID, -in.Quantity); err != nil {
				return decimal.Zero, err
			}
			newLines = append(newLines, models.SaleLine{
				SaleID:    sale.ID,
				ProductID: in.ProductID,
				Quantity:  in.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
		}

		total = total.Add(subtotal)
	}

	for productID, line := range existing {
		if seen[productID] {
			continue
		}
		// A dropped line returns its full quantity to stock.
		if _, err := s.inventory.Adjust(ctx, tx, productID, line.Quantity); err != nil {
			return decimal.Zero, err
		}
		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove sale line")
		}
	}

	if err := repo.CreateLines(ctx, newLines); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale lines")
	}

	return total, nil
}

// priceLines validates each line against the catalog and checks stock
// sufficiency before anything is persisted. The check is advisory under
// concurrency: two simultaneous sales can both pass it and over-deduct.
func (s *service) priceLines(ctx context.Context, lines []LineInput) ([]pricedLine, decimal.Decimal, error) {
	if err := rejectDuplicateProducts(lines); err != nil {
		return nil, decimal.Zero, err
	}

	priced := make([]pricedLine, 0, len(lines))
	total := decimal.Zero

	for _, in := range lines {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		product, err := s.products.FindActiveByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s not found", in.ProductID))
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if product.Stock < in.Quantity {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient stock for product %s", in.ProductID))
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		priced = append(priced, pricedLine{
			productID: in.ProductID,
			quantity:  in.Quantity,
			unitPrice: product.Price,
			subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	return priced, total, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*Response, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sale")
	}
	return toResponse(sale), nil
}

func rejectDuplicateProducts(lines []LineInput) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if seen[line.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s appears more than once", line.ProductID))
		}
		seen[line.ProductID] = true
	}
	return nil
}

func classify(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
