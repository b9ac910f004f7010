package purchases

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

// supplierDirectory resolves suppliers without soft-delete scoping; purchases
// keep referencing retired suppliers.
type supplierDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	LinkExists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
}

type productCatalog interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// StockAdjuster applies signed stock deltas inside the caller's transaction.
type StockAdjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) (*models.Product, error)
}

// Service registers and maintains purchases. Stock moves with the purchase
// inside one transaction; the audit trail is written after commit.
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
	suppliers supplierDirectory
	products  productCatalog
	inventory StockAdjuster
	audit     audit.Recorder
	logg      *logger.Logger
}

// NewService builds a purchases service with the required collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	users userDirectory,
	suppliers supplierDirectory,
	products productCatalog,
	inventory StockAdjuster,
	auditor audit.Recorder,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier directory required")
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
		suppliers: suppliers,
		products:  products,
		inventory: inventory,
		audit:     auditor,
		logg:      logg,
	}, nil
}

// pricedLine is a validated line with the catalog price already snapshotted.
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

	if _, err := s.suppliers.FindByID(ctx, input.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	priced, total, err := s.priceLines(ctx, input.SupplierID, input.Lines)
	if err != nil {
		return nil, err
	}

	purchase := &models.Purchase{
		PaymentMethod: method,
		Total:         total,
		UserID:        input.UserID,
		SupplierID:    input.SupplierID,
		Lines:         make([]models.PurchaseLine, 0, len(priced)),
	}
	for _, line := range priced {
		purchase.Lines = append(purchase.Lines, models.PurchaseLine{
			ProductID: line.productID,
			Quantity:  line.quantity,
			UnitPrice: line.unitPrice,
			Subtotal:  line.subtotal,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase")
		}
		for _, line := range priced {
			if _, err := s.inventory.Adjust(ctx, tx, line.productID, line.quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "register purchase")
	}

	s.audit.Record(ctx, input.UserID, enums.AuditPurchaseCreated,
		fmt.Sprintf("purchase %s registered for supplier %s", purchase.ID, input.SupplierID))

	return s.reload(ctx, purchase.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	return s.reloadNotFound(ctx, id)
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

	purchases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	resp := &ListResponse{
		Purchases: make([]Response, 0, len(purchases)),
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	for i := range purchases {
		resp.Purchases = append(resp.Purchases, *toResponse(&purchases[i]))
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Response, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	var method *enums.PaymentMethod
	if input.PaymentMethod != nil {
		parsed, err := enums.ParsePaymentMethod(*input.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
		}
		method = &parsed
	}

	if input.Lines != nil {
		if len(input.Lines) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lines must not be empty")
		}
		if err := rejectDuplicateProducts(input.Lines); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		purchase, err := repo.FindWithLines(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}

		if input.SupplierID != nil {
			if _, err := s.suppliers.FindByID(ctx, *input.SupplierID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
			}
			purchase.SupplierID = *input.SupplierID
		}
		if method != nil {
			purchase.PaymentMethod = *method
		}

		if input.Lines != nil {
			total, err := s.applyLineDiff(ctx, tx, repo, purchase, input.Lines)
			if err != nil {
				return err
			}
			purchase.Total = total
		} else {
			total := decimal.Zero
			for _, line := range purchase.Lines {
				total = total.Add(line.Subtotal)
			}
			purchase.Total = total
		}

		if err := repo.SaveHeader(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase")
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "update purchase")
	}

	s.audit.Record(ctx, input.ActorID, enums.AuditPurchaseUpdated,
		fmt.Sprintf("purchase %s updated", id))

	return s.reload(ctx, id)
}

// applyLineDiff reconciles the submitted line set against the persisted one,
// moving stock by the signed difference per product. Returns the new total.
func (s *service) applyLineDiff(ctx context.Context, tx *gorm.DB, repo Repository, purchase *models.Purchase, submitted []LineInput) (decimal.Decimal, error) {
	existing := make(map[uuid.UUID]*models.PurchaseLine, len(purchase.Lines))
	for i := range purchase.Lines {
		existing[purchase.Lines[i].ProductID] = &purchase.Lines[i]
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(submitted))
	var newLines []models.PurchaseLine

	for _, in := range submitted {
		// Link check runs before product resolution; an unlinked product is a
		// rule violation even when the product does not exist.
		linked, err := s.suppliers.LinkExists(ctx, in.ProductID, purchase.SupplierID)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check supplier link")
		}
		if !linked {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("supplier does not provide product %s", in.ProductID))
		}

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
			delta := in.Quantity - line.Quantity
			if delta < 0 && product.Stock+delta < 0 {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("insufficient stock to reduce purchase line for product %s", in.ProductID))
			}
			if delta != 0 {
				if _, err := s.inventory.Adjust(ctx, tx, in.ProductID, delta); err != nil {
					return decimal.Zero, err
				}
			}
			line.Quantity = in.Quantity
			line.UnitPrice = product.Price
			line.Subtotal = subtotal
			if err := repo.SaveLine(ctx, line); err != nil {
				return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase line")
			}
		} else {
			if _, err := s.inventory.Adjust(ctx, tx, in.ProductID, in.Quantity); err != nil {
				return decimal.Zero, err
			}
			newLines = append(newLines, models.PurchaseLine{
				PurchaseID: purchase.ID,
				ProductID:  in.ProductID,
				Quantity:   in.Quantity,
				UnitPrice:  product.Price,
				Subtotal:   subtotal,
			})
		}

		total = total.Add(subtotal)
	}

	for productID, line := range existing {
		if seen[productID] {
			continue
		}

		product, err := s.products.FindActiveByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s is no longer active", productID))
			}
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Stock < line.Quantity {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient stock to remove purchase line for product %s", productID))
		}
		if _, err := s.inventory.Adjust(ctx, tx, productID, -line.Quantity); err != nil {
			return decimal.Zero, err
		}
		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove purchase line")
		}
	}

	if err := repo.CreateLines(ctx, newLines); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase lines")
	}

	return total, nil
}

// priceLines validates each line against the supplier link and then the
// catalog, snapshotting unit prices. Runs before the transaction opens.
func (s *service) priceLines(ctx context.Context, supplierID uuid.UUID, lines []LineInput) ([]pricedLine, decimal.Decimal, error) {
	if err := rejectDuplicateProducts(lines); err != nil {
		return nil, decimal.Zero, err
	}

	priced := make([]pricedLine, 0, len(lines))
	total := decimal.Zero

	for _, in := range lines {
		if in.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		linked, err := s.suppliers.LinkExists(ctx, in.ProductID, supplierID)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check supplier link")
		}
		if !linked {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("supplier does not provide product %s", in.ProductID))
		}

		product, err := s.products.FindActiveByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s not found", in.ProductID))
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
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
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase")
	}
	return toResponse(purchase), nil
}

func (s *service) reloadNotFound(ctx context.Context, id uuid.UUID) (*Response, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return toResponse(purchase), nil
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
