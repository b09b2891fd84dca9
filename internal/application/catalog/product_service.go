package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles catalog management operations
type ProductService struct {
	productRepo catalog.ProductRepository
	variantRepo catalog.ProductVariantRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	variantRepo catalog.ProductVariantRepository,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		logger:      logger,
	}
}

// Create creates a product with its initial variants
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Description, req.Price)
	if err != nil {
		return nil, err
	}
	for _, input := range req.Variants {
		if _, err := product.AddVariant(catalog.Gender(input.Gender), input.Size, input.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID returns a product with its variants
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for idx := range products {
		responses = append(responses, ToProductResponse(&products[idx]))
	}
	return responses, total, nil
}

// Update updates a product's name, description and price
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Name, req.Description, req.Price); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product and its variants
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, productID)
}

// AddVariant adds a size/gender variant to an existing product
func (s *ProductService) AddVariant(ctx context.Context, productID uuid.UUID, req AddVariantRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := product.AddVariant(catalog.Gender(req.Gender), req.Size, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// RestockVariant adds stock to a variant
func (s *ProductService) RestockVariant(ctx context.Context, variantID uuid.UUID, req RestockVariantRequest) (*VariantResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if err := variant.Restock(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.variantRepo.Save(ctx, variant); err != nil {
		return nil, err
	}

	s.logger.Info("Variant restocked",
		zap.String("variant_id", variant.ID.String()),
		zap.Int("added", req.Quantity),
		zap.Int("quantity", variant.Quantity))

	return &VariantResponse{
		ID:       variant.ID,
		Gender:   string(variant.Gender),
		Size:     variant.Size,
		Quantity: variant.Quantity,
	}, nil
}
