package transport

import (
	"bytes"
	"net/http"
	"path/filepath"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogHandler serves the public shop endpoints, the role-gated admin CRUD
// and the uploaded image files.
type CatalogHandler struct {
	catalogService service.CatalogService
	storage        storage.Service
	logger         *zap.Logger
}

// NewCatalogHandler creates a new instance of CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, storage storage.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		storage:        storage,
		logger:         logger,
	}
}

// RegisterShopRoutes mounts the public browsing endpoints.
func (h *CatalogHandler) RegisterShopRoutes(r chi.Router) {
	r.Get("/groups", h.ListGroups)
	r.Get("/groups/{slug}", h.GetGroupBySlug)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{slug}", h.GetProductBySlug)
	r.Get("/products/{productID}/related", h.RelatedProducts)
}

// RegisterAdminRoutes mounts the catalog CRUD and the image upload. The
// caller wraps these in the role gate.
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/groups", h.CreateGroup)
	r.Put("/groups/{groupID}", h.UpdateGroup)
	r.Delete("/groups/{groupID}", h.DeleteGroup)

	r.Post("/products", h.CreateProduct)
	r.Put("/products/{productID}", h.UpdateProduct)
	r.Delete("/products/{productID}", h.DeleteProduct)

	r.Post("/upload", h.Upload)
}

type groupRequest struct {
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Description string     `json:"description" validate:"max=2000"`
	Slug        string     `json:"slug" validate:"omitempty,max=150"`
	ImageURL    string     `json:"imageUrl" validate:"omitempty,max=500"`
}

type productRequest struct {
	GroupID     *uuid.UUID      `json:"groupId,omitempty"`
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Slug        string          `json:"slug" validate:"omitempty,max=250"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,max=500"`
}

type groupDetail struct {
	Group     *domain.ProductGroup   `json:"group"`
	Subgroups []*domain.ProductGroup `json:"subgroups"`
	Products  []*domain.Product      `json:"products"`
}

// ListGroups returns the parent groups of the catalog tree.
func (h *CatalogHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalogService.ListParentGroups(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, groups)
}

// GetGroupBySlug returns a group together with its subgroups and products.
func (h *CatalogHandler) GetGroupBySlug(w http.ResponseWriter, r *http.Request) {
	group, err := h.catalogService.GetGroupBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	subgroups, err := h.catalogService.ListChildGroups(r.Context(), group.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	products, err := h.catalogService.ListProductsByGroup(r.Context(), group.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, groupDetail{
		Group:     group,
		Subgroups: subgroups,
		Products:  products,
	})
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogService.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	productID, err := urlParamUUID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	products, err := h.catalogService.RelatedProducts(r.Context(), productID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.catalogService.CreateGroup(r.Context(), service.CreateGroupInput{
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, group)
}

func (h *CatalogHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamUUID(r, "groupID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid group ID")
		return
	}

	var req groupRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group := &domain.ProductGroup{
		ID:          groupID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ImageURL:    req.ImageURL,
	}
	if err := h.catalogService.UpdateGroup(r.Context(), group); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, group)
}

func (h *CatalogHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamUUID(r, "groupID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid group ID")
		return
	}

	if err := h.catalogService.DeleteGroup(r.Context(), groupID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), service.CreateProductInput{
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := urlParamUUID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req productRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product := &domain.Product{
		ID:          productID,
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	if err := h.catalogService.UpdateProduct(r.Context(), product); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := urlParamUUID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), productID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

// Upload stores a multipart image file and returns the name it can be
// fetched back under.
func (h *CatalogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name, err := h.storage.Save(header.Filename, header.Size, file)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"fileName": name})
}

// ServeUpload streams a stored file back to the client.
func (h *CatalogHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, err := h.storage.Load(name)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	http.ServeContent(w, r, filepath.Base(name), time.Time{}, bytes.NewReader(data))
}
