package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/product"
)

type productView struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Price      string           `json:"price"`
	OfferPrice string           `json:"offerPrice"`
	Category   string           `json:"category"`
	Image      productImageView `json:"image"`
}

type productImageView struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// ListProducts handles GET /api/product/list.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list products failed", zap.Error(err))
		writeFailure(w, "could not load products")
		return
	}

	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = h.productToView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": views,
	})
}

// GetProduct handles GET /api/product/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"message": "Product not found",
			})
			return
		}
		zctx.From(r.Context()).Error("get product failed", zap.Error(err))
		writeFailure(w, "could not load product")
		return
	}

	view := h.productToView(*p)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": view,
	})
}

func (h *Handler) productToView(p product.Product) productView {
	base := h.imageBaseURL
	return productView{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		OfferPrice: p.OfferPrice.String(),
		Category:   p.Category,
		Image: productImageView{
			Thumbnail: base + p.Image.Thumbnail,
			Mobile:    base + p.Image.Mobile,
			Tablet:    base + p.Image.Tablet,
			Desktop:   base + p.Image.Desktop,
		},
	}
}
