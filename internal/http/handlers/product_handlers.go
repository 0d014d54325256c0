package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openpantry/barcode-resolver/internal/repo"
	"github.com/openpantry/barcode-resolver/internal/resolver"
)

// ResolveProductHandler godoc
// @Summary Resolve a product by barcode
// @Description Serves cached data when available, otherwise consults the external providers
// @Tags products
// @Produce json
// @Param barcode path string true "Product barcode"
// @Success 200 {object} models.ResolutionResult
// @Failure 400 {string} string "Invalid barcode"
// @Failure 404 {object} models.ResolutionResult
// @Router /products/{barcode} [get]
func ResolveProductHandler(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if !validBarcode(barcode) {
		http.Error(w, "invalid barcode", http.StatusBadRequest)
		return
	}

	result, err := svc.Resolve(r.Context(), barcode)
	if err != nil {
		log.Error("resolution failed", zap.String("barcode", barcode), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}

// ContributeProductHandler godoc
// @Summary Contribute product details for a barcode
// @Tags products
// @Accept json
// @Produce json
// @Param barcode path string true "Product barcode"
// @Param contribution body resolver.ContributeRequest true "Contributed fields"
// @Success 201 {object} models.Product
// @Failure 400 {string} string "Invalid input"
// @Failure 409 {object} ErrorResult
// @Router /products/{barcode}/contributions [post]
func ContributeProductHandler(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if !validBarcode(barcode) {
		http.Error(w, "invalid barcode", http.StatusBadRequest)
		return
	}

	var req resolver.ContributeRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	product, err := svc.Contribute(r.Context(), barcode, req)
	if err != nil {
		if errors.Is(err, resolver.ErrCuratedRecord) {
			writeJSON(w, http.StatusConflict, ErrorResult{Error: "record is curated"})
			return
		}
		log.Error("contribution failed", zap.String("barcode", barcode), zap.Error(err))
		http.Error(w, "could not save contribution", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// CurateProductHandler godoc
// @Summary Apply an operator edit to a product
// @Description Marks the record curated and verified; curated records are immune to automatic overwrite
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Product barcode"
// @Param curation body resolver.CurateRequest true "Curated fields"
// @Success 200 {object} models.Product
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Unauthorized"
// @Router /products/{barcode}/curation [put]
func CurateProductHandler(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if !validBarcode(barcode) {
		http.Error(w, "invalid barcode", http.StatusBadRequest)
		return
	}

	var req resolver.CurateRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	product, err := svc.Curate(r.Context(), barcode, req)
	if err != nil {
		log.Error("curation failed", zap.String("barcode", barcode), zap.Error(err))
		http.Error(w, "could not curate product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProductHandler godoc
// @Summary Soft-delete a product
// @Tags products
// @Security BearerAuth
// @Param barcode path string true "Product barcode"
// @Success 204 {string} string "No content"
// @Failure 404 {string} string "Not found"
// @Router /products/{barcode} [delete]
func DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if !validBarcode(barcode) {
		http.Error(w, "invalid barcode", http.StatusBadRequest)
		return
	}

	if err := svc.Delete(r.Context(), barcode); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		log.Error("delete failed", zap.String("barcode", barcode), zap.Error(err))
		http.Error(w, "could not delete product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
