package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/shopping"
)

type ShoppingHandler struct {
	aggregator *shopping.Aggregator
	pdf        shopping.PDFOptions
	logger     *slog.Logger
}

func NewShoppingHandler(agg *shopping.Aggregator, pdf shopping.PDFOptions, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{aggregator: agg, pdf: pdf, logger: logger}
}

// Download renders the caller's aggregated shopping list as a PDF
// attachment, or as plain text with ?format=txt.
func (h *ShoppingHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	items, err := h.aggregator.ForUser(ctx, userID)
	if err != nil {
		h.logger.Error("aggregate shopping list", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build shopping list")
		return
	}

	var (
		buf         bytes.Buffer
		filename    string
		contentType string
	)
	switch r.URL.Query().Get("format") {
	case "txt":
		err = shopping.RenderText(&buf, items)
		filename, contentType = "shopping_list.txt", "text/plain; charset=utf-8"
	case "", "pdf":
		err = shopping.RenderPDF(&buf, items, h.pdf)
		filename, contentType = "shopping_list.pdf", "application/pdf"
	default:
		writeError(w, http.StatusBadRequest, "format must be pdf or txt")
		return
	}
	if errors.Is(err, shopping.ErrNeedsFont) {
		h.logger.Error("pdf font missing, set FOODGRAM_PDF_FONT", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "shopping list cannot be rendered as PDF on this server, use ?format=txt")
		return
	}
	if err != nil {
		h.logger.Error("render shopping list", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render shopping list")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
