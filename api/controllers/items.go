package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/speak2see-backend/api/middleware"
	"github.com/angelmondragon/speak2see-backend/api/responses"
	"github.com/angelmondragon/speak2see-backend/internal/intake"
	"github.com/angelmondragon/speak2see-backend/internal/query"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

type itemsListResponse struct {
	Items []query.ItemSummary `json:"items"`
}

// Upload accepts a raw audio body and starts processing it.
func Upload(svc intake.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "intake service unavailable"))
			return
		}

		var audio []byte
		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body"))
				return
			}
			audio = data
		}

		result, err := svc.Upload(r.Context(), intake.UploadInput{
			OwnerID:     middleware.OwnerIDFromContext(r.Context()),
			Audio:       audio,
			ContentType: r.Header.Get("Content-Type"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ListItems returns every item owned by the caller, newest first.
func ListItems(svc query.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "query service unavailable"))
			return
		}

		items, err := svc.ListAll(r.Context(), middleware.OwnerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemsListResponse{Items: items})
	}
}

// GetItem returns one item with its stored media inlined as base64.
func GetItem(svc query.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "query service unavailable"))
			return
		}

		itemID := chi.URLParam(r, "itemID")
		ctx := r.Context()
		if logg != nil && itemID != "" {
			ctx = logg.WithItemID(ctx, itemID)
		}

		detail, err := svc.Get(ctx, middleware.OwnerIDFromContext(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}
