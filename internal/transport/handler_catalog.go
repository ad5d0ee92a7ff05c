package transport

import (
	"net/http"

	"github.com/briefkit/wizard/model"
)

func handleCatalogGet(catalog model.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, catalog)
	}
}
