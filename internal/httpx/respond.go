package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Brocoder07/ShopStream/internal/auth"
	"github.com/Brocoder07/ShopStream/internal/catalog"
	"github.com/Brocoder07/ShopStream/internal/inventory"
	"github.com/Brocoder07/ShopStream/internal/orders"
	"github.com/Brocoder07/ShopStream/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP status codes. Anything
// unmapped is a 500 with a generic body so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, orders.ErrUserNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, users.ErrEmailTaken):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, auth.ErrPasswordTooShort):
		code = http.StatusBadRequest
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
