// internal/api/http/assets.go
package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-mcsaon/internal/storage"
)

// MountExports serves stored export files.
func MountExports(r chi.Router, bs storage.BlobStore) {
	// GET /exports/*   -> returns the blob at whatever follows /exports/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(r.Context(), "exports/"+key)
		if errors.Is(err, storage.ErrBlobAbsent) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.Copy(w, rc)
	})

	r.Delete("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if err := bs.Delete(r.Context(), "exports/"+key); err != nil && !errors.Is(err, storage.ErrBlobAbsent) {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
