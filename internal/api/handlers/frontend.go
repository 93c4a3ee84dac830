package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FrontendHandler serves the built player UI. Paths that match no file on
// disk fall back to index.html so the player's client-side routes survive a
// page reload.
type FrontendHandler struct {
	root      string
	indexPath string
}

// NewFrontendHandler serves the player UI from root, the UI build output
// directory. It returns an error when no build is present so the server can
// run API-only.
func NewFrontendHandler(root string) (*FrontendHandler, error) {
	indexPath := filepath.Join(root, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return nil, err
	}

	log.Info().Str("root", root).Msg("Serving player UI")

	return &FrontendHandler{
		root:      root,
		indexPath: indexPath,
	}, nil
}

func (h *FrontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Clean with a leading slash so a crafted path cannot escape root
	name := filepath.Clean("/" + r.URL.Path)

	fullPath := filepath.Join(h.root, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.ServeFile(w, r, h.indexPath)
			return
		}
		log.Error().Err(err).Str("path", fullPath).Msg("Failed to read UI asset")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if info.IsDir() {
		http.ServeFile(w, r, h.indexPath)
		return
	}

	http.ServeFile(w, r, fullPath)
}
