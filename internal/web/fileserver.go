package web

import (
	"io/fs"
	"net/http"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	staticAssetsPath = "assets/static"
	staticURLPrefix  = "/static"
	editorPage       = "index.html"
)

// FileServer serves the embedded editor.
type FileServer struct {
	assetsFS fs.FS
	log      logger.Logger
}

func NewFileServer(assetsFS fs.FS, log logger.Logger) *FileServer {
	return &FileServer{
		assetsFS: assetsFS,
		log:      log,
	}
}

func (s *FileServer) RegisterRoutes(r chi.Router) {
	s.log.Infof("Registering file server: %s -> %s", staticURLPrefix, staticAssetsPath)

	staticFS, err := fs.Sub(s.assetsFS, staticAssetsPath)
	if err != nil {
		s.log.Errorf("Error creating static files sub-filesystem: %v", err)
		return
	}

	handler := http.StripPrefix(staticURLPrefix+"/", http.FileServer(http.FS(staticFS)))
	r.With(middleware.NoSniff).Handle(staticURLPrefix+"/*", handler)
	r.With(middleware.NoSniff).Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, editorPage)
	})
	s.log.Info("File server registered successfully")
}
