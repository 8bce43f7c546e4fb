// static.go — раздача собранного SPA. Неизвестные пути вне /api
// отдают index.html: маршрутизацию выполняет клиент.
package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
)

// StaticHandler — файловый сервер SPA с fallback на index.html.
type StaticHandler struct {
	dir    string
	server http.Handler
}

// NewStaticHandler создаёт обработчик статики из dir.
// Возвращает nil, если директории нет: сервер работает как чистый API.
func NewStaticHandler(dir string) *StaticHandler {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return &StaticHandler{
		dir:    dir,
		server: http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP отдаёт файл, если он есть, иначе index.html.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		apierrors.NotFound(w, "Not found")
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		apierrors.NotFound(w, "Not found")
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" {
		info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			h.server.ServeHTTP(w, r)
			return
		}
	}

	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
