// Package web embeds the browser client.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Static returns the embedded asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// The directive above guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Handler serves index.html at / and the remaining assets under /static/.
func Handler() http.Handler {
	files := http.FileServer(http.FS(Static()))
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", files))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, Static(), "index.html")
	})
	return mux
}
