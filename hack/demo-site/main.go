package main

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

// A few pages covering each resolver stage, for poking at the service by
// hand: iconctl resolve http://localhost:9000/meta http://localhost:9000/manifest ...
func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><head><link rel="shortcut icon" href="/static/meta.ico"></head><body>meta</body></html>`)
	})
	mux.HandleFunc("/manifest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><head><link rel="manifest" href="/static/site.webmanifest"></head><body>manifest</body></html>`)
	})
	mux.HandleFunc("/static/site.webmanifest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/manifest+json")
		fmt.Fprintln(w, `{"icons":[{"src":"icon-192.png","sizes":"192x192"},{"src":"icon-48.png","sizes":"48x48"}]}`)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><head><title>plain</title></head><body>plain</body></html>`)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(30 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/x-icon")
		w.WriteHeader(http.StatusOK)
	})

	log.Println("demo-site listening on :9000")
	log.Fatal(http.ListenAndServe(":9000", mux))
}
