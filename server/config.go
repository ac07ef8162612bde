package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., "localhost:8000")
	ListenAddr string

	// StaticDir is the root for GET requests. "/" serves StaticDir/index.html.
	StaticDir string
}
