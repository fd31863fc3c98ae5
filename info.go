package nano

// APIInfo describes one annotated endpoint. Generated listings return one
// per endpoint, ordered by handler name.
type APIInfo struct {
	Method   string
	Path     string
	BasePath string // path_group of the directive
	Handler  string // fully-qualified handler name
	Summary  string
	Public   bool
	Group    string
}
