package routes

import "net/http"

// Group collects routes under a shared prefix. Child groups nest their
// prefixes beneath the parent's.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		mount(mux, "", group)
	}
}

func mount(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		mount(mux, prefix, child)
	}
}
