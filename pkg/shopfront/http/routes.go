package http

import (
	"fmt"
	"io"
	"strings"
)

// RouteTable is logged once at startup.
type RouteTable struct {
	Routes []Route `json:"routes"`
}

func (rt *RouteTable) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "registered %d route(s)\n", len(rt.Routes))

	for _, r := range rt.Routes {
		fmt.Fprintf(writer, "\u001B[38;5;8m%-32s\u001B[0m \u001B[38;5;%dm%-7s\u001B[0m %s\n", "", methodColor(r.Method), r.Method, r.Path)
	}
}

func (rt *RouteTable) String() string {
	parts := make([]string, 0, len(rt.Routes))

	for _, r := range rt.Routes {
		parts = append(parts, r.Method+" "+r.Path)
	}

	return strings.Join(parts, ", ")
}

func methodColor(method string) int {
	const (
		green  = 34
		yellow = 220
		red    = 202
		grey   = 8
	)

	switch method {
	case "GET":
		return green
	case "POST", "PUT", "PATCH":
		return yellow
	case "DELETE":
		return red
	default:
		return grey
	}
}
