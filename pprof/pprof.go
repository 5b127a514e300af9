package pprof

import (
	"net/http"
	_ "net/http/pprof"
)

// Listen serves the pprof endpoints on addr for profiling long cycles.
func Listen(addr string) error {
	return http.ListenAndServe(addr, nil)
}
