package config

import (
	"sort"
	"strings"
)

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func newAllowedOrigins(origins []string) AllowedOrigins {
	a := AllowedOrigins{}
	for _, o := range origins {
		a[strings.TrimRight(o, "/")] = nullValue{}
	}
	return a
}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

func (c mainConfig) GetAllowedOrigins() AllowedOrigins {
	return c.origins
}

func (mainConfig) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (mainConfig) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
