package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var openapiYAML []byte

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("load openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi: %w", err)
	}
	return doc, nil
}

// requestValidator checks request parameters and bodies against operations
// of the OpenAPI document.
type requestValidator struct {
	doc *openapi3.T
}

// route resolves the operation documented for method and path.
func (v *requestValidator) route(method, path string) (*routers.Route, error) {
	item := v.doc.Paths.Find(path)
	if item == nil {
		return nil, fmt.Errorf("openapi: path %s is not documented", path)
	}
	op := item.GetOperation(method)
	if op == nil {
		return nil, fmt.Errorf("openapi: %s %s is not documented", method, path)
	}
	return &routers.Route{
		Spec:      v.doc,
		Path:      path,
		PathItem:  item,
		Method:    method,
		Operation: op,
	}, nil
}

// middleware rejects requests that do not match the documented operation.
func (v *requestValidator) middleware(method, path string) (func(http.Handler) http.Handler, error) {
	route, err := v.route(method, path)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: map[string]string{},
				Route:      route,
				Options:    &openapi3filter.Options{MultiError: false},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeError(w, &requestError{err: err})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
