package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// bodySchemas holds the compiled request body schemas keyed by file name
// without extension.
type bodySchemas map[string]*jsonschema.Schema

func loadBodySchemas() (bodySchemas, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	out := make(bodySchemas, len(entries))
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	return out, nil
}

func mustLoadBodySchemas() bodySchemas {
	s, err := loadBodySchemas()
	if err != nil {
		panic(err)
	}

	return s
}

// decode reads the request body, checks it against the named schema and
// unmarshals it into dst. Any failure wraps errInvalidBody.
func (s bodySchemas) decode(w http.ResponseWriter, r *http.Request, name string, dst any) error {
	schema, ok := s[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	verrs, err := schema.ValidateBytes(r.Context(), body)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %s %s", errInvalidBody, verrs[0].PropertyPath, verrs[0].Message)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	return nil
}
