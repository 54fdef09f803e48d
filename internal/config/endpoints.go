package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/healthchecker/internal/domain"
)

var ErrNoEndpoints = errors.New("no endpoints configured")

var allowedMethods = []interface{}{
	"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
}

// LoadEndpoints reads and validates the endpoints file. Any invalid entry
// rejects the whole file.
func LoadEndpoints(path string) ([]domain.Endpoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}
	eps, err := ParseEndpoints(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return eps, nil
}

// ParseEndpoints accepts either a top-level YAML sequence of endpoints or a
// mapping with an "endpoints" key.
func ParseEndpoints(b []byte) ([]domain.Endpoint, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrNoEndpoints
	}

	var raw []domain.Endpoint
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode endpoints: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Endpoints []domain.Endpoint `yaml:"endpoints"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode endpoints: %w", err)
		}
		raw = wrapped.Endpoints
	default:
		return nil, fmt.Errorf("endpoints file must be a list or contain an endpoints list")
	}
	if len(raw) == 0 {
		return nil, ErrNoEndpoints
	}

	out := make([]domain.Endpoint, 0, len(raw))
	var errs error
	for i, r := range raw {
		ep := r.Normalize()
		if err := ValidateEndpoint(ep); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("endpoint %d (%s): %w", i+1, ep.Name, err))
			continue
		}
		out = append(out, ep)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// ValidateEndpoint checks a normalized endpoint.
func ValidateEndpoint(ep domain.Endpoint) error {
	return validation.ValidateStruct(&ep,
		validation.Field(&ep.URL, validation.Required, validation.By(validateEndpointURL)),
		validation.Field(&ep.Method, validation.Required, validation.In(allowedMethods...)),
		validation.Field(&ep.Body, validation.By(validateBody)),
	)
}

// validateBody rejects bodies that cannot be sent as JSON, such as YAML
// mappings with non-string keys.
func validateBody(value interface{}) error {
	if value == nil {
		return nil
	}
	if _, err := json.Marshal(value); err != nil {
		return validation.NewError("validation_invalid_body", "body must be JSON encodable: "+err.Error())
	}
	return nil
}

func validateEndpointURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Hostname() == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}
