package settings

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/*.json
var embeddedSchemas embed.FS

// Validator checks settings document files against the embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// ValidationError is a single schema violation.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of a validation.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// NewValidator creates a Validator with the embedded settings schema.
func NewValidator() (*Validator, error) {
	schemaData, err := embeddedSchemas.ReadFile("schema/clipdash.settings.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("clipdash.settings.schema.json", strings.NewReader(string(schemaData))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("clipdash.settings.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// ValidateFile validates a settings document file (YAML or JSON).
func (v *Validator) ValidateFile(filePath string) (*ValidationResult, error) {
	obj, err := readDocumentFile(filePath)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []*ValidationError{{Message: err.Error()}},
		}, nil
	}
	return v.validate(obj)
}

func (v *Validator) validate(obj any) (*ValidationResult, error) {
	err := v.schema.Validate(obj)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var validationErrors []*ValidationError
	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		validationErrors = extractErrors(validationErr)
	} else {
		validationErrors = []*ValidationError{{Message: err.Error()}}
	}
	return &ValidationResult{Valid: false, Errors: validationErrors}, nil
}

func extractErrors(err *jsonschema.ValidationError) []*ValidationError {
	var errs []*ValidationError
	if len(err.Causes) == 0 {
		errs = append(errs, &ValidationError{
			Path:    err.InstanceLocation,
			Message: err.Message,
		})
	}
	for _, cause := range err.Causes {
		errs = append(errs, extractErrors(cause)...)
	}
	return errs
}

// ParseFile reads a settings document from a YAML or JSON file. Fields the
// file omits keep their documented defaults; present-but-malformed numerics
// coerce to zero so the save normalization clamps them to their floors.
func ParseFile(filePath, clientID string) (Document, error) {
	obj, err := readDocumentFile(filePath)
	if err != nil {
		return Document{}, err
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("settings document must be a mapping")
	}
	doc := DefaultDocument(clientID)
	if id := asString(m["clientId"], ""); id != "" {
		doc.ClientID = id
	}
	doc.HeadingText = asString(m["headingText"], "")
	doc.WatermarkText = asString(m["watermarkText"], "")
	doc.CampaignName = asString(m["campaignName"], "")
	doc.Platforms = asStringSlice(m["platforms"])
	doc.BudgetUsd = asFloat(m["budgetUsd"], 0)
	if deadline := asString(m["deadline"], ""); deadline != "" {
		doc.Deadline = &deadline
	}
	doc.Requirements = asStringSlice(m["requirements"])
	doc.MonthlyRetainerEnabled = asBool(m["monthlyRetainerEnabled"])
	doc.MonthlyRetainerUsd = asFloat(m["monthlyRetainerUsd"], 0)
	doc.PayoutsInstagram = payoutFromFile(m["payoutsInstagram"])
	doc.PayoutsYoutube = payoutFromFile(m["payoutsYoutube"])
	doc.PayoutsTiktok = payoutFromFile(m["payoutsTiktok"])
	return doc, nil
}

func payoutFromFile(v any) PayoutConfig {
	m, ok := v.(map[string]any)
	if !ok {
		return DefaultPayout()
	}
	p := PayoutConfig{
		ViewsPerDollar:  DefaultViewsPerDollar,
		MaxPayEnabled:   asBool(m["maxPayEnabled"]),
		MinViewsEnabled: asBool(m["minViewsEnabled"]),
	}
	// Present-but-unparseable values coerce to zero, not to the default:
	// the subsequent Normalize clamps them to the documented floor.
	if raw, present := m["viewsPerDollar"]; present {
		p.ViewsPerDollar = asInt(raw, 0)
	}
	if raw, present := m["maxPayUsd"]; present {
		p.MaxPayUsd = asFloat(raw, 0)
	}
	if raw, present := m["minViews"]; present {
		p.MinViews = asInt(raw, 0)
	}
	return p
}

func readDocumentFile(filePath string) (any, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		var obj any
		if err := yaml.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return convertYAMLToJSON(obj), nil
	case ".json":
		var obj any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s (use .yaml, .yml, or .json)", ext)
	}
}

// convertYAMLToJSON converts YAML-parsed data to JSON-compatible structures.
func convertYAMLToJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any)
		for k, item := range val {
			result[k] = convertYAMLToJSON(item)
		}
		return result
	case map[any]any:
		result := make(map[string]any)
		for k, item := range val {
			result[fmt.Sprintf("%v", k)] = convertYAMLToJSON(item)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = convertYAMLToJSON(item)
		}
		return result
	case int:
		return float64(val)
	default:
		return v
	}
}
