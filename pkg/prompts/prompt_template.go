package prompts

import (
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
)

// ErrMissingInputVariables is returned when the values to render miss required variables.
var ErrMissingInputVariables = errors.New("missing required input variables")

// PromptTemplate contains common fields for all prompt templates.
type PromptTemplate struct {
	// Template is the prompt template.
	Template string
	// A list of variable names the prompt template expects.
	InputVariables []string
	// TemplateFormat is the format of the prompt template.
	TemplateFormat TemplateFormat
	// PartialVariables represents a map of variable names to values
	// that are merged into the values on every Format call.
	PartialVariables map[string]any
}

// NewPromptTemplate returns a new prompt template in go-template format.
func NewPromptTemplate(template string, inputVars []string) PromptTemplate {
	return PromptTemplate{
		Template:       template,
		InputVariables: inputVars,
		TemplateFormat: TemplateFormatGoTemplate,
	}
}

// Format formats the prompt template and returns a string value.
func (p PromptTemplate) Format(values map[string]any) (string, error) {
	resolved, err := resolveValues(p.InputVariables, p.PartialVariables, values)
	if err != nil {
		return "", err
	}
	return RenderTemplate(p.Template, p.TemplateFormat, resolved)
}

// GetInputVariables returns the input variables the prompt expects.
func (p PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

func resolveValues(required []string, partial map[string]any, values map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(values)+len(partial))
	maps.Copy(resolved, partial)
	maps.Copy(resolved, values)

	var missing []string
	for _, name := range required {
		if _, ok := resolved[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, errors.Wrapf(ErrMissingInputVariables, "%v", missing)
	}
	return resolved, nil
}
