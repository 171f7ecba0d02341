// Package yaml describes and decodes model replies in YAML,
// small models tend to follow a YAML example better than a JSON schema.
package yaml

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/pkg/llmutils"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	validate        = validator.New()
	descriptionExpr = regexp.MustCompile(`description=([^,]+)`)
)

// Faker returns an example instance used in the format instructions
type Faker interface {
	Fake() any
}

// Encoder shows the model an example of T,
// optionally annotated with the field descriptions as line comments.
type Encoder struct {
	reqType  reflect.Type
	comments bool
}

// NewEncoder returns the encoder of the type of req
func NewEncoder(req any) *Encoder {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &Encoder{
		reqType: t,
	}
}

// WithComments enables the field descriptions in the example
func (e *Encoder) WithComments(comments bool) *Encoder {
	e.comments = comments
	return e
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	if !e.comments {
		return yaml.Marshal(v)
	}
	val := reflect.Indirect(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return nil, errors.Newf("expected struct, got %s", val.Kind())
	}
	node, err := toNode(val)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	return yaml.Unmarshal(llmutils.BytesTrimBackticks(bs), ret)
}

func (e *Encoder) Validate(req any) error {
	return validate.Struct(req)
}

func (e *Encoder) GetFormatInstructions() string {
	bs, err := e.Marshal(e.example())
	if err != nil {
		return ""
	}

	header := "Respond with YAML in the following format:"
	if e.comments {
		header = "Respond with YAML in the following format, the comments describe the fields:"
	}
	return fmt.Sprintf("\n%s\n```yaml\n%s```\nReturn only the YAML, without comments.\n", header, bs)
}

func (e *Encoder) example() any {
	v := reflect.New(e.reqType)
	if f, ok := v.Elem().Interface().(Faker); ok {
		return f.Fake()
	}
	_ = gofakeit.Struct(v.Interface())
	return v.Interface()
}

func toNode(v reflect.Value) (*yaml.Node, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return &yaml.Node{Kind: yaml.ScalarNode, Value: "null", Tag: "!!null"}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return structNode(v)
	case reflect.Map:
		node := &yaml.Node{Kind: yaml.MappingNode}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, key := range keys {
			val, err := toNode(v.MapIndex(key))
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(key.Interface())},
				val)
		}
		return node, nil
	case reflect.Slice, reflect.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < v.Len(); i++ {
			item, err := toNode(v.Index(i))
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, item)
		}
		return node, nil
	}

	node := &yaml.Node{}
	if err := node.Encode(v.Interface()); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", v.Kind())
	}
	return node, nil
}

func structNode(v reflect.Value) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		fv := v.Field(i)
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}

		val, err := toNode(fv)
		if err != nil {
			return nil, errors.WithMessagef(err, "field %s", name)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
		key.LineComment = fieldComment(field)
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// fieldComment returns `comment` tag or the description of `jsonschema` tag
func fieldComment(field reflect.StructField) string {
	if c := field.Tag.Get("comment"); c != "" {
		return c
	}
	if m := descriptionExpr.FindStringSubmatch(field.Tag.Get("jsonschema")); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
