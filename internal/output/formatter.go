// Package output renders command line results as text, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/pior/kvclient/wire"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(data any) string
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"text", "json", "yaml"}

// NewFormatter returns a Formatter for the given format string.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Plain converts a wire value to Go values the encoders understand: nil,
// bool, int64, float64, string, []byte (when not valid UTF-8) and []any.
func Plain(v wire.Value) any {
	switch v.Kind() {
	case wire.KindBool:
		b, _ := v.AsBool()
		return b
	case wire.KindInt:
		i, _ := v.AsInt()
		return i
	case wire.KindFloat:
		f, _ := v.AsFloat()
		return f
	case wire.KindBytes:
		b, _ := v.AsBytes()
		if utf8.Valid(b) {
			return string(b)
		}
		return b
	case wire.KindArray:
		elems, _ := v.AsArray()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = Plain(e)
		}
		return out
	default:
		return nil
	}
}

// TextFormatter formats data for a terminal. Replies are numbered like
// array elements, structs become aligned tables.
type TextFormatter struct{}

func (f *TextFormatter) Format(data any) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	switch x := data.(type) {
	case nil, bool, int64, float64, string, []byte:
		fmt.Fprintln(w, textValue(x))
	case []any:
		if len(x) == 0 {
			fmt.Fprintln(w, "(empty)")
		}
		for i, e := range x {
			fmt.Fprintf(w, "%d)\t%s\n", i+1, textValue(e))
		}
	default:
		f.formatReflect(w, data)
	}

	w.Flush()
	return buf.String()
}

func (f *TextFormatter) formatReflect(w *tabwriter.Writer, data any) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			fmt.Fprintln(w, "(empty)")
			return
		}
		elem := v.Index(0)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			for i := 0; i < v.Len(); i++ {
				fmt.Fprintln(w, v.Index(i).Interface())
			}
			return
		}

		t := elem.Type()
		headers := make([]string, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			headers[i] = strings.ToUpper(t.Field(i).Name)
		}
		fmt.Fprintln(w, strings.Join(headers, "\t"))

		for i := 0; i < v.Len(); i++ {
			row := v.Index(i)
			if row.Kind() == reflect.Ptr {
				row = row.Elem()
			}
			vals := make([]string, row.NumField())
			for j := 0; j < row.NumField(); j++ {
				vals[j] = cellValue(row.Field(j).Interface())
			}
			fmt.Fprintln(w, strings.Join(vals, "\t"))
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			fmt.Fprintf(w, "%s:\t%s\n", t.Field(i).Name, cellValue(v.Field(i).Interface()))
		}

	default:
		fmt.Fprintln(w, data)
	}
}

// cellValue renders a table cell: strings are not quoted.
func cellValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return textValue(v)
}

func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "(nil)"
	case string:
		return strconv.Quote(x)
	case []byte:
		return fmt.Sprintf("%q", x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = textValue(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}
