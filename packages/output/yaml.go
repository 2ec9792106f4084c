package output

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// YAMLFormatter writes the JSON documents as YAML, one document per call.
type YAMLFormatter struct {
	writer io.Writer
	now    func() time.Time
}

type YAMLOption func(*YAMLFormatter)

func NewYAMLFormatter(opts ...YAMLOption) *YAMLFormatter {
	f := &YAMLFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func YAMLWithWriter(w io.Writer) YAMLOption {
	return func(f *YAMLFormatter) {
		f.writer = w
	}
}

func YAMLWithClock(now func() time.Time) YAMLOption {
	return func(f *YAMLFormatter) {
		f.now = now
	}
}

// MarshalYAML renders v, which must encode to JSON, as YAML with the JSON key
// order preserved.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v); err != nil {
		return nil, err
	}
	value, err := jsonvalue.ParseBytes(buf.Bytes())
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	encoder := yaml.NewEncoder(&out)
	encoder.SetIndent(2)
	if err := encoder.Encode(toNode(value)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNode(v jsonvalue.Value) *yaml.Node {
	switch v.Kind() {
	case jsonvalue.Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				toNode(m.Value))
		}
		return node
	case jsonvalue.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elements() {
			node.Content = append(node.Content, toNode(e))
		}
		return node
	case jsonvalue.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
	case jsonvalue.Number:
		tag := "!!float"
		if f := v.Float(); f == math.Trunc(f) && math.Abs(f) < 1e21 {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}
	case jsonvalue.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.String()}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func (f *YAMLFormatter) encode(v any) {
	data, err := MarshalYAML(v)
	if err != nil {
		fmt.Fprintf(f.writer, "error: true\nmessage: %q\n", err.Error())
		return
	}
	fmt.Fprint(f.writer, "---\n")
	f.writer.Write(data)
}

func (f *YAMLFormatter) FormatRequest(req *parser.Request) {
	f.encode(req)
}

func (f *YAMLFormatter) FormatEnvelope(env *http.Envelope) {
	f.encode(env)
}

func (f *YAMLFormatter) FormatResult(result *runner.RunResult) {
	f.encode(newResultDocument(result, f.now()))
}

func (f *YAMLFormatter) FormatHistory(entries []history.Entry) {
	f.encode(newHistoryDocuments(entries))
}

func (f *YAMLFormatter) FormatError(err error) {
	f.encode(NewErrorDocument(err))
}

func (f *YAMLFormatter) FormatHeader(version string) {}
