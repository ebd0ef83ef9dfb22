package fmts

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"src.kelp.sh/pkg/ast"
	"src.kelp.sh/pkg/diag"
	"src.kelp.sh/pkg/engine"
	"src.kelp.sh/pkg/errs"
	"src.kelp.sh/pkg/val"
)

var fromYAMLSig = ast.NewSignature("from yaml").
	WithDescription("Parse the input text as a YAML document.")

func fromYAML(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	s, err := inputText(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, err
	}
	v, err := yamlValue(&node, c.Ranging)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: v}, nil
}

// yamlValue builds a value from a decoded node. Mappings keep their
// document order; aliases resolve to the value of their anchor.
func yamlValue(n *yaml.Node, r diag.Ranging) (val.Value, error) {
	switch n.Kind {
	case 0:
		// An empty document decodes into a zero node.
		return val.Nothing(r), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return val.Nothing(r), nil
		}
		return yamlValue(n.Content[0], r)
	case yaml.SequenceNode:
		l := val.EmptyList
		for _, child := range n.Content {
			v, err := yamlValue(child, r)
			if err != nil {
				return val.Value{}, err
			}
			l = l.Conj(v)
		}
		return val.NewList(l, r), nil
	case yaml.MappingNode:
		rec := val.Record{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return val.Value{}, fmt.Errorf("YAML mapping key on line %d is not a scalar", key.Line)
			}
			v, err := yamlValue(n.Content[i+1], r)
			if err != nil {
				return val.Value{}, err
			}
			rec = rec.Assoc(key.Value, v)
		}
		return val.NewRecord(rec, r), nil
	case yaml.AliasNode:
		return yamlValue(n.Alias, r)
	case yaml.ScalarNode:
		return yamlScalar(n, r)
	}
	return val.Value{}, fmt.Errorf("cannot convert YAML node on line %d", n.Line)
}

func yamlScalar(n *yaml.Node, r diag.Ranging) (val.Value, error) {
	switch n.Tag {
	case "!!null":
		return val.Nothing(r), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return val.Value{}, err
		}
		return val.Bool(b, r), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return val.Value{}, err
		}
		return val.Int(i, r), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return val.Value{}, err
		}
		return val.Float(f, r), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return val.Value{}, err
		}
		return val.Date(t, r), nil
	case "!!binary":
		var b []byte
		if err := n.Decode(&b); err != nil {
			return val.Value{}, err
		}
		return val.Binary(b, r), nil
	}
	return val.String(n.Value, r), nil
}

var toYAMLSig = ast.NewSignature("to yaml").
	WithDescription("Render the input as a YAML document.")

func toYAML(es *engine.EngineState, st *engine.Stack, c *ast.Call, input engine.PipelineData) (engine.PipelineData, error) {
	v, err := engine.Collect(input, c.Ranging)
	if err != nil {
		return nil, err
	}
	node, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return nil, err
	}
	return engine.One{Value: val.String(string(b), c.Ranging)}, nil
}

// yamlNode builds the node tree for a value. Going through nodes instead of
// plain Go values keeps record fields in order.
func yamlNode(v val.Value) (*yaml.Node, error) {
	switch v.Kind() {
	case val.KindNothing:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case val.KindBool:
		b, _ := v.AsBool()
		return scalarNode(b)
	case val.KindInt:
		i, _ := v.AsInt()
		return scalarNode(i)
	case val.KindFloat:
		f, _ := v.AsFloat()
		return scalarNode(f)
	case val.KindString:
		s, _ := v.AsString()
		return scalarNode(s)
	case val.KindDate:
		t, _ := v.AsDate()
		return scalarNode(t)
	case val.KindDuration:
		d, _ := v.AsDuration()
		return scalarNode(d.String())
	case val.KindFilesize:
		n, _ := v.AsFilesize()
		return scalarNode(n)
	case val.KindBinary:
		b, _ := v.AsBinary()
		return scalarNode(b)
	case val.KindList:
		l, _ := v.AsList()
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for it := l.Iterator(); it.HasElem(); it.Next() {
			child, err := yamlNode(it.Elem().(val.Value))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case val.KindRecord:
		rec, _ := v.AsRecord()
		n := &yaml.Node{Kind: yaml.MappingNode}
		for i := 0; i < rec.Len(); i++ {
			k, elem := rec.Get(i)
			key, err := scalarNode(k)
			if err != nil {
				return nil, err
			}
			value, err := yamlNode(elem)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, value)
		}
		return n, nil
	}
	return nil, errs.BadValue{
		What: "value for 'to yaml'", Valid: "a YAML-representable value",
		Actual: v.Kind().String(),
	}
}

func scalarNode(v any) (*yaml.Node, error) {
	n := new(yaml.Node)
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
