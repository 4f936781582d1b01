package portalio

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/fieldplan/pkg/errors"
)

//go:embed schema/portals.schema.json
var portalSchemaJSON []byte

const portalSchemaURL = "https://fieldplan.dev/schemas/portals.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func portalSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if schemaErr = c.AddResource(portalSchemaURL, bytes.NewReader(portalSchemaJSON)); schemaErr != nil {
			return
		}
		schema, schemaErr = c.Compile(portalSchemaURL)
	})
	return schema, schemaErr
}

type jsonPortal struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// parseJSON reads an array of {name, lat, lon} or an object wrapping that
// array under "portals". The document must satisfy the embedded schema.
func parseJSON(data []byte, res *Result) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeInputParse, "invalid portal json")
	}

	sch, err := portalSchema()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "portal schema does not compile")
	}
	if err := sch.Validate(doc); err != nil {
		return errors.New(errors.ErrCodeInputSchema, "portal json does not match schema").WithDetail(err.Error())
	}

	var list []jsonPortal
	if _, isArray := doc.([]interface{}); isArray {
		err = json.Unmarshal(data, &list)
	} else {
		var wrapped struct {
			Portals []jsonPortal `json:"portals"`
		}
		err = json.Unmarshal(data, &wrapped)
		list = wrapped.Portals
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInputParse, "invalid portal json")
	}
	for i, p := range list {
		res.add(Record{Name: p.Name, Lat: p.Lat, Lon: p.Lon, Line: i + 1})
	}
	return nil
}

type yamlPortal struct {
	Name string   `yaml:"name"`
	Lat  *float64 `yaml:"lat"`
	Lon  *float64 `yaml:"lon"`
	Lng  *float64 `yaml:"lng"`
}

// parseYAML reads "portals: [{name, lat, lon}]" or a bare sequence. Entries
// are decoded one by one so a bad entry is reported with its line.
func parseYAML(data []byte, res *Result) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.Wrap(err, errors.ErrCodeInputParse, "invalid portal yaml")
	}
	if len(root.Content) == 0 {
		return nil
	}
	seq := root.Content[0]
	if seq.Kind == yaml.MappingNode {
		seq = mappingValue(seq, "portals")
		if seq == nil {
			return errors.New(errors.ErrCodeInputSchema, "portal yaml has no portals list")
		}
	}
	if seq.Kind != yaml.SequenceNode {
		return errors.New(errors.ErrCodeInputSchema, "portals must be a list")
	}

	for _, item := range seq.Content {
		var p yamlPortal
		if err := item.Decode(&p); err != nil {
			res.issue(item.Line, errors.ErrCodeInputParse, err.Error())
			continue
		}
		if p.Lon == nil {
			p.Lon = p.Lng
		}
		if p.Lat == nil || p.Lon == nil {
			res.issue(item.Line, errors.ErrCodeInputParse, "entry needs lat and lon")
			continue
		}
		res.add(Record{Name: p.Name, Lat: *p.Lat, Lon: *p.Lon, Line: item.Line})
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// EncodeYAML writes records in the format parseYAML reads.
func EncodeYAML(records []Record) ([]byte, error) {
	type entry struct {
		Name string  `yaml:"name,omitempty"`
		Lat  float64 `yaml:"lat"`
		Lon  float64 `yaml:"lon"`
	}
	doc := struct {
		Portals []entry `yaml:"portals"`
	}{Portals: make([]entry, len(records))}
	for i, r := range records {
		doc.Portals[i] = entry{Name: r.Name, Lat: r.Lat, Lon: r.Lon}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, fmt.Sprintf("encode %d portals", len(records)))
	}
	return out, nil
}

//Personal.AI order the ending
