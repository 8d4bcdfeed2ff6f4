// Package wire implements the JSON wire encoding of docstore values.
//
// Scalars map to their JSON counterparts. The variants JSON has no native
// form for travel as single-key tagged objects: @ref, @set, @ts, @date and
// @bytes. A literal object whose own keys begin with "@" is escaped under an
// @obj tag so it never collides with the tags.
//
// Decode is the structural inverse of Encode: for every value v built from
// the supported variants, Decode(Encode(v)) equals v.
package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wbrown/janus-docstore/docstore"
)

// Decode parses a wire-encoded JSON document into a Value tree.
func Decode(data []byte) (docstore.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid wire document: %w", err)
	}

	return fromJSON(raw)
}

func fromJSON(raw interface{}) (docstore.Value, error) {
	switch t := raw.(type) {
	case nil:
		return docstore.Null, nil
	case bool:
		return docstore.BooleanV(t), nil
	case string:
		return docstore.StringV(t), nil
	case json.Number:
		return numberValue(t)
	case []interface{}:
		arr := make(docstore.ArrayV, len(t))
		for i, elem := range t {
			v, err := fromJSON(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]interface{}:
		return objectValue(t)
	default:
		return nil, fmt.Errorf("invalid wire document: unexpected %T", raw)
	}
}

// Wire numbers without a fraction or exponent are Longs; all others are
// Doubles.
func numberValue(n json.Number) (docstore.Value, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("invalid wire number %q: %w", n.String(), err)
		}
		return docstore.LongV(i), nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid wire number %q: %w", n.String(), err)
	}
	return docstore.DoubleV(f), nil
}

func objectValue(m map[string]interface{}) (docstore.Value, error) {
	if len(m) == 1 {
		for tag, payload := range m {
			switch tag {
			case "@ref":
				return refValue(payload)
			case "@set":
				return setRefValue(payload)
			case "@ts":
				return timeValue(payload)
			case "@date":
				return dateValue(payload)
			case "@bytes":
				return bytesValue(payload)
			case "@obj":
				inner, ok := payload.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("@obj payload must be an object, got %T", payload)
				}
				return plainObject(inner)
			}
		}
	}

	return plainObject(m)
}

func plainObject(m map[string]interface{}) (docstore.Value, error) {
	obj := make(docstore.ObjectV, len(m))
	for k, elem := range m {
		v, err := fromJSON(elem)
		if err != nil {
			return nil, err
		}
		obj[k] = v
	}
	return obj, nil
}

func refValue(payload interface{}) (docstore.Value, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("@ref payload must be an object, got %T", payload)
	}

	id, ok := m["id"].(string)
	if !ok {
		return nil, fmt.Errorf("@ref payload must carry a string id")
	}

	ref := docstore.RefV{ID: id}
	if rawParent, present := m["parent"]; present {
		v, err := fromJSON(rawParent)
		if err != nil {
			return nil, err
		}
		parent, ok := v.(docstore.RefV)
		if !ok {
			return nil, fmt.Errorf("@ref parent must be a ref, got %s", v.Variant())
		}
		ref.Parent = &parent
	}

	return ref, nil
}

func setRefValue(payload interface{}) (docstore.Value, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("@set payload must be an object, got %T", payload)
	}

	params, err := plainObject(m)
	if err != nil {
		return nil, err
	}
	return docstore.SetRefV{Parameters: params.(docstore.ObjectV)}, nil
}

func timeValue(payload interface{}) (docstore.Value, error) {
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("@ts payload must be a string, got %T", payload)
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("invalid @ts %q: %w", s, err)
	}
	return docstore.TimeV(t), nil
}

func dateValue(payload interface{}) (docstore.Value, error) {
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("@date payload must be a string, got %T", payload)
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid @date %q: %w", s, err)
	}
	return docstore.DateV(t), nil
}

func bytesValue(payload interface{}) (docstore.Value, error) {
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("@bytes payload must be a string, got %T", payload)
	}

	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid @bytes: %w", err)
	}
	return docstore.BytesV(b), nil
}
