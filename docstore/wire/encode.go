package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wbrown/janus-docstore/docstore"
)

// Encode serializes a Value tree to its wire JSON encoding. Output is
// deterministic: object keys are emitted in sorted order.
func Encode(v docstore.Value) ([]byte, error) {
	raw, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func toJSON(v docstore.Value) (interface{}, error) {
	switch t := v.(type) {
	case docstore.NullV:
		return nil, nil
	case docstore.BooleanV:
		return bool(t), nil
	case docstore.LongV:
		return int64(t), nil
	case docstore.DoubleV:
		return doubleJSON(float64(t))
	case docstore.StringV:
		return string(t), nil
	case docstore.BytesV:
		return tagged("@bytes", base64.URLEncoding.EncodeToString([]byte(t))), nil
	case docstore.DateV:
		return tagged("@date", time.Time(t).Format("2006-01-02")), nil
	case docstore.TimeV:
		return tagged("@ts", time.Time(t).UTC().Format(time.RFC3339Nano)), nil
	case docstore.RefV:
		return refJSON(t)
	case docstore.SetRefV:
		params, err := objectJSON(t.Parameters)
		if err != nil {
			return nil, err
		}
		return tagged("@set", params), nil
	case docstore.ArrayV:
		arr := make([]interface{}, len(t))
		for i, elem := range t {
			raw, err := toJSON(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = raw
		}
		return arr, nil
	case docstore.ObjectV:
		obj, err := objectJSON(t)
		if err != nil {
			return nil, err
		}
		// Escape objects whose own keys could be mistaken for wire tags
		for k := range t {
			if strings.HasPrefix(k, "@") {
				return tagged("@obj", obj), nil
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("can not encode %T", v)
	}
}

// A Double must stay a Double across a round trip, so whole floats carry an
// explicit fraction instead of collapsing to the Long form.
func doubleJSON(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("can not encode non-finite Double %v", f)
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.RawMessage(s), nil
}

func objectJSON(obj docstore.ObjectV) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(obj))
	for k, elem := range obj {
		raw, err := toJSON(elem)
		if err != nil {
			return nil, err
		}
		m[k] = raw
	}
	return m, nil
}

func refJSON(ref docstore.RefV) (interface{}, error) {
	payload := map[string]interface{}{"id": ref.ID}
	if ref.Parent != nil {
		parent, err := refJSON(*ref.Parent)
		if err != nil {
			return nil, err
		}
		payload["parent"] = parent
	}
	return tagged("@ref", payload), nil
}

func tagged(tag string, payload interface{}) map[string]interface{} {
	return map[string]interface{}{tag: payload}
}
