package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// PayloadVersion is the schema version written by Encode.
const PayloadVersion = 1

// Tag keys used to carry typed values through JSON. Maps using them as keys
// cannot be queued.
const (
	refTag  = "$ref"
	timeTag = "$time"
)

type payload struct {
	Version int         `json:"v"`
	Entries []wireEntry `json:"entries"`
}

type wireEntry struct {
	Recipients []int64        `json:"recipients"`
	Label      string         `json:"label"`
	Context    map[string]any `json:"context,omitempty"`
	OnSite     bool           `json:"on_site"`
	Sender     *int64         `json:"sender,omitempty"`
}

// Encode serializes entries into the versioned batch schema:
//
//	{"v":1,"entries":[{"recipients":[1,2],"label":"x","context":{...},"on_site":true,"sender":7}]}
//
// Object references in the context are written as {"$ref":{"type":..,"id":..}}
// and times as {"$time":"<RFC3339Nano>"}.
func Encode(entries []Entry) ([]byte, error) {
	p := payload{Version: PayloadVersion, Entries: make([]wireEntry, 0, len(entries))}
	for i, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyLabel)
		}
		ctx, err := encodeMap(e.Context)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Label, err)
		}
		recipients := e.Recipients
		if recipients == nil {
			recipients = []int64{}
		}
		p.Entries = append(p.Entries, wireEntry{
			Recipients: recipients,
			Label:      e.Label,
			Context:    ctx,
			OnSite:     e.OnSite,
			Sender:     e.Sender,
		})
	}
	return json.Marshal(p)
}

// Decode parses a payload produced by Encode. Integral numbers in the context
// come back as int64, the rest as float64.
func Decode(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}
	if p.Version != PayloadVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}

	entries := make([]Entry, 0, len(p.Entries))
	for i, w := range p.Entries {
		if w.Label == "" {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedPayload, i, ErrEmptyLabel)
		}
		ctx, err := decodeMap(w.Context)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedPayload, i, err)
		}
		recipients := w.Recipients
		if recipients == nil {
			recipients = []int64{}
		}
		entries = append(entries, Entry{
			Recipients: recipients,
			Label:      w.Label,
			Context:    ctx,
			OnSite:     w.OnSite,
			Sender:     w.Sender,
		})
	}
	return entries, nil
}

func encodeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == refTag || k == timeTag {
			return nil, fmt.Errorf("%w: reserved key %q", ErrUnsupportedValue, k)
		}
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case ObjectRef:
		return map[string]any{refTag: x}, nil
	case *ObjectRef:
		if x == nil {
			return nil, nil
		}
		return map[string]any{refTag: *x}, nil
	case time.Time:
		return map[string]any{timeTag: x.Format(time.RFC3339Nano)}, nil
	case float32:
		return encodeFloat(float64(x))
	case float64:
		return encodeFloat(x)
	case map[string]any:
		return encodeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			ev, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return encodeFloat(rv.Float())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return encodeMap(m)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			ev, err := encodeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// encodeFloat keeps a fraction or exponent in the literal so the value does
// not decode as an integer.
func encodeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s), nil
}

func decodeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}

func decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case map[string]any:
		if raw, ok := x[refTag]; ok && len(x) == 1 {
			return decodeRef(raw)
		}
		if raw, ok := x[timeTag]; ok && len(x) == 1 {
			s, _ := raw.(string)
			return time.Parse(time.RFC3339Nano, s)
		}
		return decodeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			dv, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil
	}
	return v, nil
}

func decodeRef(raw any) (ObjectRef, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return ObjectRef{}, fmt.Errorf("object reference must be an object, got %T", raw)
	}
	typ, _ := m["type"].(string)
	id, _ := m["id"].(string)
	if typ == "" {
		return ObjectRef{}, errors.New("object reference without type")
	}
	return ObjectRef{Type: typ, ID: id}, nil
}
