package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Vector is an ordered list of named feature values. Order matters: scalers and
// classifiers were fitted against columns in schema order, so Values() must line
// up with the schema the vector was built from.
type Vector struct {
	names  []string
	values []float64
}

// Names returns the feature names in order.
func (v Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns the feature values in schema order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Value returns the named feature, false if absent.
func (v Vector) Value(name string) (float64, bool) {
	for i, n := range v.names {
		if n == name {
			return v.values[i], true
		}
	}
	return 0, false
}

// Len returns the number of features.
func (v Vector) Len() int {
	return len(v.names)
}

// Merge concatenates vectors into one, preserving order. Used to attach the
// full feature set to a prediction for audit.
func Merge(vs ...Vector) Vector {
	var out Vector
	for _, v := range vs {
		out.names = append(out.names, v.names...)
		out.values = append(out.values, v.values...)
	}
	return out
}

// MarshalJSON renders the vector as a JSON object with keys in schema order.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object token by token so key order survives the
// round trip (map-based decoding would lose it).
func (v *Vector) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature vector: expected object, got %v", tok)
	}
	var names []string
	var values []float64
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("feature vector: expected string key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return fmt.Errorf("feature vector: value for %q is not a number", name)
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("feature vector: value for %q: %w", name, err)
		}
		names = append(names, name)
		values = append(values, f)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	v.names = names
	v.values = values
	return nil
}
