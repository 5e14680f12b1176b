package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// maxBodyBytes bounds a request body; bitmaps travel as base64.
const maxBodyBytes = 8 << 20

// ArgumentError reports a missing or mistyped request argument.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Name == "" {
		return e.Reason
	}
	return fmt.Sprintf("argument %q %s", e.Name, e.Reason)
}

// Args are the named arguments of one call. JavaScript callers send every
// number as a double, so integer arguments accept any JSON number and are
// truncated toward zero.
type Args map[string]any

func decodeArgs(r io.Reader) (Args, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, &ArgumentError{Reason: fmt.Sprintf("failed to read body: %v", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &ArgumentError{Reason: "request body too large"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Args{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var args Args
	if err := dec.Decode(&args); err != nil {
		return nil, &ArgumentError{Reason: fmt.Sprintf("body must be a JSON object: %v", err)}
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

func (a Args) value(name string) (any, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, &ArgumentError{Name: name, Reason: "is required"}
	}
	return v, nil
}

func (a Args) number(name string) (float64, error) {
	v, err := a.value(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, &ArgumentError{Name: name, Reason: "must be a number"}
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ArgumentError{Name: name, Reason: "must be a finite number"}
	}
	return f, nil
}

// Int returns an integer argument.
func (a Args) Int(name string) (int, error) {
	f, err := a.number(name)
	if err != nil {
		return 0, err
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, &ArgumentError{Name: name, Reason: "is out of range"}
	}
	return int(f), nil
}

// Float returns a float argument.
func (a Args) Float(name string) (float32, error) {
	f, err := a.number(name)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// Text returns a string argument.
func (a Args) Text(name string) (string, error) {
	v, err := a.value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Name: name, Reason: "must be a string"}
	}
	return s, nil
}

// Bool returns a boolean argument; absent means false.
func (a Args) Bool(name string) (bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ArgumentError{Name: name, Reason: "must be a boolean"}
	}
	return b, nil
}

// Strings returns an array of strings.
func (a Args) Strings(name string) ([]string, error) {
	items, err := a.array(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ArgumentError{Name: name, Reason: fmt.Sprintf("item %d must be a string", i)}
		}
		out[i] = s
	}
	return out, nil
}

// Ints returns an array of integers.
func (a Args) Ints(name string) ([]int, error) {
	items, err := a.array(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, ok := item.(json.Number)
		if !ok {
			return nil, &ArgumentError{Name: name, Reason: fmt.Sprintf("item %d must be a number", i)}
		}
		f, err := n.Float64()
		if err != nil || f > math.MaxInt32 || f < math.MinInt32 {
			return nil, &ArgumentError{Name: name, Reason: fmt.Sprintf("item %d is out of range", i)}
		}
		out[i] = int(f)
	}
	return out, nil
}

// Bytes returns a base64 encoded byte argument.
func (a Args) Bytes(name string) ([]byte, error) {
	s, err := a.Text(name)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &ArgumentError{Name: name, Reason: "must be standard base64"}
	}
	return data, nil
}

func (a Args) array(name string) ([]any, error) {
	v, err := a.value(name)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &ArgumentError{Name: name, Reason: "must be an array"}
	}
	return items, nil
}
