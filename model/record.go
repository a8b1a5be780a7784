package model

import (
	"encoding/json"
	"fmt"
	"math"

	e "github.com/sdstartups/startupmap-backend/errors"
)

// Rows come from two drivers: Neo4j hands back int64/float64/[]interface{},
// ArangoDB decodes JSON into float64/[]interface{}. Both are accepted.

func requiredString(rec map[string]interface{}, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s is required", e.ErrInvalidRecord, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", e.ErrInvalidRecord, key, v)
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s is empty", e.ErrInvalidRecord, key)
	}
	return s, nil
}

func optionalString(rec map[string]interface{}, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", e.ErrInvalidRecord, key, v)
	}
	return s, nil
}

func optionalInt(rec map[string]interface{}, key string) (int, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", e.ErrInvalidRecord, key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", e.ErrInvalidRecord, key, err)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %T", e.ErrInvalidRecord, key, v)
}

func optionalFloat(rec map[string]interface{}, key string) (float64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", e.ErrInvalidRecord, key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %T", e.ErrInvalidRecord, key, v)
}

func optionalStrings(rec map[string]interface{}, key string) ([]string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must hold strings, got %T", e.ErrInvalidRecord, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s must be a list, got %T", e.ErrInvalidRecord, key, v)
}
