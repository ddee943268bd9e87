// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	// KindString is a flat value. Keyspace entries fall back to it when they
	// can not be split into key=value pairs.
	KindString
	// KindStructured is a comma separated list of key=value pairs.
	KindStructured
)

// Value is a single INFO field value.
type Value struct {
	kind   ValueKind
	raw    string
	num    float64
	fields map[string]Value
}

func IntValue(v int64) Value {
	return Value{kind: KindInt, raw: strconv.FormatInt(v, 10), num: float64(v)}
}

func FloatValue(v float64) Value {
	return Value{kind: KindFloat, raw: strconv.FormatFloat(v, 'f', -1, 64), num: v}
}

func StringValue(v string) Value {
	return Value{kind: KindString, raw: v}
}

func StructuredValue(fields map[string]Value) Value {
	return Value{kind: KindStructured, fields: fields}
}

func (v Value) Kind() ValueKind { return v.kind }

// String returns the value as it appeared in the INFO reply.
func (v Value) String() string { return v.raw }

// Number reports the numeric value of an Int or Float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt, KindFloat:
		return v.num, true
	default:
		return 0, false
	}
}

// Fields returns the sub-values of a Structured value.
func (v Value) Fields() (map[string]Value, bool) {
	return v.fields, v.kind == KindStructured
}

// Snapshot is the field mapping returned by one INFO query.
type Snapshot map[string]Value

func (s Snapshot) Number(field string) (float64, bool) {
	v, ok := s[field]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// parseInfo parses the INFO reply.
// https://redis.io/commands/info
// Lines are either section names (starting with '#') or 'field:value' properties.
func parseInfo(info string) Snapshot {
	snap := make(Snapshot)

	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		field, value, ok := parseProperty(line)
		if !ok {
			continue
		}
		snap[field] = parseValue(value)
	}

	return snap
}

func parseProperty(prop string) (field, value string, ok bool) {
	i := strings.IndexByte(prop, ':')
	if i == -1 {
		return "", "", false
	}
	field, value = prop[:i], prop[i+1:]
	return field, value, field != ""
}

func parseValue(s string) Value {
	if !strings.Contains(s, ",") || !strings.Contains(s, "=") {
		return parseScalar(s)
	}

	fields := make(map[string]Value)
	for _, item := range strings.Split(s, ",") {
		k, v, ok := splitPair(item)
		if !ok {
			return StringValue(s)
		}
		fields[k] = parseScalar(v)
	}
	return Value{kind: KindStructured, raw: s, fields: fields}
}

func parseScalar(s string) Value {
	if !strings.Contains(s, ".") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{kind: KindInt, raw: s, num: float64(v)}
		}
		return StringValue(s)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{kind: KindFloat, raw: s, num: v}
	}
	return StringValue(s)
}

// splitPair splits on the last '='.
func splitPair(item string) (key, value string, ok bool) {
	i := strings.LastIndexByte(item, '=')
	if i == -1 {
		return "", "", false
	}
	return item[:i], item[i+1:], true
}

var errDictKeyNotFound = errors.New("key not found")

// parseDictString extracts key from a flat "k1=v1,k2=v2" string, as sent by
// old servers/clients for the keyspace entries.
func parseDictString(s, key string) (Value, error) {
	for _, item := range strings.Split(s, ",") {
		k, v, ok := splitPair(item)
		if !ok {
			return Value{}, fmt.Errorf("%w: malformed dictionary string '%s'", ErrParse, s)
		}
		if k == key {
			return parseScalar(v), nil
		}
	}
	return Value{}, fmt.Errorf("%w: '%s' in '%s': %w", ErrParse, key, s, errDictKeyNotFound)
}
