package interp

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// newBuiltinTable builds the fixed set of builtin rites. Each BuiltinFunc
// receives the calling interpreter at call time, so I/O builtins reach its
// Stdin/Stdout/Stderr without the table itself holding a reference.
func newBuiltinTable() map[string]*BuiltinFunc {
	table := map[string]func(*Interpreter, []interface{}, int, int) (interface{}, error){
		"UTTER":       builtinUtter,
		"HEED":        builtinHeed,
		"SCRY":        builtinScry,
		"INSCRIBE":    builtinInscribe,
		"TYPEOF":      builtinTypeof,
		"LENGTH":      builtinLength,
		"PARSE_INT":   builtinParseInt,
		"PARSE_FLOAT": builtinParseFloat,
		"STRING":      builtinString,
		"INT":         builtinInt,
		"FLOAT":       builtinFloat,
		"CHAR":        builtinChar,
		"CODE":        builtinCode,
		"BIN":         builtinBin,
		"HEX":         builtinHex,
		"APPEND":      builtinAppend,
		"PREPEND":     builtinPrepend,
		"SLICE":       builtinSlice,
		"FIRST":       builtinFirst,
		"LAST":        builtinLast,
		"CONCAT":      builtinConcat,
		"KEYS":        builtinKeys,
		"VALUES":      builtinValues,
		"HAS":         builtinHas,
		"SET":         builtinSet,
		"DELETE":      builtinDelete,
		"SPLIT":       builtinSplit,
		"JOIN":        builtinJoin,
		"SUBSTRING":   builtinSubstring,
		"UPPERCASE":   builtinUppercase,
		"LOWERCASE":   builtinLowercase,
		"TRIM":        builtinTrim,
		"REPLACE":     builtinReplace,
		"RANDOM":      builtinRandom,
		"RANDOM_INT":  builtinRandomInt,
		"TIME":        builtinTime,
	}
	out := make(map[string]*BuiltinFunc, len(table))
	for name, fn := range table {
		out[name] = &BuiltinFunc{Name: name, Fn: fn}
	}
	return out
}

// ============ I/O ============

func builtinUtter(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = Stringify(a)
	}
	fmt.Fprintln(i.Stdout, strings.Join(parts, " "))
	return nil, nil
}

func builtinHeed(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	text, err := i.stdinReader().ReadString('\n')
	if err != nil && text == "" {
		return "", nil
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func builtinScry(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "SCRY expects 1 argument, got %d", len(args))
	}
	if args[0] == nil {
		data, err := io.ReadAll(i.Stdin)
		if err != nil {
			return nil, runtimeErrorf(line, col, "Cannot read stdin: %s", err)
		}
		return string(data), nil
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "SCRY expects string path or VOID, got %s", TypeName(args[0]))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, runtimeErrorf(line, col, "File not found: %s", path)
		}
		return nil, runtimeErrorf(line, col, "Cannot read file: %s", err)
	}
	return string(data), nil
}

func builtinInscribe(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "INSCRIBE expects 2 arguments, got %d", len(args))
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "INSCRIBE expects string path, got %s", TypeName(args[0]))
	}
	content, ok := args[1].(string)
	if !ok {
		content = Stringify(args[1])
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, runtimeErrorf(line, col, "Cannot write file: %s", err)
	}
	return nil, nil
}

// ============ Type operations ============

func builtinTypeof(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "TYPEOF expects 1 argument, got %d", len(args))
	}
	return TypeName(args[0]), nil
}

func builtinLength(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "LENGTH expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case string:
		return int64(len([]rune(v))), nil
	case []interface{}:
		return int64(len(v)), nil
	}
	return nil, runtimeErrorf(line, col, "LENGTH expects string or array, got %s", TypeName(args[0]))
}

func builtinParseInt(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "PARSE_INT expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "PARSE_INT expects string, got %s", TypeName(args[0]))
	}
	if strings.Contains(s, ".") {
		return nil, runtimeErrorf(line, col, "Cannot parse '%s' as integer", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, runtimeErrorf(line, col, "Cannot parse '%s' as integer", s)
	}
	return n, nil
}

func builtinParseFloat(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "PARSE_FLOAT expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "PARSE_FLOAT expects string, got %s", TypeName(args[0]))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, runtimeErrorf(line, col, "Cannot parse '%s' as float", s)
	}
	return f, nil
}

func builtinString(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "STRING expects 1 argument, got %d", len(args))
	}
	return Stringify(args[0]), nil
}

func builtinInt(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "INT expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	}
	return nil, runtimeErrorf(line, col, "INT expects number, got %s", TypeName(args[0]))
}

func builtinFloat(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "FLOAT expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return nil, runtimeErrorf(line, col, "FLOAT expects number, got %s", TypeName(args[0]))
}

func builtinChar(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "CHAR expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, runtimeErrorf(line, col, "CHAR expects integer, got %s", TypeName(args[0]))
	}
	if n < 0 || n > 0x10FFFF {
		return nil, runtimeErrorf(line, col, "Invalid code point: %d", n)
	}
	return string(rune(n)), nil
}

func builtinCode(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "CODE expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "CODE expects string, got %s", TypeName(args[0]))
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return nil, runtimeErrorf(line, col, "CODE called on empty string")
	}
	return int64(runes[0]), nil
}

func builtinBin(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "BIN expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, runtimeErrorf(line, col, "BIN expects integer, got %s", TypeName(args[0]))
	}
	return strconv.FormatInt(n, 2), nil
}

func builtinHex(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "HEX expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, runtimeErrorf(line, col, "HEX expects integer, got %s", TypeName(args[0]))
	}
	return strings.ToUpper(strconv.FormatInt(n, 16)), nil
}

// ============ Array operations ============

func builtinAppend(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "APPEND expects 2 arguments, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "APPEND expects array, got %s", TypeName(args[0]))
	}
	out := make([]interface{}, len(arr)+1)
	copy(out, arr)
	out[len(arr)] = args[1]
	return out, nil
}

func builtinPrepend(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "PREPEND expects 2 arguments, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "PREPEND expects array, got %s", TypeName(args[0]))
	}
	out := make([]interface{}, len(arr)+1)
	out[0] = args[1]
	copy(out[1:], arr)
	return out, nil
}

func builtinSlice(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 3 {
		return nil, runtimeErrorf(line, col, "SLICE expects 3 arguments, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "SLICE expects array, got %s", TypeName(args[0]))
	}
	start, sok := args[1].(int64)
	end, eok := args[2].(int64)
	if !sok || !eok {
		return nil, runtimeErrorf(line, col, "SLICE expects integer indices")
	}
	s, e := pySliceBounds(len(arr), int(start), int(end))
	out := make([]interface{}, e-s)
	copy(out, arr[s:e])
	return out, nil
}

func builtinFirst(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "FIRST expects 1 argument, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "FIRST expects array, got %s", TypeName(args[0]))
	}
	if len(arr) == 0 {
		return nil, runtimeErrorf(line, col, "FIRST called on empty array")
	}
	return arr[0], nil
}

func builtinLast(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "LAST expects 1 argument, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "LAST expects array, got %s", TypeName(args[0]))
	}
	if len(arr) == 0 {
		return nil, runtimeErrorf(line, col, "LAST called on empty array")
	}
	return arr[len(arr)-1], nil
}

func builtinConcat(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "CONCAT expects 2 arguments, got %d", len(args))
	}
	a, aok := args[0].([]interface{})
	b, bok := args[1].([]interface{})
	if !aok || !bok {
		return nil, runtimeErrorf(line, col, "CONCAT expects two arrays")
	}
	out := make([]interface{}, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out, nil
}

// ============ Map operations ============

func builtinKeys(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "KEYS expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, runtimeErrorf(line, col, "KEYS expects map, got %s", TypeName(args[0]))
	}
	keys := m.Keys()
	out := make([]interface{}, len(keys))
	for idx, k := range keys {
		out[idx] = k
	}
	return out, nil
}

func builtinValues(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "VALUES expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, runtimeErrorf(line, col, "VALUES expects map, got %s", TypeName(args[0]))
	}
	return m.Values(), nil
}

func builtinHas(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "HAS expects 2 arguments, got %d", len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, runtimeErrorf(line, col, "HAS expects map, got %s", TypeName(args[0]))
	}
	return m.Has(Stringify(args[1])), nil
}

func builtinSet(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 3 {
		return nil, runtimeErrorf(line, col, "SET expects 3 arguments, got %d", len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, runtimeErrorf(line, col, "SET expects map, got %s", TypeName(args[0]))
	}
	result := m.Clone()
	result.Set(Stringify(args[1]), args[2])
	return result, nil
}

func builtinDelete(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "DELETE expects 2 arguments, got %d", len(args))
	}
	m, ok := args[0].(*Map)
	if !ok {
		return nil, runtimeErrorf(line, col, "DELETE expects map, got %s", TypeName(args[0]))
	}
	result := m.Clone()
	result.Delete(Stringify(args[1]))
	return result, nil
}

// ============ String operations ============

func builtinSplit(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "SPLIT expects 2 arguments, got %d", len(args))
	}
	s, sok := args[0].(string)
	delim, dok := args[1].(string)
	if !sok || !dok {
		return nil, runtimeErrorf(line, col, "SPLIT expects two strings")
	}
	var parts []string
	if delim == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, delim)
	}
	out := make([]interface{}, len(parts))
	for idx, p := range parts {
		out[idx] = p
	}
	return out, nil
}

func builtinJoin(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "JOIN expects 2 arguments, got %d", len(args))
	}
	arr, ok := args[0].([]interface{})
	if !ok {
		return nil, runtimeErrorf(line, col, "JOIN expects array, got %s", TypeName(args[0]))
	}
	delim, ok := args[1].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "JOIN expects string delimiter, got %s", TypeName(args[1]))
	}
	parts := make([]string, len(arr))
	for idx, v := range arr {
		parts[idx] = Stringify(v)
	}
	return strings.Join(parts, delim), nil
}

func builtinSubstring(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 3 {
		return nil, runtimeErrorf(line, col, "SUBSTRING expects 3 arguments, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "SUBSTRING expects string, got %s", TypeName(args[0]))
	}
	start, sok := args[1].(int64)
	end, eok := args[2].(int64)
	if !sok || !eok {
		return nil, runtimeErrorf(line, col, "SUBSTRING expects integer indices")
	}
	runes := []rune(s)
	st, en := pySliceBounds(len(runes), int(start), int(end))
	return string(runes[st:en]), nil
}

func builtinUppercase(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "UPPERCASE expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "UPPERCASE expects string, got %s", TypeName(args[0]))
	}
	return cases.Upper(language.Und).String(s), nil
}

func builtinLowercase(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "LOWERCASE expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "LOWERCASE expects string, got %s", TypeName(args[0]))
	}
	return cases.Lower(language.Und).String(s), nil
}

func builtinTrim(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 1 {
		return nil, runtimeErrorf(line, col, "TRIM expects 1 argument, got %d", len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, runtimeErrorf(line, col, "TRIM expects string, got %s", TypeName(args[0]))
	}
	return strings.TrimSpace(s), nil
}

func builtinReplace(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 3 {
		return nil, runtimeErrorf(line, col, "REPLACE expects 3 arguments, got %d", len(args))
	}
	s, sok := args[0].(string)
	old, ook := args[1].(string)
	neu, nok := args[2].(string)
	if !sok || !ook || !nok {
		return nil, runtimeErrorf(line, col, "REPLACE expects three strings")
	}
	return strings.ReplaceAll(s, old, neu), nil
}

// ============ Utility ============

func builtinRandom(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	return rand.Float64(), nil
}

func builtinRandomInt(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != 2 {
		return nil, runtimeErrorf(line, col, "RANDOM_INT expects 2 arguments, got %d", len(args))
	}
	min, minOk := args[0].(int64)
	max, maxOk := args[1].(int64)
	if !minOk || !maxOk {
		return nil, runtimeErrorf(line, col, "RANDOM_INT expects two integers")
	}
	if max < min {
		return nil, runtimeErrorf(line, col, "RANDOM_INT expects min <= max")
	}
	return min + rand.Int63n(max-min+1), nil
}

func builtinTime(i *Interpreter, args []interface{}, line, col int) (interface{}, error) {
	return time.Now().UnixMilli(), nil
}

// pySliceBounds clamps start/end to Python's slicing rules: negative
// indices count from the end, and both ends are clamped into [0, length].
func pySliceBounds(length, start, end int) (int, int) {
	if start < 0 {
		start += length
		if start < 0 {
			start = 0
		}
	}
	if start > length {
		start = length
	}
	if end < 0 {
		end += length
		if end < 0 {
			end = 0
		}
	}
	if end > length {
		end = length
	}
	if end < start {
		end = start
	}
	return start, end
}
