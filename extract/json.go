package extract

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// extractJSON parses content as JSON and dispatches every rule against it,
// per spec.md §4.3's JSON path. JsonPathSelector rules use the dotted-path
// descent described there; other selector kinds fall back to regex over
// the raw content, "where meaningful".
func extractJSON(content string, rules []Rule, logger *zerolog.Logger) map[string]Value {
	out := map[string]Value{}
	if !gjson.Valid(content) {
		logger.Warn().Msg("invalid JSON document, all rules yield empty/skip")
		for _, rule := range rules {
			if rule.Required {
				out[rule.Name] = emptyValueFor(rule)
			}
		}
		return out
	}

	for _, rule := range rules {
		v, matched := dispatchJSONRule(content, rule, logger)
		if matched {
			out[rule.Name] = v
		} else if rule.Required {
			out[rule.Name] = emptyValueFor(rule)
		}
	}
	return out
}

func dispatchJSONRule(content string, rule Rule, logger *zerolog.Logger) (Value, bool) {
	switch rule.Selector.Kind {
	case JsonPathSelector:
		return jsonPathExtract(content, rule, logger)
	case RegexSelector:
		return regexExtract(content, rule, logger)
	default:
		logger.Warn().Str("kind", string(rule.Selector.Kind)).Msg("selector kind not supported on JSON content")
		return Value{}, false
	}
}

// gjsonPath converts the spec's dotted-path syntax ("$.items.0.name") into
// gjson's own path syntax, which already treats bare numeric segments as
// array indices and needs no leading "$" or ".".
func gjsonPath(path string) string {
	p := strings.TrimPrefix(path, "$")
	p = strings.TrimPrefix(p, ".")
	return p
}

func jsonPathExtract(content string, rule Rule, logger *zerolog.Logger) (Value, bool) {
	path := gjsonPath(rule.Selector.Query)
	result := gjson.Get(content, path)
	if !result.Exists() {
		return Value{}, false
	}
	return jsonResultToValue(result, rule, logger)
}

func jsonResultToValue(result gjson.Result, rule Rule, logger *zerolog.Logger) (Value, bool) {
	switch {
	case result.IsArray():
		arr := result.Array()
		if rule.Multiple {
			vals := make([]Value, 0, len(arr))
			for _, item := range arr {
				if item.IsArray() || item.IsObject() {
					continue
				}
				vals = append(vals, Text(runProcessors(stringifyPrimitive(item), rule, logger)))
			}
			return List(vals), true
		}
		if len(arr) == 0 {
			return Value{}, false
		}
		return jsonResultToValue(arr[0], rule, logger)
	case result.IsObject():
		return Text(runProcessors(result.Raw, rule, logger)), true
	case result.Type == gjson.Null:
		return Null, true
	default:
		return Text(runProcessors(stringifyPrimitive(result), rule, logger)), true
	}
}

func stringifyPrimitive(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.String()
	case gjson.Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	case gjson.True, gjson.False:
		return strconv.FormatBool(r.Bool())
	default:
		return r.String()
	}
}
