package extract

import (
	"regexp"

	"github.com/rs/zerolog"
)

// findRegexMatches runs sel's pattern over content, returning one string
// per match: the selected group if sel.Group is valid, else the whole
// match. If multiple is false only the first match is returned.
func findRegexMatches(content string, sel Selector, multiple bool, logger *zerolog.Logger) []string {
	re, err := regexp.Compile(sel.Query)
	if err != nil {
		logger.Warn().Err(err).Str("pattern", sel.Query).Msg("invalid regex selector")
		return nil
	}
	if !multiple {
		m := re.FindStringSubmatch(content)
		if m == nil {
			return nil
		}
		return []string{pickGroup(m, sel.Group)}
	}
	all := re.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(all))
	for _, m := range all {
		out = append(out, pickGroup(m, sel.Group))
	}
	return out
}

func pickGroup(match []string, group int) string {
	if group > 0 && group < len(match) {
		return match[group]
	}
	return match[0]
}
