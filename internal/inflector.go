package internal

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"github.com/lychee-technology/activestore"
)

// defaultInflector derives snake_case route names, pluralized for collections.
type defaultInflector struct{}

// NewInflector returns the default route-name inflector.
func NewInflector() activestore.Inflector {
	return defaultInflector{}
}

func (defaultInflector) RouteName(model string, singleton bool) string {
	name := underscore(model)
	if singleton {
		return name
	}
	return inflection.Plural(name)
}

// underscore converts "BlogPost" and "blogPost" to "blog_post".
func underscore(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '-' || r == ' ' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// humanize turns a field or model name into a label: "firstName" and
// "first_name" both become "First name".
func humanize(s string) string {
	words := strings.Fields(strings.ReplaceAll(underscore(s), "_", " "))
	if len(words) == 0 {
		return ""
	}
	if words[len(words)-1] == "id" && len(words) > 1 {
		words = words[:len(words)-1]
	}
	out := strings.Join(words, " ")
	r := []rune(out)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
