package internal

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/lychee-technology/activestore"
)

const (
	tokenPrefix    = "prefix"
	tokenModelName = "modelname"
)

var routeTokenPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// DefaultRoutes returns the conventional route templates of a model. Member
// routes of collection models end in "/:<primaryKey>".
func DefaultRoutes(primaryKey string, singleton bool) map[activestore.ActionName]string {
	collection := ":prefix/:modelname"
	member := collection + "/:" + primaryKey
	if singleton {
		member = collection
	}
	return map[activestore.ActionName]string{
		activestore.ActionIndex:   collection,
		activestore.ActionCreate:  collection,
		activestore.ActionShow:    member,
		activestore.ActionUpdate:  member,
		activestore.ActionDestroy: member,
	}
}

// routeResolver interpolates templates against the configured API prefix.
type routeResolver struct {
	prefix string
}

// NewRouteResolver creates a resolver substituting :prefix with prefix.
func NewRouteResolver(prefix string) activestore.RouteResolver {
	return &routeResolver{prefix: strings.TrimSuffix(prefix, "/")}
}

// Resolve replaces :prefix, :modelname and every :<attribute> token with a
// provided attribute value. Tokens without a value stay literal. consumed
// lists the attributes substituted into the path.
func (r *routeResolver) Resolve(template string, meta *activestore.ModelMetadata, attributes map[string]any) (string, []string) {
	var consumed []string
	path := routeTokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1:]
		switch name {
		case tokenPrefix:
			return r.prefix
		case tokenModelName:
			return meta.RouteName
		}
		v, ok := attributes[name]
		if !ok || v == nil {
			return tok
		}
		consumed = append(consumed, name)
		return url.PathEscape(formatValue(v))
	})
	return path, consumed
}
