package observer

import "strings"

// Name identifies a view observer. Names are lower kebab-case so that they
// survive HTML attribute case folding unchanged.
type Name string

// attrPrefix is the fixed leading segment of every observer attribute.
const attrPrefix = "data-"

// ValidName reports whether s is a letter followed by lowercase letters and
// digits, optionally split by single dashes ("gallery", "photo-gallery-2").
func ValidName(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	prevDash := false
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-':
			if prevDash {
				return false
			}
			prevDash = true
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevDash = false
		default:
			return false
		}
	}
	return !prevDash
}

// AttributeKeyFor returns the attribute that marks an element for name
// under prefix: data-{prefix}-{name}.
func AttributeKeyFor(prefix string, name Name) string {
	return attrPrefix + prefix + "-" + string(name)
}

// ParseObserverName is the inverse of AttributeKeyFor. It reports false
// when key is not under prefix or the remainder is not a valid name.
// Keys are matched case-insensitively.
func ParseObserverName(prefix, key string) (Name, bool) {
	key = strings.ToLower(key)
	lead := attrPrefix + prefix + "-"
	if !strings.HasPrefix(key, lead) {
		return "", false
	}
	rest := key[len(lead):]
	if !ValidName(rest) {
		return "", false
	}
	return Name(rest), true
}

// Convention resolves attribute keys against a registry under one prefix.
// The prefix is fixed for the lifetime of the Convention.
type Convention struct {
	prefix   string
	registry *Registry
}

// NewConvention validates prefix and returns a resolver for reg.
func NewConvention(prefix string, reg *Registry) (*Convention, error) {
	if !ValidName(prefix) {
		return nil, &InvalidNameError{Name: prefix, Prefix: true}
	}
	return &Convention{prefix: prefix, registry: reg}, nil
}

// Prefix returns the configured prefix.
func (c *Convention) Prefix() string {
	return c.prefix
}

// KeyFor returns the attribute key for name under this convention's prefix.
func (c *Convention) KeyFor(name Name) string {
	return AttributeKeyFor(c.prefix, name)
}

// Matches reports whether key sits under this convention's prefix,
// regardless of whether the name is registered.
func (c *Convention) Matches(key string) bool {
	_, ok := ParseObserverName(c.prefix, key)
	return ok
}

// Resolve maps an attribute key to a registered observer name. The second
// result is false when the key is outside the prefix or its name is not
// registered; in the latter case the parsed name is still returned so the
// caller can report it.
func (c *Convention) Resolve(key string) (Name, bool) {
	name, ok := ParseObserverName(c.prefix, key)
	if !ok {
		return "", false
	}
	if c.registry == nil || !c.registry.Has(name) {
		return name, false
	}
	return name, true
}
