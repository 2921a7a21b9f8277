package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://defo.vango.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Registry Errors (D001-D019)
	// ============================================

	"D001": {
		Category: CategoryRegistry,
		Message:  "Duplicate observer name",
		Detail:   "Two factories were registered under the same observer name.",
		DocURL:   docBase + "D001",
	},
	"D002": {
		Category: CategoryBinding,
		Message:  "Unknown observer",
		Detail:   "An attribute matches the configured prefix but no observer is registered under its name. The attribute is ignored.",
		DocURL:   docBase + "D002",
	},
	"D003": {
		Category: CategoryBinding,
		Message:  "Observer factory failed",
		Detail:   "The factory returned an error or panicked while constructing the behavior. The element is left unbound and is retried on the next scan.",
		DocURL:   docBase + "D003",
	},
	"D004": {
		Category: CategoryBinding,
		Message:  "Observer teardown failed",
		Detail:   "Destroy returned an error or panicked. The binding was removed anyway.",
		DocURL:   docBase + "D004",
	},
	"D005": {
		Category: CategoryRegistry,
		Message:  "Invalid observer name",
		Detail:   "Observer names must be lower kebab-case: a letter followed by letters, digits and single dashes.",
		DocURL:   docBase + "D005",
	},
	"D006": {
		Category: CategoryRegistry,
		Message:  "Invalid prefix",
		Detail:   "The prefix must be non-empty lower kebab-case.",
		DocURL:   docBase + "D006",
	},
	"D007": {
		Category: CategoryRegistry,
		Message:  "Nil observer factory",
		Detail:   "A view observer was registered without a factory function.",
		DocURL:   docBase + "D007",
	},
	"D008": {
		Category: CategoryBinding,
		Message:  "Dispatcher disposed",
		Detail:   "The dispatcher has been disposed and cannot be started again.",
		DocURL:   docBase + "D008",
	},

	// ============================================
	// Config Errors (D100-D119)
	// ============================================

	"D100": {
		Category: CategoryConfig,
		Message:  "Invalid defo.json",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "D100",
	},
	"D101": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No defo.json was found in the project directory or any parent.",
		DocURL:   docBase + "D101",
	},
	"D102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
		DocURL:   docBase + "D102",
	},
	"D103": {
		Category: CategoryConfig,
		Message:  "Unknown view in configuration",
		Detail:   "The views list names an observer that is not built in.",
		DocURL:   docBase + "D103",
	},

	// ============================================
	// Source Errors (D120-D139)
	// ============================================

	"D120": {
		Category: CategorySource,
		Message:  "Unsupported markup source",
		Detail:   "Markup can be loaded from a file path, an http(s) URL or an s3://bucket/key location.",
		DocURL:   docBase + "D120",
	},
	"D121": {
		Category: CategorySource,
		Message:  "Failed to load markup",
		DocURL:   docBase + "D121",
	},
	"D122": {
		Category: CategorySource,
		Message:  "Failed to parse markup",
		DocURL:   docBase + "D122",
	},

	// ============================================
	// Feed Errors (D140-D159)
	// ============================================

	"D140": {
		Category: CategoryFeed,
		Message:  "Invalid feed message",
		Detail:   "A mirror message could not be decoded or references an unknown node.",
		DocURL:   docBase + "D140",
	},
	"D141": {
		Category: CategoryFeed,
		Message:  "Feed server failed",
		Detail:   "The feed server could not listen on the configured address.",
		DocURL:   docBase + "D141",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
