// Package lang holds the static table of languages the speech model can
// transcribe into, keyed by model language code.
package lang

import "sort"

var nameToCode = make(map[string]string, len(Names))

func init() {
	for code, name := range Names {
		nameToCode[name] = code
	}
}

// NameForCode returns the display name for a model language code.
func NameForCode(code string) (string, bool) {
	name, ok := Names[code]
	return name, ok
}

// CodeForName returns the model language code for a display name, e.g.
// "Hindi" -> "hin". The HTTP API accepts display names.
func CodeForName(name string) (string, bool) {
	code, ok := nameToCode[name]
	return code, ok
}

// IsSupportedCode reports whether code is in the supported-language table.
func IsSupportedCode(code string) bool {
	_, ok := Names[code]
	return ok
}

// Codes returns all supported language codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(Names))
	for code := range Names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Count returns the number of supported languages.
func Count() int {
	return len(Names)
}
