package model

import "github.com/bytedance/sonic"

// decodeDocument parses a response body into a generic JSON tree.
func decodeDocument(body []byte) (any, error) {
	var doc any
	if err := sonic.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// lookupText walks doc along path, where each step is an object key (string)
// or an array index (int). Any missing or mistyped step yields "".
func lookupText(doc any, path ...any) string {
	node := doc
	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := node.(map[string]any)
			if !ok {
				return ""
			}
			next, ok := obj[key]
			if !ok || next == nil {
				return ""
			}
			node = next
		case int:
			arr, ok := node.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return ""
			}
			node = arr[key]
		default:
			return ""
		}
	}

	text, ok := node.(string)
	if !ok {
		return ""
	}
	return text
}
