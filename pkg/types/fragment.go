// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared value types used across dispatchgen
// packages.
package types

import "fmt"

// DispatchMethod is the fixed, unexported name of the dispatch
// interface's single method. Every captured command is renamed to it
// during generation, so the annotated interface must declare its
// method under this exact name for the generated markers to satisfy
// it.
const DispatchMethod = "execute"

// Fragment is a persisted unit of captured command source text plus its
// metadata. Name is the human-facing display name; the marker type
// identifier is derived from it by upper-camel-casing and the constant
// identifier by upper-snake-casing. Code is the wire opcode. Raw is the
// verbatim declaration text with the placeholder receiver attached.
type Fragment struct {
	Name string `json:"name"`
	Code uint8  `json:"code"`
	Raw  string `json:"raw"`
}

// FragmentFromDoc converts a decoded store document into a Fragment,
// validating that name is a non-empty string and code an integer in
// [0, 255].
func FragmentFromDoc(doc map[string]any) (Fragment, error) {
	name, ok := doc["name"].(string)
	if !ok || name == "" {
		return Fragment{}, fmt.Errorf("name field missing or not a non-empty string")
	}

	code, ok := doc["code"].(float64)
	if !ok {
		return Fragment{}, fmt.Errorf("code field missing or not a number")
	}
	if code != float64(int(code)) || code < 0 || code > 255 {
		return Fragment{}, fmt.Errorf("code %v is not an integer in [0, 255]", code)
	}

	raw, ok := doc["raw"].(string)
	if !ok {
		return Fragment{}, fmt.Errorf("raw field missing or not a string")
	}

	return Fragment{Name: name, Code: uint8(code), Raw: raw}, nil
}
