// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textclean normalizes whitespace in extracted text. The same
// transform is applied to metadata text fields and document content.
package textclean

import "strings"

// escapedWhitespace maps literal escape sequences that leak into API text
// to a plain space.
var escapedWhitespace = strings.NewReplacer(
	`\r\n`, " ",
	`\n`, " ",
	`\t`, " ",
	`\r`, " ",
)

// reservedTextKey is the converter's text key; it must never survive into
// cleaned output.
const reservedTextKey = "#text"

// Clean removes the reserved text key literal, turns escaped newline and
// tab sequences into spaces, collapses whitespace runs to one space and
// trims the result.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, reservedTextKey, "")
	s = escapedWhitespace.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
