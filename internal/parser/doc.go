// Package parser turns the argument text of a command into a validated
// payload. Parsers compose the extractors of package extract and never
// touch storage; callers resolve the payload against the repositories.
package parser
