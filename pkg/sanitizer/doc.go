// Package sanitizer cleans user-entered text before it is validated or sent
// on. Every function is idempotent and maps unusable input to "".
package sanitizer
