// Package mocks provides function-field test doubles shared by several
// packages' tests.
package mocks
