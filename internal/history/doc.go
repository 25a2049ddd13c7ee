// Package history keeps a local log of submitted expenses.
package history
