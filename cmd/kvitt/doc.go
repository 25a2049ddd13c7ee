// Command kvitt ingests receipt files, reconciles their amounts into the
// settlement currency, and submits them as a single expense.
package main
