// Package exporter renders tabular data as Excel workbooks.
package exporter
