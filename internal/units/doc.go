// Package units manages the organizational unit hierarchy and answers
// which units a caller may see analytics for.
package units
