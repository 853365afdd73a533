// Package conv converts between Go integers and fixed-width archive fields
// with bounds checks. Failures wrap ErrOverflow.
package conv
