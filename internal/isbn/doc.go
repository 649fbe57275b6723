// Package isbn provides ISBN normalization, validation, and format
// conversion for matching reading-list entries against store listings.
package isbn
