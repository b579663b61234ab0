// Package domain holds the model types, repository interfaces, and sentinel
// errors shared across the application. It has no dependencies on transport
// or storage packages.
package domain
