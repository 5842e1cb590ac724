// Package utility provides small generic helpers shared by the dashkit
// packages: decoding JSON straight into a typed value, optional value
// handling, and common operations on slices.
package utility
