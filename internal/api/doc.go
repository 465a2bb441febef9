// Package api serves the dashboard HTTP surface: JSON listings of streams
// and counting sessions, plus rendered chart pages.
package api
