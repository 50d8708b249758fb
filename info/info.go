// Package info holds build information about stat.
package info

// Version is overridden at link time for release builds.
var Version = "1.2.0"
