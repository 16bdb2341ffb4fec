// Package common holds process-wide helpers shared by the gateway, agent and CLI binaries.
package common

// Version is set at build time with -ldflags "-X github.com/ruteri/nfc-attendance/common.Version=...".
var Version = "dev"
