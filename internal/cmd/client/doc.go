// Package client implements the CLI client commands that probe a running
// grpcd server over its benchmark service.
package client
