// Package health provides liveness and readiness probes for "thinout serve".
package health
