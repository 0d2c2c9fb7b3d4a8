// Package approval defines the content approval gate between agent output
// and the client: approval requests, reviewer decisions and the events
// published when a request is created or decided. The gateway subpackage
// provides the implementation backed by a repository and the rule engine.
package approval
