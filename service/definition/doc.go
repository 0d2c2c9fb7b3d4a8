// Package definition loads mission and rule set definitions from YAML
// documents stored on any afs supported location.
//
// A mission declares its tasks either as an ordered mapping keyed by task id
// or as a sequence of task objects:
//
//	id: launch
//	goal: Publish launch article
//	clientId: acme
//	priority: high
//	policy:
//	  gated: [draft]
//	tasks:
//	  research:
//	    agent: research
//	    type: outline
//	  draft:
//	    agent: writer
//	    type: draft
//	    dependsOn: research
//
// String values may reference environment variables with ${env.NAME}.
package definition
