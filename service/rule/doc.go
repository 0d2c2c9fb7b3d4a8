// Package rule implements the auto-approval rule engine. Evaluate walks the
// rules scoped to a request in a fixed order and returns the action of the
// first rule whose conditions all hold. Evaluation is pure: it reads the
// request and rules and never mutates either.
package rule
