// Package predicate parses and evaluates textual rule conditions such as
//
//	contains(body, "spam", "scam") && !below(score, 0.5)
//
// A predicate is a boolean expression of function calls combined with &&,
// || and !, with parentheses for grouping. Arguments are field paths,
// quoted strings or numbers.
package predicate
