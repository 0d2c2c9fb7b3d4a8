// Package agent defines how the engine invokes the external workers that
// produce task output. Agents are registered by agent type in a Registry;
// Typed adapts strongly typed functions to the Invoker contract.
package agent
