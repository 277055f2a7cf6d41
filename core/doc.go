// Package core defines the shared vocabulary of the agentpool framework:
// message roles, memory entries, the pool-level shared State and the Router
// contract. Higher-level packages (agent, pool, history) depend on core but
// core depends on nothing outside the standard library, keeping the
// dependency graph acyclic.
package core
