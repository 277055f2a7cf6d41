// Package agentpool is a library for composing LLM-backed agents — a persona,
// a model and a tool set driven by a ReAct-style execution loop — into
// single-agent and multi-agent workflows with pluggable conversation history
// and execution tracing.
//
// The building blocks live in subpackages:
//
//   - agent: the execution loop. An Agent renders prompts from its persona,
//     tool schemas and accumulated memory, detects tool calls in model
//     responses, executes them and consults a stop condition until a final
//     answer is produced.
//   - tool: the tool invoker. Wraps a plain function with a declared
//     parameter schema, argument validation, an optional timeout and an
//     error policy that can turn failures into sentinel outputs.
//   - stop: termination predicates over the loop's step counter and memory.
//   - pool: multi-agent orchestration. A Pool runs its agents under a Router
//     (round-robin, custom function or model-backed RoutingAgent), chains
//     outputs between agents and shares a State across the run.
//   - history: persistent conversation storage (in-memory, file, SQLite,
//     Postgres, Redis) plus context-window management strategies that keep a
//     thread within a message budget.
//   - model: the Model contract with OpenAI and Anthropic adapters and a
//     scriptable mock for tests.
//   - tracing: optional observers around agent runs, model calls and tool
//     executions.
//
// A minimal agent:
//
//	m := openai.NewModel()
//	a := agent.New("assistant", "General helper", "You are a helpful assistant.", func(o *agent.Options) {
//		o.Model = m
//	})
//	answer, err := a.Run(ctx, "What is the capital of France?")
//
// A two-agent pool with output chaining:
//
//	p := pool.New([]*agent.Agent{researcher, writer}, func(o *pool.Options) {
//		o.Router = pool.NewRoutingAgent(m)
//		o.MaxIter = 4
//	})
//	report, err := p.Run(ctx, "Summarize the latest Go release.")
//
// See the examples directory for complete programs.
package agentpool
