// Package agent defines the capability worker contract and the registry the
// router dispatches through.
//
// Every worker implements Worker: an identity (Name, Description, Kind), a
// lifecycle (Initialize, Shutdown) and Handle, which takes a free-form
// message plus recent history and returns a Result. Handle never returns an
// error; failures are Results with Success false and a stable Error code.
//
// Beyond Handle, each kind exposes a typed operation set used by the
// direct endpoints:
//
//	KindCommand  CommandRunner  Execute
//	KindFile     FileEditor     Apply(FileRequest)
//	KindBrowser  Navigator      Navigate, Screenshot, Extract, Search
//	KindPlanner  Planner        CreatePlan, UpdatePlan, ListPlans, GetPlan
//	KindTool     ToolInvoker    Register, RegisterText, Invoke, SetCredential, ListTools
//
// Callers resolve the typed view with As:
//
//	runner, ok := agent.As[agent.CommandRunner](registry, agent.KindCommand)
//
// A Registry is built once from a fixed set of workers and never changes,
// so it needs no locking and tests can build one from fakes.
package agent
