package types

// RuleContext is the contract a rule body (a RuleBody implementation)
// executes against, per spec §4.7. It is declared here, rather than in
// package engine, so that RuleBody and builtin/rules can depend on
// it without importing engine — engine.ruleContext is the sole concrete
// implementation, built and owned by the BuildContext.
type RuleContext interface {
	// SrcPaths returns the resolved, de-duplicated absolute source paths
	// computed once at construction from the rule's srcs.
	SrcPaths() []string

	// AppendOutputPaths records additional produced output paths.
	AppendOutputPaths(paths ...string)

	// OutPath and GenPath derive target paths under the environment's
	// build-out/build-gen subtrees, preserving the rule's relative
	// module directory. suffix may be empty.
	OutPath(name, suffix string) string
	GenPath(name, suffix string) string
	OutPathForSrc(src string) string
	GenPathForSrc(src string) string

	// EnsureOutputExists idempotently creates dir and any missing parents.
	EnsureOutputExists(dir string) error

	// RunTaskAsync submits task to the build's executor and returns its
	// Future.
	RunTaskAsync(task Task) Future

	// Chain binds fs to the rule's own completion: success once every
	// input succeeds, failure with the first registered failure.
	Chain(fs ...Future)
	// ChainErrback forwards only f's failure to the rule's completion.
	ChainErrback(f Future)

	// CheckPredecessorFailures reports whether any predecessor of this
	// rule finished Failed.
	CheckPredecessorFailures() bool
	// CascadeFailure transitions the rule straight to Failed with a
	// Cascaded error, without invoking Begin.
	CascadeFailure()

	// Succeed and Fail perform the rule's one terminal transition. A
	// second call to either is a programming error.
	Succeed()
	Fail(err error)

	Logger() Logger
}

// Task is an opaque, self-contained unit of work submitted to an
// Executor. Implementations must carry all needed input by value: in the
// worker-pool executor, Run is invoked on a goroutine that shares no
// driver state.
type Task interface {
	Run() (any, error)
}

// Future is declared here (not only in package future) so that
// RuleContext.RunTaskAsync/Chain can be expressed without every consumer
// importing package future directly; future.Future satisfies this
// interface.
type Future interface {
	Resolved() bool
	Succeeded() bool
	Result() any
	Err() error
	OnSuccess(fn func(result any))
	OnFailure(fn func(err error))
}
