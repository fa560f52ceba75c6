package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"fedsearch/internal/config"
	"fedsearch/internal/federation"
	"fedsearch/internal/output"
	"fedsearch/internal/repository"
	"fedsearch/internal/search"
)

func exitCodeForRun(fatal, failed, empty bool) int {
	// Exit code contract:
	// 0 = search succeeded with results
	// 1 = search succeeded, no objects found
	// 2 = federated failure (a domain failed or the run timed out)
	// 3 = fatal error (search did not run)
	if fatal {
		return 3
	}
	if failed {
		return 2
	}
	if empty {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterDomain)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, strings.ToLower(strings.TrimSpace(emit)))
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

type Engine struct {
	// Stdout receives console and emit output; Stderr receives progress
	// messages. Nil means os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Logger is used by the coordinator and its workers. Nil builds one
	// from the runtime config.
	Logger *slog.Logger

	// openConnection is a test seam. If nil, Engine uses OpenConnection.
	openConnection ConnectionOpener

	// executorFactory is a test seam. If nil, the coordinator's pool is used.
	executorFactory federation.ExecutorFactory
}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Engine) logger(cfg *config.Config) *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return NewLogger(e.stderr(), cfg.Runtime.LogLevel, cfg.Runtime.LogFormat)
}

func (e *Engine) progress(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole {
		return
	}
	fmt.Fprintf(e.stderr(), format+"\n", args...)
}

func (e *Engine) resolveDomains(cfg *config.Config) ([]config.DomainEntry, bool) {
	e.progress(cfg, "Resolving domains...")
	if err := cfg.Load(); err != nil {
		fmt.Fprintf(e.stderr(), "Error loading domains: %v\n", err)
		return nil, false
	}
	entries := FilterDomains(cfg.Domains.Entries, cfg)
	e.progress(cfg, "Found %d domains.", len(entries))
	return entries, true
}

func (e *Engine) maybeDryRun(cfg *config.Config, plan *SearchPlan) (int, bool) {
	if !cfg.Domains.DryRun {
		return 0, false
	}

	w := e.stdout()
	fmt.Fprintf(w, "Search: %s\n", plan.Search.ID())
	if plan.Target != "" {
		fmt.Fprintf(w, "Domain: %s\n", plan.Target)
	}
	fmt.Fprintln(w, "Resolved domains:")
	for _, d := range plan.Domains {
		fmt.Fprintf(w, "%s (%s)\n", d.Name, d.Driver)
	}
	fmt.Fprint(w, plan.Statement())
	return 0, true
}

func (e *Engine) runPlan(ctx context.Context, cfg *config.Config, plan *SearchPlan, domains *Domains) (*federation.Result, error) {
	opts := []federation.Option{
		federation.WithTimeout(cfg.Runtime.Timeout),
		federation.WithMaxWorkers(cfg.Runtime.MaxWorkers),
		federation.WithLogger(e.logger(cfg)),
	}
	if e.executorFactory != nil {
		opts = append(opts, federation.WithExecutorFactory(e.executorFactory))
	}
	coord, err := federation.NewCoordinator(domains.Registry, opts...)
	if err != nil {
		return nil, err
	}

	user := repository.User{Name: cfg.Search.User, Domain: repository.Domain(cfg.Domains.Domain)}
	if plan.Search.Scope() == search.ScopeDomain {
		return coord.SearchDomain(ctx, user, repository.Domain(plan.Target), plan.Query)
	}
	return coord.Search(ctx, user, plan.Query)
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	entries, ok := e.resolveDomains(cfg)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	plan, err := NewSearchPlan(cfg, entries)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error resolving search: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	if code, ok := e.maybeDryRun(cfg, plan); ok {
		return code
	}

	e.progress(cfg, "Connecting to %d domains...", len(plan.Domains))
	domains, err := OpenDomains(ctx, cfg, plan.Domains, e.openConnection)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error connecting to domains: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer domains.Close()

	outMgr, err := setupOutputManager(cfg, e.stdout())
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	_ = outMgr.Write(output.Event{Type: output.EventSearchStarted, Search: plan.Search.ID(), Domains: domains.Names()})

	res, err := e.runPlan(ctx, cfg, plan, domains)
	if err != nil {
		pres := presentSearchError(err, cfg.Runtime.Verbose)
		code := exitCodeForRun(pres.disposition == searchErrDispositionFatal, true, false)
		_ = outMgr.Write(output.Event{Type: output.EventSearchFailed, Search: plan.Search.ID(), Error: pres.message, ExitCode: code})
		return code
	}
	for _, o := range res.Objects {
		_ = outMgr.Write(o)
	}

	code := exitCodeForRun(false, false, len(res.Objects) == 0)
	finished := output.Event{
		Type:       output.EventSearchFinished,
		Search:     res.Search,
		RunID:      res.RunID,
		Domains:    res.Domains,
		Objects:    len(res.Objects),
		ExitCode:   code,
		DurationMS: output.DurationMillis(res.Duration),
	}
	if v, ok := plan.Search.(search.Viewer); ok {
		finished.View = v.View(res.Objects)
	}
	_ = outMgr.Write(finished)
	return code
}
