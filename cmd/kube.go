package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/executor"
	"github.com/oakwood-commons/cmtui/internal/kube"
	"github.com/oakwood-commons/cmtui/internal/navigator"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui"
	"github.com/oakwood-commons/cmtui/internal/ui/dialog"
	"github.com/oakwood-commons/cmtui/pkg/settings"
)

// kubeKind describes one object kind the cluster commands list.
type kubeKind struct {
	use   string
	short string
	view  string
	list  func(ctx context.Context, src *kube.Source, namespace, selector string) ([]any, error)
	// delete is nil for kinds that cannot be deleted from the list.
	delete func(ctx context.Context, src *kube.Source, obj any) error
}

var podsKind = kubeKind{
	use:   "pods",
	short: "Browse the pods of a cluster with background refresh",
	view:  "pods",
	list: func(ctx context.Context, src *kube.Source, ns, sel string) ([]any, error) {
		return src.ListPods(ctx, ns, sel)
	},
	delete: func(ctx context.Context, src *kube.Source, obj any) error {
		return src.DeletePod(ctx,
			navigator.DeepGetString(obj, "metadata#namespace", ""),
			navigator.DeepGetString(obj, "metadata#name", ""))
	},
}

var configMapsKind = kubeKind{
	use:   "configmaps",
	short: "Browse the config maps of a cluster with background refresh",
	view:  "configmaps",
	list: func(ctx context.Context, src *kube.Source, ns, sel string) ([]any, error) {
		if sel != "" {
			return nil, fmt.Errorf("label selectors are not supported for config maps")
		}
		return src.ListConfigMaps(ctx, ns)
	},
}

type kubeFlags struct {
	kubeconfig    string
	context       string
	namespace     string
	allNamespaces bool
	pickNamespace bool
	selector      string
	once          bool
	timeout       time.Duration
	input         inputFlags
}

// kubeCommand builds the command listing kind from the cluster.
func kubeCommand(kind kubeKind) *cobra.Command {
	var f kubeFlags
	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		Long: kind.short + `.
The list refreshes in the background while it is idle. With --once the objects are printed
as a table instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKube(cmd, kind, &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.kubeconfig, "kubeconfig", "", "path to the kubeconfig (default from config, KUBECONFIG or ~/.kube/config)")
	fl.StringVar(&f.context, "context", "", "kubeconfig context (default: the current context)")
	fl.StringVarP(&f.namespace, "namespace", "n", "default", "namespace to list")
	fl.BoolVarP(&f.allNamespaces, "all-namespaces", "A", false, "list every namespace")
	fl.BoolVar(&f.pickNamespace, "pick-namespace", false, "choose the namespace from a dialog")
	fl.StringVarP(&f.selector, "selector", "l", "", "label selector")
	fl.BoolVar(&f.once, "once", false, "print the objects once and exit")
	fl.DurationVar(&f.timeout, "timeout", 30*time.Second, "timeout of each API request")
	fl.StringVar(&f.input.filter, "filter", "", "CEL expression over each object bound to 'row'")
	fl.StringVar(&f.input.view, "view", "", "view name or path to a view file (default: "+kind.view+")")
	fl.IntVar(&f.input.limit.Limit, "limit", 0, "show at most N objects")
	fl.IntVar(&f.input.limit.Offset, "offset", 0, "skip the first N objects")
	fl.IntVar(&f.input.limit.Tail, "tail", 0, "show only the last N objects")
	return cmd
}

func runKube(cmd *cobra.Command, kind kubeKind, f *kubeFlags) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	if err := f.input.limit.Validate(); err != nil {
		return err
	}
	opts := kube.Options{Kubeconfig: f.kubeconfig, Context: f.context, Timeout: f.timeout}
	if opts.Kubeconfig == "" {
		opts.Kubeconfig = cfg.Kubeconfig
	}
	client, err := kube.NewClientset(opts)
	if err != nil {
		return err
	}
	src := kube.NewSource(client)

	viewName := f.input.view
	if viewName == "" {
		viewName = kind.view
	}
	v, err := namedView(viewName, cfg)
	if err != nil {
		return err
	}
	filter, err := f.input.compileFilter()
	if err != nil {
		return err
	}

	log := uiLogger(ctx)
	resolver, err := ui.NewResolver(cfg, log)
	if err != nil {
		return err
	}

	namespace := f.namespace
	switch {
	case f.allNamespaces:
		namespace = ""
	case f.pickNamespace:
		namespace, err = pickNamespace(ctx, src, resolver)
		if err != nil {
			return err
		}
	}

	if f.once {
		objs, err := kind.list(ctx, src, namespace, f.selector)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printer, err := ui.NewResolver(outputConfig(cfg, out), logFrom(ctx))
		if err != nil {
			return err
		}
		return printTable(out, printer, v, objs, filter, f.input.limit, time.Now())
	}

	title := kind.use
	if name, err := kube.CurrentContext(opts); err == nil {
		title += "@" + name
	}
	if namespace != "" {
		title += "/" + namespace
	}

	exec := executor.New(cfg.Executor.Workers,
		executor.WithLogger(log),
		executor.WithTimeout(f.timeout),
		executor.WithMinInterval(time.Second),
	)
	defer exec.Close()

	uopts := ui.Options{
		Title:    title,
		View:     v,
		Filter:   filter,
		Limit:    f.input.limit,
		Config:   cfg,
		Resolver: resolver,
		Logger:   log,
		Events:   ui.NewEventLog(ui.DefaultEventLimit, settings.FromContextOrDefault(ctx).Debug),
		Executor: exec,
		Source: func(ctx context.Context) ([]any, error) {
			return kind.list(ctx, src, namespace, f.selector)
		},
	}
	if kind.delete != nil {
		uopts.Delete = func(ctx context.Context, obj any) error { return kind.delete(ctx, src, obj) }
	}
	return ui.Run(ctx, uopts)
}

func pickNamespace(ctx context.Context, src *kube.Source, resolver *themes.Resolver) (string, error) {
	names, err := src.Namespaces(ctx)
	if err != nil {
		return "", err
	}
	items := make([]dialog.Item, len(names))
	for i, n := range names {
		items[i] = dialog.Item{Columns: []themes.ThemeArray{{themes.Str(n, "windowwidget", "default")}}, Value: n}
	}
	res, err := dialog.Run(ctx, dialog.New(dialog.Spec{Title: "Namespace", Items: items, Refs: resolver}), dialog.WithResolver(resolver))
	if err != nil {
		return "", err
	}
	ns, ok := res.Value.(string)
	if res.Outcome != dialog.Selected || !ok {
		return "", errCancelled
	}
	return ns, nil
}
