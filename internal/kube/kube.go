// Package kube is the Kubernetes data source of cmtui. It turns API objects into the plain
// map/slice trees the views and panes consume.
package kube

import (
	"context"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	"k8s.io/client-go/tools/clientcmd"
)

// Options select the cluster.
type Options struct {
	// Kubeconfig overrides the default loading rules (KUBECONFIG, ~/.kube/config).
	Kubeconfig string
	// Context overrides the current context.
	Context string
	Timeout time.Duration
}

func clientConfig(opts Options) clientcmd.ClientConfig {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if opts.Kubeconfig != "" {
		rules.ExplicitPath = opts.Kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: opts.Context}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)
}

// NewClientset builds a clientset from the kubeconfig.
func NewClientset(opts Options) (kubernetes.Interface, error) {
	restConfig, err := clientConfig(opts).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config for context %q: %w", opts.Context, err)
	}
	restConfig.Timeout = opts.Timeout
	if restConfig.Timeout == 0 {
		restConfig.Timeout = 30 * time.Second
	}
	cs, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}
	return cs, nil
}

// CurrentContext names the context opts resolve to.
func CurrentContext(opts Options) (string, error) {
	if opts.Context != "" {
		return opts.Context, nil
	}
	raw, err := clientConfig(opts).RawConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if raw.CurrentContext == "" {
		return "", fmt.Errorf("current kubeconfig context is not set")
	}
	return raw.CurrentContext, nil
}

// Source lists objects through a clientset.
type Source struct {
	client kubernetes.Interface
	now    func() time.Time
}

func NewSource(client kubernetes.Interface) *Source {
	return &Source{client: client, now: time.Now}
}

// ListPods returns the pods of namespace (all namespaces when empty) as generic trees,
// ordered by namespace and name. selector is a label selector and may be empty.
func (s *Source) ListPods(ctx context.Context, namespace, selector string) ([]any, error) {
	if _, err := labels.Parse(selector); err != nil {
		return nil, fmt.Errorf("invalid label selector %q: %w", selector, err)
	}
	list, err := s.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing pods: %w", err)
	}
	pods := list.Items
	sort.Slice(pods, func(i, j int) bool {
		if pods[i].Namespace != pods[j].Namespace {
			return pods[i].Namespace < pods[j].Namespace
		}
		return pods[i].Name < pods[j].Name
	})
	now := s.now()
	out := make([]any, 0, len(pods))
	for i := range pods {
		obj, err := toTree(&pods[i])
		if err != nil {
			return nil, err
		}
		obj["summary"] = podSummary(&pods[i], now)
		out = append(out, obj)
	}
	return out, nil
}

// ListConfigMaps returns the config maps of namespace as generic trees.
func (s *Source) ListConfigMaps(ctx context.Context, namespace string) ([]any, error) {
	list, err := s.client.CoreV1().ConfigMaps(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing config maps: %w", err)
	}
	cms := list.Items
	sort.Slice(cms, func(i, j int) bool {
		if cms[i].Namespace != cms[j].Namespace {
			return cms[i].Namespace < cms[j].Namespace
		}
		return cms[i].Name < cms[j].Name
	})
	out := make([]any, 0, len(cms))
	for i := range cms {
		obj, err := toTree(&cms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Namespaces returns the sorted namespace names.
func (s *Source) Namespaces(ctx context.Context) ([]string, error) {
	list, err := s.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	sort.Strings(names)
	return names, nil
}

// DeletePod removes a pod.
func (s *Source) DeletePod(ctx context.Context, namespace, name string) error {
	if err := s.client.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("deleting pod %s/%s: %w", namespace, name, err)
	}
	return nil
}

// toTree converts a typed object to map[string]any. Timestamps become RFC 3339 strings and
// integers int64.
func toTree(obj runtime.Object) (map[string]any, error) {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("converting %T: %w", obj, err)
	}
	return m, nil
}

// podSummary holds the derived columns kubectl shows for a pod. The views reach them
// under the "summary" key.
func podSummary(pod *corev1.Pod, now time.Time) map[string]any {
	var ready, restarts int64
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += int64(cs.RestartCount)
	}
	age := int64(0)
	if !pod.CreationTimestamp.IsZero() {
		age = int64(now.Sub(pod.CreationTimestamp.Time) / time.Second)
	}
	status := string(pod.Status.Phase)
	if pod.DeletionTimestamp != nil {
		status = "Terminating"
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if w := cs.State.Waiting; w != nil && w.Reason != "" {
			status = w.Reason
			break
		}
	}
	return map[string]any{
		"ready":    fmt.Sprintf("%d/%d", ready, len(pod.Spec.Containers)),
		"restarts": restarts,
		"age":      age,
		"status":   status,
	}
}
