package kube

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

var created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func pod(ns, name string, phase corev1.PodPhase, labels map[string]string, statuses ...corev1.ContainerStatus) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:         ns,
			Name:              name,
			Labels:            labels,
			CreationTimestamp: metav1.NewTime(created),
		},
		Spec:   corev1.PodSpec{Containers: []corev1.Container{{Name: "main"}, {Name: "sidecar"}}},
		Status: corev1.PodStatus{Phase: phase, ContainerStatuses: statuses},
	}
}

func testSource(objs ...*corev1.Pod) *Source {
	cs := fake.NewSimpleClientset()
	for _, p := range objs {
		_, _ = cs.CoreV1().Pods(p.Namespace).Create(context.Background(), p, metav1.CreateOptions{})
	}
	s := NewSource(cs)
	s.now = func() time.Time { return created.Add(90 * time.Minute) }
	return s
}

func TestListPodsSortedWithSummary(t *testing.T) {
	s := testSource(
		pod("prod", "web-1", corev1.PodRunning, map[string]string{"app": "web"},
			corev1.ContainerStatus{Name: "main", Ready: true, RestartCount: 2},
			corev1.ContainerStatus{Name: "sidecar", Ready: false, RestartCount: 1}),
		pod("dev", "db-0", corev1.PodPending, map[string]string{"app": "db"}),
		pod("prod", "api-0", corev1.PodRunning, map[string]string{"app": "api"}),
	)

	pods, err := s.ListPods(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, pods, 3)

	var names []string
	for _, p := range pods {
		meta := p.(map[string]any)["metadata"].(map[string]any)
		names = append(names, meta["namespace"].(string)+"/"+meta["name"].(string))
	}
	assert.Equal(t, []string{"dev/db-0", "prod/api-0", "prod/web-1"}, names)

	summary := pods[2].(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, "1/2", summary["ready"])
	assert.Equal(t, int64(3), summary["restarts"])
	assert.Equal(t, int64(5400), summary["age"])
	assert.Equal(t, "Running", summary["status"])
}

func TestListPodsSelectorAndNamespace(t *testing.T) {
	s := testSource(
		pod("prod", "web-1", corev1.PodRunning, map[string]string{"app": "web"}),
		pod("prod", "api-0", corev1.PodRunning, map[string]string{"app": "api"}),
		pod("dev", "web-0", corev1.PodRunning, map[string]string{"app": "web"}),
	)

	pods, err := s.ListPods(context.Background(), "prod", "")
	require.NoError(t, err)
	assert.Len(t, pods, 2)

	pods, err = s.ListPods(context.Background(), "", "app=web")
	require.NoError(t, err)
	assert.Len(t, pods, 2)

	_, err = s.ListPods(context.Background(), "", "app in (")
	assert.Error(t, err)
}

func TestPodSummaryWaitingReason(t *testing.T) {
	p := pod("a", "b", corev1.PodPending, nil, corev1.ContainerStatus{
		State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"}},
	})
	assert.Equal(t, "CrashLoopBackOff", podSummary(p, created)["status"])

	now := metav1.Now()
	p = pod("a", "b", corev1.PodRunning, nil)
	p.DeletionTimestamp = &now
	assert.Equal(t, "Terminating", podSummary(p, created)["status"])
}

func TestConfigMapsAndNamespaces(t *testing.T) {
	cs := fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "kube-system"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Namespace: "kube-system", Name: "coredns"},
			Data:       map[string]string{"Corefile": ".:53 {\n    errors\n}\n"},
		},
	)
	s := NewSource(cs)

	names, err := s.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "kube-system"}, names)

	cms, err := s.ListConfigMaps(context.Background(), "kube-system")
	require.NoError(t, err)
	require.Len(t, cms, 1)
	data := cms[0].(map[string]any)["data"].(map[string]any)
	assert.Contains(t, data["Corefile"], "errors")
}

func TestDeletePod(t *testing.T) {
	s := testSource(pod("prod", "web-1", corev1.PodRunning, nil))
	require.NoError(t, s.DeletePod(context.Background(), "prod", "web-1"))
	pods, err := s.ListPods(context.Background(), "prod", "")
	require.NoError(t, err)
	assert.Empty(t, pods)

	assert.Error(t, s.DeletePod(context.Background(), "prod", "web-1"))
}

func TestCurrentContext(t *testing.T) {
	kubeconfig := `apiVersion: v1
kind: Config
current-context: staging
clusters:
- name: c
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: staging
  context:
    cluster: c
    user: u
users:
- name: u
  user:
    token: abc
`
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	name, err := CurrentContext(Options{Kubeconfig: path})
	require.NoError(t, err)
	assert.Equal(t, "staging", name)

	name, err = CurrentContext(Options{Kubeconfig: path, Context: "other"})
	require.NoError(t, err)
	assert.Equal(t, "other", name)

	cs, err := NewClientset(Options{Kubeconfig: path})
	require.NoError(t, err)
	assert.NotNil(t, cs)
}
