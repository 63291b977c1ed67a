//go:build integration

package bootimage

import (
	"testing"
)

const (
	badRepo = "k00/0bernetes/kubernetes"
	k8sRepo = "kubernetes/kubernetes"
)

func TestFailWithBadToken(t *testing.T) {
	conf := GHManagerConfig{GHToken: "badToken"}
	gm := NewGHManager(conf)

	_, err := gm.GetArtifacts(k8sRepo)
	if err == nil {
		t.Error("expected error from using bad token, got nil")
	}
}

func TestFailWithInvalidRepo(t *testing.T) {
	gm := NewGHManager()
	if _, err := gm.GetArtifacts(badRepo); err == nil {
		t.Error("expected error from using bad repository, got nil")
	}
}

func TestGetArtifacts(t *testing.T) {
	gm := NewGHManager()
	repos, err := gm.GetArtifacts(k8sRepo)
	if err != nil {
		t.Fatalf("error retrieving release data: %s", err)
	}
	if len(repos) < 1 {
		t.Errorf("got %d releases, want at least 1", len(repos))
	}
}

func TestFetchInitCodeDefaultsWithoutNetwork(t *testing.T) {
	gm := NewGHManager()
	data, err := gm.FetchInitCode(FetchInitCodeOpts{})
	if err != nil {
		t.Fatalf("FetchInitCode with no RepoURL should not touch the network: %s", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty embedded default initcode")
	}
}
