// Package provenance resolves which commit of nucleus itself is running;
// `nucleusctl provenance` prints it as a build identity. Procdump output,
// panic messages and the dashboard do not carry it. Most of what's here is
// a thin wrapper on go-git.
package provenance

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	CacheDirName     = "nucleus"
	CacheRepoDirName = "repos"
)

// ResolveRepoOpts provides instructions for how a repository should be retrieved.
type ResolveRepoOpts struct {
	// instructs doing all retrieval in memory. Note that for medium to large
	// size repos, this can cause significant memory consumption.
	InMemory bool
}

type Hash [20]byte

type Person struct {
	Name  string
	Email string
}

type Commit struct {
	Hash      Hash
	Title     string
	Date      time.Time
	Committer Person
	Author    Person
	Message   []byte
}

// GitManager operates on [git] repositories to resolve commit history,
// used here exclusively to answer "what commit am I" for build stamping.
//
// [git]: https://en.wikipedia.org/wiki/Git
type GitManager struct {
	GitManagerConfig
}

// GitManagerConfig provides the configuation settings used to create a
// GitManager. The struct should be created and used when calling the
// [NewGitManager] function.
type GitManagerConfig struct {
	// Represents a [personal access token] provided by GitHub.
	//
	// [personal access token]: https://docs.github.com/en/authentication/keeping-your-account-and-data-secure/creating-a-personal-access-token
	AccessToken string
}

type CommitReader interface {
	GetCommits() ([]Commit, error)
}

type Repository struct {
	URL     string
	RepoRef *git.Repository
}

// GetCommitsOpts enables putting constraints on the commit data you'd like to
// retrieve.
type GetCommitsOpts struct{}

// NewGitManager returns and instance of a [GitManager] based on the specified
// config. The config argument is optional. If a config is not passed or
// required values are left out, defaults will be set.
//
// The variadic nature of config is only to facilitate optional config
// arguments. Do not pass more than one instance of config into this function.
// If more than one is passed, the last config in the argument's slice will be
// used.
func NewGitManager(config ...GitManagerConfig) GitManager {
	conf := GitManagerConfig{}
	if len(config) > 0 {
		conf = config[len(config)-1]
	}
	return GitManager{GitManagerConfig: conf}
}

// GetCommits takes a [Repository], which should be generated using
// [ResolveRepo], and provides a slice of commits related to the repository,
// newest first.
//
// If there is an issue retrieving the commits from the repository, an error is
// returned.
func (gm *GitManager) GetCommits(r Repository, opts ...GetCommitsOpts) ([]Commit, error) {
	if r.RepoRef == nil {
		return nil, fmt.Errorf("failed to find reference to valid repo when looking up commits")
	}
	commits := []Commit{}
	commitObjs, err := r.RepoRef.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed getting all commits from repo. Error from git: %s", err)
	}

	commitObjs.ForEach(func(obj *object.Commit) error {
		commit := Commit{
			Hash: Hash(obj.Hash),
			Date: obj.Committer.When,
			Committer: Person{
				Name:  obj.Committer.Name,
				Email: obj.Committer.Email,
			},
			Author: Person{
				Name:  obj.Author.Name,
				Email: obj.Author.Email,
			},
			Message: []byte(obj.Message),
		}
		commits = append(commits, commit)
		return nil
	})

	return commits, nil
}

// BuildCommit resolves repoPath (typically ".", nucleus's own working copy)
// and returns the hash of its most recent commit, which `nucleusctl
// provenance` prints. Returns an error if repoPath isn't a git
// repository or has no commits yet.
func BuildCommit(repoPath string) (Hash, error) {
	ref, err := git.PlainOpen(repoPath)
	if err != nil {
		return Hash{}, fmt.Errorf("provenance: failed opening repo at %s: %s", repoPath, err)
	}
	return latestCommitHash(Repository{URL: repoPath, RepoRef: ref}, repoPath)
}

// BuildCommitFromURL resolves a remote repository via ResolveRepo —
// cloning it into nucleus's XDG cache directory on first use and fetching
// on subsequent calls — and returns the hash of its most recent commit.
// This is how `nucleusctl provenance --remote` stamps provenance against an
// upstream repository without requiring a local checkout.
func BuildCommitFromURL(url string, opts ...ResolveRepoOpts) (Hash, error) {
	repo, err := ResolveRepo(url, opts...)
	if err != nil {
		return Hash{}, fmt.Errorf("provenance: failed resolving %s: %s", url, err)
	}
	return latestCommitHash(*repo, url)
}

func latestCommitHash(repo Repository, label string) (Hash, error) {
	gm := NewGitManager()
	commits, err := gm.GetCommits(repo)
	if err != nil {
		return Hash{}, fmt.Errorf("provenance: failed resolving build commit: %s", err)
	}
	if len(commits) == 0 {
		return Hash{}, fmt.Errorf("provenance: repo at %s has no commits", label)
	}
	return commits[0].Hash, nil
}

// ResolveRepo accepts a repository's URL and opts for how the repo should be
// retrieved. By default, it looks up the [getDefaultCacheLocation] to
// determine if the repository was previously cached on the filesystem. If it
// is, it will do a git fetch to grab any new changes and return a reference to
// the repository. If the repo does not exist on the filesystem (cache), it
// will perform a clone that persists it to [getDefaultCacheLocation]. The
// directory name within the cache will be a base64 encoded representation of
// the url.
//
// If you wish to get a repository reference for a repo held entirely in
// memeory, you can set InMemory to true within the [ResolveRepoOpts] argument.
// Note that doing an in-memory clone can consume substatial system resouces
// (heap space) when the repository is large.
func ResolveRepo(url string, opts ...ResolveRepoOpts) (*Repository, error) {
	conf := ResolveRepoOpts{}
	if len(opts) > 0 {
		conf = opts[len(opts)-1]
	}
	if conf.InMemory {
		return newInMemRepo(url)
	}
	fp := filepath.Join(getDefaultCacheLocation(), getEncodedCacheName(url))
	if _, err := os.Stat(fp); err != nil {
		fmt.Println("caching repo for the first time, this operation may take a while...")
		return newFSRepo(url)
	}

	ref, err := git.PlainOpen(fp)
	if err != nil {
		return nil, fmt.Errorf("failed opening repo in cache: %s", err)
	}
	err = ref.Fetch(&git.FetchOptions{
		RemoteURL: url,
	})
	if err != nil {
		if err != git.NoErrAlreadyUpToDate {
			return nil, fmt.Errorf("failed checking if repo was up to date: %s", err)
		}
	}
	repo := &Repository{
		URL:     url,
		RepoRef: ref,
	}
	return repo, nil
}

// newFSRepo attempts to clone the repository to the filesystem and return a
// reference. If the repo already exists or there is an issue retrieving it
// over the network, an error is returned.
func newFSRepo(url string) (*Repository, error) {
	err := ensureCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed ensuring cache location exists or creating it: %s", err)
	}
	fp := filepath.Join(getDefaultCacheLocation(), getEncodedCacheName(url))
	ref, err := git.PlainClone(fp, true, &git.CloneOptions{
		URL:        url,
		NoCheckout: true,
	})
	if err != nil {
		return nil, err
	}
	repo := &Repository{
		URL:     url,
		RepoRef: ref,
	}
	return repo, nil
}

// newInMemRepo takes the url of a repository, for example
// github.com/spf13/cobra, and constructs an in-memory representation of the
// git-related data. If there is an issue creating this representation, an
// error is returned.
func newInMemRepo(url string) (*Repository, error) {
	mStore := memory.NewStorage()
	r, err := git.Clone(mStore, nil, &git.CloneOptions{
		URL:        url,
		NoCheckout: true,
	})
	if err != nil {
		return nil, err
	}

	remotes, err := r.Remotes()
	if err != nil {
		return nil, err
	}
	if len(remotes) < 1 {
		return nil, fmt.Errorf("failed creating new in-memory repo object: could not find at least one valid remote repository")
	}
	repo := &Repository{
		URL:     url,
		RepoRef: r,
	}
	return repo, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ensureCacheDir will verify that nucleus's cache dir already exists and if
// it doesn't, create it.
func ensureCacheDir() error {
	cacheFp := getDefaultCacheLocation()
	if _, err := os.Stat(cacheFp); err != nil {
		if os.IsNotExist(err) {
			err := os.MkdirAll(cacheFp, 0777)
			if err != nil {
				return err
			}
		} else {
			return err
		}
	}
	return nil
}

// getDefaultCacheLocation returns $XDG_DATA_HOME/nucleus/repos. This is where
// repositories that are cloned (cached) to the filesystem are stored.
func getDefaultCacheLocation() string {
	return filepath.Join(xdg.DataHome, CacheDirName, CacheRepoDirName)
}

// getEncodedCacheName takes a repo's URL and returns its representation in
// base64 encoding. This is used for creating unique cache directories when
// persisting cloned repos onto the filesystem.
func getEncodedCacheName(url string) string {
	return base64.StdEncoding.EncodeToString([]byte(url))
}
