// Package dashboard serves a small HTML view of a running kernel.Kernel:
// the process table, a per-process detail page, and a parent/child process
// tree, refreshed on demand rather than polled.
package dashboard

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arctir/nucleus/kernel"
)

const (
	port          = ":8080"
	refreshPath   = "/refresh"
	processesPath = "/process/"
	treePath      = "/tree/"
)

// Dashboard serves an HTTP view over a kernel.Kernel's live state.
type Dashboard struct {
	k           *kernel.Kernel
	data        Data
	refreshLock sync.Mutex
}

// Data is what the all-processes view renders.
type Data struct {
	LastRefresh time.Time
	Snapshot    kernel.Snapshot
}

// DetailKV is one field/value pair on the process-detail view.
type DetailKV struct {
	Field string
	Value string
}

// New returns a Dashboard over k. Unlike the teacher's UI (which owned its
// own process inspector), the kernel is supplied by the caller — a
// Dashboard never constructs or boots one.
func New(k *kernel.Kernel) *Dashboard {
	return &Dashboard{k: k}
}

// Serve registers the dashboard's routes and blocks serving HTTP, panicking
// if the listener fails to start — matching nucleusctl's fail-fast CLI
// style for commands that can't recover from a bind failure.
func (d *Dashboard) Serve() {
	http.HandleFunc("/", d.handleAllProcesses)
	http.HandleFunc(refreshPath, d.handleRefresh)
	http.HandleFunc(processesPath, d.handleProcessDetails)
	http.HandleFunc(treePath, d.handleProcessTree)

	log.Printf("nucleus dashboard serving at %s", port)
	panic(http.ListenAndServe(port, nil))
}

func (d *Dashboard) refresh() {
	d.data.Snapshot = d.k.Snapshot()
	d.data.LastRefresh = time.Now()
}

func (d *Dashboard) handleAllProcesses(w http.ResponseWriter, r *http.Request) {
	d.refreshLock.Lock()
	defer d.refreshLock.Unlock()
	d.refresh()

	t, err := createTemplate(allProcessesView)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, d.data); err != nil {
		writeFailure(w, err)
	}
}

func (d *Dashboard) handleRefresh(w http.ResponseWriter, r *http.Request) {
	d.refreshLock.Lock()
	d.refresh()
	d.refreshLock.Unlock()
	log.Println("refreshed kernel snapshot")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (d *Dashboard) findProc(pid int) (kernel.ProcInfo, bool) {
	for _, p := range d.data.Snapshot.Procs {
		if p.PID == pid {
			return p, true
		}
	}
	return kernel.ProcInfo{}, false
}

func (d *Dashboard) handleProcessDetails(w http.ResponseWriter, r *http.Request) {
	pidString := strings.TrimPrefix(r.URL.Path, processesPath)
	pid, err := strconv.Atoi(pidString)
	if err != nil {
		writeFailure(w, err)
		return
	}

	d.refreshLock.Lock()
	p, ok := d.findProc(pid)
	d.refreshLock.Unlock()
	if !ok {
		writeFailure(w, fmt.Errorf("process %d does not exist", pid))
		return
	}

	t, err := createTemplate(viewProcessDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, p); err != nil {
		writeFailure(w, err)
	}
}

func (d *Dashboard) handleProcessTree(w http.ResponseWriter, r *http.Request) {
	pidString := strings.TrimPrefix(r.URL.Path, treePath)
	pid, err := strconv.Atoi(pidString)
	if err != nil {
		writeFailure(w, err)
		return
	}

	d.refreshLock.Lock()
	_, ok := d.findProc(pid)
	hierarchy := d.processHierarchy(pid)
	d.refreshLock.Unlock()
	if !ok {
		writeFailure(w, fmt.Errorf("process %d does not exist", pid))
		return
	}

	t, err := createTemplate(viewTreeDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, hierarchy); err != nil {
		writeFailure(w, err)
	}
}

// processHierarchy returns pid and each of its ancestors, closest first,
// stopping when a parent pid isn't found in the current snapshot (init has
// no parent, and a reaped ancestor simply ends the chain).
func (d *Dashboard) processHierarchy(pid int) []kernel.ProcInfo {
	var chain []kernel.ProcInfo
	seen := map[int]bool{}
	for {
		p, ok := d.findProc(pid)
		if !ok || seen[pid] {
			break
		}
		seen[pid] = true
		chain = append(chain, p)
		if p.ParentPID == 0 {
			break
		}
		pid = p.ParentPID
	}
	return chain
}

// getProcessDetails flattens a kernel.ProcInfo into field/value rows for
// the detail template.
func getProcessDetails(p kernel.ProcInfo) []DetailKV {
	return []DetailKV{
		{"PID", fmt.Sprintf("%d", p.PID)},
		{"ParentPID", fmt.Sprintf("%d", p.ParentPID)},
		{"State", p.State},
		{"Name", p.Name},
		{"CPU", fmt.Sprintf("%d", p.CPU)},
		{"Killed", fmt.Sprintf("%v", p.Killed)},
	}
}

// createTemplate returns a template wrapping temp with the common header
// and footer.
func createTemplate(temp string) (*template.Template, error) {
	t, err := template.New("response").
		Funcs(template.FuncMap{"pDeets": getProcessDetails}).
		Parse(uiHeader + temp + uiFooter)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func writeFailure(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	t, tErr := createTemplate(errorView)
	if tErr != nil {
		return
	}
	t.Execute(w, err.Error())
}
