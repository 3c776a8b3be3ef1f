// Package monitoring turns a running co-simulation into a small status
// server, so the driver state, channel fill levels, and host resource usage
// can be inspected from outside the process.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/bridgesim/cosim"
	"github.com/sarchlab/bridgesim/naming"
	"github.com/sarchlab/bridgesim/wiring"
)

// Monitor serves the state of one driver over HTTP. All answers are
// point-in-time snapshots; the driver keeps running while they are taken.
type Monitor struct {
	driver     *cosim.Driver
	transport  cosim.Transport
	wrapper    *wiring.Wrapper
	portNumber int
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the status server.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the status server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterDriver registers the driver to be monitored.
func (m *Monitor) RegisterDriver(d *cosim.Driver) {
	m.driver = d
}

// RegisterTransport registers the transport whose cycle counters are
// reported.
func (m *Monitor) RegisterTransport(t cosim.Transport) {
	m.transport = t
}

// RegisterWrapper registers the wrapper whose channels are reported.
func (m *Monitor) RegisterWrapper(w *wiring.Wrapper) {
	m.wrapper = w
}

// StartServer starts serving on the configured port, or a random one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/report", m.report)
	r.HandleFunc("/api/channels", m.channels)
	r.HandleFunc("/api/list_bridges", m.listBridges)
	r.HandleFunc("/api/list_models", m.listModels)
	r.HandleFunc("/api/module/{name}", m.moduleDetails)
	r.HandleFunc("/api/resource", m.listResources)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(os.Stderr,
		"Monitoring simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		dieOnErr(http.Serve(listener, r))
	}()
}

type statusRsp struct {
	State       string `json:"state"`
	TargetCycle uint64 `json:"target_cycle"`
	HostCycle   uint64 `json:"host_cycle"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{State: m.driver.State().String()}

	if m.transport != nil {
		rsp.TargetCycle = m.transport.TargetCycle()
		rsp.HostCycle = m.transport.HostCycle()
	}

	writeJSON(w, rsp)
}

func (m *Monitor) report(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.driver.Report())
}

func (m *Monitor) channels(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := channelsParseParams(r)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	statuses := sortAndSelectChannels(
		m.wrapper.Channels(), sortMethod, limit, offset)

	writeJSON(w, statuses)
}

func channelsParseParams(
	r *http.Request,
) (sortMethod string, limit, offset int, err error) {
	sortMethod = r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}
	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, errors.Errorf(
			"invalid sort method: %s, allowed values are `level` and `percent`",
			sortMethod)
	}

	limit, err = intParam(r, "limit")
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offset, err = intParam(r, "offset")
	if err != nil {
		return sortMethod, limit, 0, err
	}

	return sortMethod, limit, offset, nil
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}

	return strconv.Atoi(s)
}

func channelPercent(s wiring.ChannelStatus) float64 {
	if s.Capacity == 0 {
		return 0
	}

	return float64(s.Queued) / float64(s.Capacity)
}

func sortAndSelectChannels(
	statuses []wiring.ChannelStatus,
	sortMethod string,
	limit, offset int,
) []wiring.ChannelStatus {
	sorted := make([]wiring.ChannelStatus, len(statuses))
	copy(sorted, statuses)

	switch sortMethod {
	case "level":
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Queued != sorted[j].Queued {
				return sorted[i].Queued > sorted[j].Queued
			}

			return channelPercent(sorted[i]) > channelPercent(sorted[j])
		})
	case "percent":
		sort.SliceStable(sorted, func(i, j int) bool {
			pi := channelPercent(sorted[i])
			pj := channelPercent(sorted[j])
			if pi != pj {
				return pi > pj
			}

			return sorted[i].Queued > sorted[j].Queued
		})
	default:
		panic("invalid sort method " + sortMethod)
	}

	if offset > len(sorted) {
		offset = len(sorted)
	}
	sorted = sorted[offset:]

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}

func (m *Monitor) listBridges(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.driver.Bridges()))
	for _, b := range m.driver.Bridges() {
		names = append(names, b.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listModels(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.driver.Models()))
	for _, md := range m.driver.Models() {
		names = append(names, md.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) moduleDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	module := m.findModuleOr404(w, name)
	if module == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(module)
	serializer.SetMaxDepth(1)

	dieOnErr(serializer.Serialize(w))
}

// findModuleOr404 searches bridges first, then models.
func (m *Monitor) findModuleOr404(
	w http.ResponseWriter,
	name string,
) naming.Named {
	for _, b := range m.driver.Bridges() {
		if b.Name() == name {
			return b
		}
	}

	for _, md := range m.driver.Models() {
		if md.Name() == name {
			return md
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Module not found"))
	dieOnErr(err)

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
