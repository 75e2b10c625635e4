// Package prof turns scheduler dispatch samples into a real pprof
// profile. Grounded on the teacher's own (hardware-specific) profiling
// scaffolding: profhw_i is kept as the sampling-source interface,
// nilprof_t as the no-hardware-counters fallback (see
// justanotherdot-biscuit's kernel/main.go), generalized here from raw
// PMC register reads to counting scheduler dispatches per thread name,
// since this core has no real performance-monitoring hardware to poll.
package prof

import (
	"bytes"
	"sync"

	"github.com/google/pprof/profile"
)

/// Sampler is the hardware profiling collaborator this package's own
/// sampling loop may optionally delegate to, mirroring the teacher's
/// profhw_i (prof_init/startpmc/stoppmc/startnmi/stopnmi) trimmed to
/// the one hook this core actually drives: being told a sample point
/// was just taken.
type Sampler interface {
	Sample()
}

/// NilSampler is the profhw_i fallback used when no hardware counters
/// are available — every host this runs on, since there is no real
/// CPU underneath a teaching kernel's test harness.
type NilSampler struct{}

/// Sample is a no-op.
func (NilSampler) Sample() {}

var (
	mu     sync.Mutex
	counts = map[string]int64{}
	hw     Sampler = NilSampler{}
)

/// SetHardware installs the sampling-source collaborator Sample
/// delegates to after recording its own dispatch count.
func SetHardware(s Sampler) {
	mu.Lock()
	defer mu.Unlock()
	hw = s
}

/// Sample records one dispatch of the named thread. Called by the
/// scheduler (component C) on every context switch.
func Sample(threadName string) {
	mu.Lock()
	counts[threadName]++
	h := hw
	mu.Unlock()
	h.Sample()
}

/// Reset clears all recorded samples, used between test scenarios that
/// each want their own clean dispatch transcript.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	counts = map[string]int64{}
}

/// Counts returns a snapshot of dispatch counts by thread name.
func Counts() map[string]int64 {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

/// Dump builds a pprof Profile whose samples are "dispatches" per
/// thread name: one synthetic Location/Function per thread, each
/// sample carrying that thread's dispatch count. It is real enough to
/// round-trip through profile.Profile's own Write/Parse and to be
/// opened with `go tool pprof`.
func Dump() *profile.Profile {
	mu.Lock()
	snapshot := make(map[string]int64, len(counts))
	for k, v := range counts {
		snapshot[k] = v
	}
	mu.Unlock()

	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "dispatches", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "dispatch", Unit: "count"},
		Period:     1,
	}

	var fid, lid uint64
	for name, n := range snapshot {
		fid++
		lid++
		fn := &profile.Function{ID: fid, Name: name, SystemName: name}
		loc := &profile.Location{ID: lid, Line: []profile.Line{{Function: fn}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{n},
		})
	}
	return p
}

/// WriteGzip serializes Dump's profile as a gzip-compressed .pb.gz
/// payload, the format `go tool pprof` expects on disk.
func WriteGzip() ([]byte, error) {
	var buf bytes.Buffer
	if err := Dump().Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
