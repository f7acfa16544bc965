package metrics

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// Record is the result of computing the metrics of one document. Every
// metric is independently optional; Reasons explains each unavailable one.
type Record struct {
	File      string `json:"file" yaml:"file"`
	Project   string `json:"project,omitempty" yaml:"project,omitempty"`
	Candidate string `json:"candidate,omitempty" yaml:"candidate,omitempty"`

	CiD   Value `json:"CiD" yaml:"CiD"`
	CMod  Value `json:"CMod" yaml:"CMod"`
	SCF   Value `json:"SCF" yaml:"SCF"`
	SMAD  Value `json:"SMAD" yaml:"SMAD"`
	DCCMD Value `json:"DCCMD" yaml:"DCCMD"`

	Diagnostics Diagnostics `json:"diagnostics" yaml:"diagnostics"`

	// StoryDepths lists the depth of every use-case story, in story order.
	StoryDepths []StoryDepth `json:"story_depths,omitempty" yaml:"story_depths,omitempty"`

	// Error is set when the document itself could not be read or parsed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Reasons maps the name of each unavailable metric to why.
	Reasons map[string]string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Diagnostics holds the auxiliary counters reported next to the metrics.
type Diagnostics struct {
	Partitions          Count `json:"partitions" yaml:"partitions"`
	CyclicPairs         Count `json:"cyclic_pairs" yaml:"cyclic_pairs"`
	TotalPairs          Count `json:"total_pairs" yaml:"total_pairs"`
	ClusteredPartitions Count `json:"clustered_partitions" yaml:"clustered_partitions"`
	ExternalEdges       Count `json:"external_edges" yaml:"external_edges"`
	DiscardedEdges      Count `json:"discarded_edges" yaml:"discarded_edges"`
	Stories             Count `json:"stories" yaml:"stories"`
	MedianDepth         Value `json:"median_depth" yaml:"median_depth"`
	DepthMAD            Value `json:"depth_mad" yaml:"depth_mad"`
	SizeMAD             Value `json:"size_mad" yaml:"size_mad"`
	MedianSize          Value `json:"median_size" yaml:"median_size"`
	MinSize             Count `json:"min_size" yaml:"min_size"`
	MaxSize             Count `json:"max_size" yaml:"max_size"`
}

// StoryDepth is the longest dependency chain reachable from a use-case story.
type StoryDepth struct {
	Story string `json:"story" yaml:"story"`
	Depth int    `json:"depth" yaml:"depth"`
}

// NewRecord returns a record for file with every metric unavailable and the
// identity parsed from the file name.
func NewRecord(file string) Record {
	rec := Record{File: file}
	rec.Project, rec.Candidate, _ = ParseIdentity(file)
	return rec
}

// Clone returns a copy of r that shares no slices or maps with it.
func (r Record) Clone() Record {
	r.StoryDepths = slices.Clone(r.StoryDepths)
	r.Reasons = maps.Clone(r.Reasons)
	return r
}

// Value returns the value of the named metric.
func (r *Record) Value(name string) Value {
	switch name {
	case NameCiD:
		return r.CiD
	case NameCMod:
		return r.CMod
	case NameSCF:
		return r.SCF
	case NameSMAD:
		return r.SMAD
	case NameDCCMD:
		return r.DCCMD
	default:
		return NA()
	}
}

// SetValue sets the value of the named metric. Unknown names are ignored.
func (r *Record) SetValue(name string, v Value) {
	switch name {
	case NameCiD:
		r.CiD = v
	case NameCMod:
		r.CMod = v
	case NameSCF:
		r.SCF = v
	case NameSMAD:
		r.SMAD = v
	case NameDCCMD:
		r.DCCMD = v
	}
}

// Available returns the number of metrics with a value.
func (r *Record) Available() int {
	n := 0
	for _, name := range Names() {
		if r.Value(name).Valid() {
			n++
		}
	}
	return n
}

// setReason records why a metric is unavailable.
func (r *Record) setReason(name, reason string) {
	if r.Reasons == nil {
		r.Reasons = make(map[string]string)
	}
	r.Reasons[name] = reason
}

// ParseIdentity splits a document name of the form "project_candidate.json"
// at its first underscore. ok is false when either part would be empty.
func ParseIdentity(file string) (project, candidate string, ok bool) {
	base := filepath.Base(strings.TrimSpace(file))
	stem := strings.TrimSuffix(base, ".json")
	if stem == base {
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	project, candidate, found := strings.Cut(stem, "_")
	if !found || project == "" || candidate == "" {
		return "", "", false
	}
	return project, candidate, true
}
