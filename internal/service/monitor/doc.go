// Package monitor is the core of sysalarm: the alarm rule store, the
// threshold evaluator and the two background loops (sampling/evaluation
// and the attention pulse), all coordinated through a single Manager.
//
// The Manager is the only owner of shared mutable state. Rules and the
// triggered alarm live behind one mutex and cross every boundary as
// copies; the pulse flag is an atomic with a single writer. Both loops
// stop cooperatively, bounded by one interval plus a margin.
package monitor
