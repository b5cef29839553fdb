// Package watch turns filesystem changes into serialized site rebuilds.
//
// A Source reports changed paths. The Coalescer folds bursts of changes into a
// single build after a quiet window, never postpones a build past the max
// delay, runs at most one build at a time and collapses every change that
// arrives during a build into exactly one follow-up build.
package watch
