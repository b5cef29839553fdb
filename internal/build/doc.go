// Package build runs the site build pipeline.
//
// A build walks a fixed sequence of stages:
//
//	loading → indexing → composing → rendering → writing → publishing → done
//
// and stops at the first fatal stage error, ending in the failed state for
// that stage. There are no retries; the next trigger starts a fresh build.
// Publishing failures are soft: the site is already on disk and the build is
// reported with a warning outcome.
package build
