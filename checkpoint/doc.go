// Package checkpoint persists point-in-time copies of a run's context
// between top-level pipeline steps, so an external caller can resume a run
// after a crash or restart.
//
// AfterStep adapts a Store to a pipeline executor hook; MemoryStore serves
// single-process use and tests, RedisStore serves cross-process resume.
package checkpoint
