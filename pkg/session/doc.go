/*
Package session serializes access to in-progress task runs.

A task run is mutated by read-modify-write cycles: load the TaskResult, record a
step result, save it back. The Manager holds a per-run lock for the whole cycle
so concurrent requests for the same run cannot interleave and lose answers.
Locks are reference counted and dropped once no caller holds them. An optional
ports.DistributedLocker extends the guarantee across replicas.
*/
package session
