/*
Package session serializes access to signup sessions.

Every read-modify-write of a FlowState goes through Manager.WithLock, which
holds a per-session mutex in this process and, when configured, a distributed
lock shared by all replicas.
*/
package session
